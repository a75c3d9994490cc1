// Package lote concentra a identidade determinística dos lotes e o casamento
// de registros legados com lotes. Toda extração de id de lote passa por
// ExtractID — havia dois padrões divergentes espalhados pelos call sites e
// formatos fora do padrão eram interpretados de forma diferente em cada um.
package lote

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Prefixos determinísticos derivados do lote.
const (
	IDPrefix            = "LOTE-"
	PayableIDPrefix     = "PAY-LOTE-"
	TransactionIDPrefix = "TR-LOTE-"
	DownPaymentIDPrefix = "TR-LOTE-ENTRADA-"
)

// idPattern é o padrão canônico de id de lote: LOTE-<código>-<ano>-<seq>.
var idPattern = regexp.MustCompile(`LOTE-[A-Z0-9]+-\d{4}-\d{1,4}`)

// NewID monta o id de um lote novo: LOTE-<código do fornecedor>-<ano>-<seq>.
func NewID(supplier string, year int, seq int) string {
	return fmt.Sprintf("%s%s-%d-%03d", IDPrefix, SupplierCode(supplier), year, seq)
}

// SupplierCode reduz o nome do fornecedor a um código curto (3 letras
// maiúsculas, sem acentos ou espaços). Nome vazio vira "XXX".
func SupplierCode(supplier string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(supplier) {
		if r >= 'A' && r <= 'Z' || unicode.IsDigit(r) {
			b.WriteRune(r)
			if b.Len() >= 3 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "XXX"
	}
	for b.Len() < 3 {
		b.WriteByte('X')
	}
	return b.String()
}

// PayableID devolve o id determinístico da conta a pagar derivada do lote.
// O id fixo é o que garante idempotência: um retry de fechamento encontra a
// conta existente em vez de duplicá-la.
func PayableID(batchID string) string {
	return PayableIDPrefix + batchID
}

// TransactionID devolve o id determinístico da transação de compra do lote.
func TransactionID(batchID string) string {
	return TransactionIDPrefix + batchID
}

// DownPaymentTransactionID devolve o id determinístico da transação de
// entrada (sinal) do lote parcelado.
func DownPaymentTransactionID(batchID string) string {
	return DownPaymentIDPrefix + batchID
}

// ExtractID extrai o primeiro id de lote presente em um texto livre
// (descrições de contas antigas). Devolve "" quando não há id.
func ExtractID(text string) string {
	return idPattern.FindString(strings.ToUpper(text))
}

// YearOf devolve o ano a usar em ids novos.
func YearOf(t time.Time) int { return t.Year() }
