package lote

import (
	"strings"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
)

// Estratégia que casou a conta com o lote (observabilidade e testes).
type MatchStrategy string

const (
	MatchNone          MatchStrategy = ""
	MatchStructured    MatchStrategy = "campo_estruturado"
	MatchDeterministic MatchStrategy = "id_deterministico"
	MatchDescription   MatchStrategy = "descricao"
)

// PayableMatches decide se uma conta a pagar pertence ao lote. Contas antigas
// podem não ter o campo loteId estruturado, então três estratégias são
// tentadas em ordem:
//  1. campo estruturado loteId;
//  2. id determinístico PAY-LOTE-<loteId> (ou id contendo o id do lote);
//  3. id de lote extraído da descrição (ExtractID canônico).
func PayableMatches(p *entity.Payable, batchID string) (bool, MatchStrategy) {
	if batchID == "" {
		return false, MatchNone
	}
	if p.BatchID == batchID {
		return true, MatchStructured
	}
	if p.ID == PayableID(batchID) || containsWholeID(p.ID, batchID) {
		return true, MatchDeterministic
	}
	if ExtractID(p.Description) == batchID {
		return true, MatchDescription
	}
	return false, MatchNone
}

// SaleBelongsToBatch decide se uma venda consome estoque do lote: os ids de
// item derivam do id do lote seguido de "-<seq>-<lado>".
func SaleBelongsToBatch(s *entity.Sale, batchID string) bool {
	for _, itemID := range s.Items() {
		if strings.HasPrefix(itemID, batchID+"-") {
			return true
		}
	}
	return false
}

// containsWholeID informa se s contém batchID inteiro, terminado no fim da
// string ou em um separador "-". A sequência do id tem largura variável
// (%03d alarga após 999), então Contains puro casaria LOTE-X-2025-100 com
// registros do LOTE-X-2025-1000.
func containsWholeID(s, batchID string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], batchID)
		if i < 0 {
			return false
		}
		end := from + i + len(batchID)
		if end == len(s) || s[end] == '-' {
			return true
		}
		from += i + 1
	}
}
