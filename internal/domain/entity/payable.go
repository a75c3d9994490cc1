package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status da conta a pagar.
const (
	PayablePending   = "PENDENTE"
	PayablePartial   = "PARCIAL"
	PayablePaid      = "PAGO"
	PayableCancelled = "CANCELADO" // nunca paga; cancelada sem movimento de caixa
	PayableReversed  = "ESTORNADO" // havia pagamento; estorno gera transação espelho
)

// Categorias de conta a pagar.
const (
	PayableCategoryPurchase = "COMPRA"
	PayableCategoryOther    = "OUTRO"
)

// Payable é uma obrigação a pagar — principalmente o saldo a prazo de um
// lote. Contas derivadas de lote usam id determinístico PAY-LOTE-<loteId>,
// garantindo no máximo uma conta por (lote, categoria COMPRA) mesmo em retry.
type Payable struct {
	ID          string    `json:"id"`
	Description string    `json:"descricao"`
	Amount      Num       `json:"valor"`
	AmountPaid  Num       `json:"valorPago"`
	DueDate     time.Time `json:"dataVencimento"`
	Status      string    `json:"status"`
	Category    string    `json:"categoria"`
	BatchID     string    `json:"loteId,omitempty"` // ausente em documentos antigos
	SupplierID  string    `json:"fornecedorId,omitempty"`
	Version     int       `json:"versao"`
	CreatedAt   time.Time `json:"criadoEm"`
	UpdatedAt   time.Time `json:"atualizadoEm"`
}

// Settled informa se a conta já saiu do fluxo ativo.
func (p *Payable) Settled() bool {
	return p.Status == PayableCancelled || p.Status == PayableReversed
}

// HasPayment informa se algum valor já foi pago.
func (p *Payable) HasPayment() bool {
	return p.AmountPaid.IsPositive()
}

// DecodePayable desserializa um documento de conta a pagar com normalização legada.
func DecodePayable(data []byte) (*Payable, error) {
	var p Payable
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decodificar conta a pagar: %w", err)
	}
	if p.Status == "" {
		p.Status = PayablePending
	}
	if p.Category == "" {
		p.Category = PayableCategoryOther
	}
	return &p, nil
}
