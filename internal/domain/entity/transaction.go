package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direção do movimento de caixa.
const (
	DirectionIn  = "ENTRADA"
	DirectionOut = "SAIDA"
)

// Categorias de transação.
const (
	CategoryPurchase = "COMPRA"      // saída pela compra do lote
	CategoryReceipt  = "RECEBIMENTO" // entrada por pagamento de venda
	CategoryPayment  = "PAGAMENTO"   // saída por pagamento de conta
	CategoryDiscount = "DESCONTO"
	CategoryReversal = "ESTORNO"
	CategoryOther    = "OUTRO"
)

// Prefixos estruturais de id. Transações com esses prefixos pertencem ao
// ciclo de vida de um lote, venda ou conta a pagar e não podem ser
// estornadas diretamente (o estorno da entidade dona já gera o espelho).
const (
	TRBatchPrefix         = "TR-LOTE-"
	TRBatchDownPrefix     = "TR-LOTE-ENTRADA-"
	TRSaleReceiptPrefix   = "TR-VENDA-"
	TRClientReceiptPrefix = "TR-REC-"
	TRPayablePayPrefix    = "TR-PAG-"
	TRReversalPrefix      = "TR-EST-"
	TRManualPrefix        = "TR-"
)

// Transaction é um lançamento imutável do razão. Estornos são sempre NOVAS
// transações com direção invertida e categoria ESTORNO — nunca edição ou
// remoção do original, mantendo o histórico replayável.
type Transaction struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"data"`
	Description   string    `json:"descricao"`
	Direction     string    `json:"direcao"`
	Category      string    `json:"categoria"`
	Amount        Num       `json:"valor"`
	PaymentMethod string    `json:"formaPagamento,omitempty"`
	ReferenceID   string    `json:"referenciaId,omitempty"` // lote/venda/conta/transação de origem
	CreatedAt     time.Time `json:"criadoEm"`
}

// InvertDirection devolve a direção oposta.
func InvertDirection(d string) string {
	if d == DirectionIn {
		return DirectionOut
	}
	return DirectionIn
}

// NewTransaction monta um lançamento com data e criação agora.
func NewTransaction(id, description, direction, category string, amount decimal.Decimal, referenceID string) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:          id,
		Date:        now,
		Description: description,
		Direction:   direction,
		Category:    category,
		Amount:      N(amount),
		ReferenceID: referenceID,
		CreatedAt:   now,
	}
}

// NewMirror monta o lançamento espelho de t: mesmo valor, direção invertida,
// categoria ESTORNO, referenciando a transação original.
func NewMirror(t *Transaction) *Transaction {
	m := NewTransaction(
		TRReversalPrefix+uuid.New().String(),
		"Estorno: "+t.Description,
		InvertDirection(t.Direction),
		CategoryReversal,
		t.Amount.Decimal,
		t.ID,
	)
	m.PaymentMethod = t.PaymentMethod
	return m
}

// IsReversal informa se a transação já é um estorno.
func (t *Transaction) IsReversal() bool {
	return t.Category == CategoryReversal
}

// DecodeTransaction desserializa um documento de transação com normalização legada.
func DecodeTransaction(data []byte) (*Transaction, error) {
	var t Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decodificar transação: %w", err)
	}
	if t.Direction == "" {
		t.Direction = DirectionOut
	}
	if t.Category == "" {
		t.Category = CategoryOther
	}
	return &t, nil
}
