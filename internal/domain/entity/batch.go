package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status do lote de compra de gado.
const (
	BatchStatusOpen     = "ABERTO"    // provisório: invisível para vendas e dashboards
	BatchStatusClosed   = "FECHADO"   // fechado: estoque e lançamentos financeiros válidos
	BatchStatusReversed = "ESTORNADO" // estornado: nenhuma mutação posterior
)

// Formas de pagamento da compra.
const (
	PaymentCash        = "AVISTA"
	PaymentInstallment = "PARCELADO"
)

// Batch representa um evento de compra de gado (lote).
// Itens de estoque e lançamentos financeiros que referenciam o lote só são
// válidos com status FECHADO — essa é a regra que sustenta toda a cadeia.
type Batch struct {
	ID              string    `json:"id"` // LOTE-<fornecedor>-<ano>-<seq>
	Supplier        string    `json:"fornecedor"`
	ReceivedDate    time.Time `json:"dataRecebimento"`
	TotalWeight     Num       `json:"pesoTotal"`
	PurchaseValue   Num       `json:"valorCompra"`
	Freight         Num       `json:"frete"`
	ExtraCosts      Num       `json:"custosExtras"`
	RealCostPerKg   Num       `json:"custoRealKg"` // derivado: custo total / peso total
	PaymentMethod   string    `json:"formaPagamento"`
	DownPayment     Num       `json:"entrada"`
	InstallmentDays int       `json:"prazoDias"`
	Status          string    `json:"status"`
	Version         int       `json:"versao"`
	CreatedAt       time.Time `json:"criadoEm"`
	UpdatedAt       time.Time `json:"atualizadoEm"`
}

// TotalCost devolve valorCompra + frete + custosExtras.
func (b *Batch) TotalCost() decimal.Decimal {
	return b.PurchaseValue.Add(b.Freight.Decimal).Add(b.ExtraCosts.Decimal)
}

// DecodeBatch desserializa um documento de lote com a passagem de
// normalização para registros legados (números em string, status ausente).
func DecodeBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decodificar lote: %w", err)
	}
	if b.Status == "" {
		b.Status = BatchStatusOpen
	}
	if b.InstallmentDays <= 0 {
		b.InstallmentDays = DefaultTermDays
	}
	return &b, nil
}
