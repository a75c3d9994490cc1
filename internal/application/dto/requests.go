// Package dto define os contratos de entrada/saída entre a camada HTTP e os
// casos de uso. Campos numéricos usam entity.Num: valores ausentes ou não
// interpretáveis viram zero em vez de rejeitar a requisição.
package dto

import (
	"time"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
)

// CreateBatchRequest abertura de um lote de compra (status ABERTO).
type CreateBatchRequest struct {
	Supplier        string     `json:"fornecedor"`
	ReceivedDate    time.Time  `json:"dataRecebimento"`
	TotalWeight     entity.Num `json:"pesoTotal"`
	PurchaseValue   entity.Num `json:"valorCompra"`
	Freight         entity.Num `json:"frete"`
	ExtraCosts      entity.Num `json:"custosExtras"`
	PaymentMethod   string     `json:"formaPagamento"`
	DownPayment     entity.Num `json:"entrada"`
	InstallmentDays int        `json:"prazoDias"`
}

// CarcassInput uma carcaça do lote: inteira (pesoInteiro) ou duas bandas.
type CarcassInput struct {
	Sequence    int        `json:"sequencia"`
	Whole       bool       `json:"inteira"`
	WholeWeight entity.Num `json:"pesoInteiro"`
	SideAWeight entity.Num `json:"pesoBandaA"`
	SideBWeight entity.Num `json:"pesoBandaB"`
}

// CloseBatchRequest fechamento do lote: materializa estoque e lança o financeiro.
type CloseBatchRequest struct {
	PaymentMethod   string         `json:"formaPagamento"`
	DownPayment     entity.Num     `json:"entrada"`
	InstallmentDays int            `json:"prazoDias"`
	Carcasses       []CarcassInput `json:"carcacas"`
	Actor           string         `json:"ator,omitempty"`
}

// SaleItemInput item de estoque vendido, com o peso de saída pesado na balança.
type SaleItemInput struct {
	StockItemID string     `json:"itemId"`
	ExitWeight  entity.Num `json:"pesoSaida"`
}

// ConfirmSaleRequest confirmação de venda: itens agrupados por carcaça.
type ConfirmSaleRequest struct {
	ClientID        string          `json:"clienteId"`
	Items           []SaleItemInput `json:"itens"`
	PricePerKg      entity.Num      `json:"precoKg"`
	ExtraCostsTotal entity.Num      `json:"custosExtras"`
	PaymentMethod   string          `json:"formaPagamento"`
	TermDays        int             `json:"prazoDias"`
	Actor           string          `json:"ator,omitempty"`
}

// PaymentRequest pagamento parcial de uma venda ou de uma conta a pagar.
type PaymentRequest struct {
	Amount        entity.Num `json:"valor"`
	PaymentMethod string     `json:"formaPagamento"`
	Date          time.Time  `json:"data"`
	Actor         string     `json:"ator,omitempty"`
}

// ClientPaymentRequest recebimento de um cliente, liquidado nas vendas
// pendentes da mais antiga para a mais nova.
type ClientPaymentRequest struct {
	ClientID      string     `json:"clienteId"`
	Amount        entity.Num `json:"valor"`
	PaymentMethod string     `json:"formaPagamento"`
	Date          time.Time  `json:"data"`
	Actor         string     `json:"ator,omitempty"`
}

// TransactionRequest lançamento manual no caixa.
type TransactionRequest struct {
	Description   string     `json:"descricao"`
	Direction     string     `json:"direcao"`
	Category      string     `json:"categoria"`
	Amount        entity.Num `json:"valor"`
	PaymentMethod string     `json:"formaPagamento"`
	Date          time.Time  `json:"data"`
	ReferenceID   string     `json:"referenciaId"`
	Actor         string     `json:"ator,omitempty"`
}

// PayableRequest criação/edição de conta a pagar.
type PayableRequest struct {
	Description string     `json:"descricao"`
	Amount      entity.Num `json:"valor"`
	DueDate     time.Time  `json:"dataVencimento"`
	Category    string     `json:"categoria"`
	BatchID     string     `json:"loteId"`
	SupplierID  string     `json:"fornecedorId"`
	Actor       string     `json:"ator,omitempty"`
}

// ClientRequest criação/edição de cliente.
type ClientRequest struct {
	Name     string `json:"nome"`
	Document string `json:"documento"`
	Phone    string `json:"telefone"`
	City     string `json:"cidade"`
	Notes    string `json:"observacoes"`
}
