package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status de pagamento da venda.
const (
	SalePending  = "PENDENTE"
	SalePaid     = "PAGO"
	SaleReversed = "ESTORNADO"
)

// DefaultTermDays prazo padrão (dias) para vencimento de vendas e parcelas.
const DefaultTermDays = 30

// Epsilon tolerância monetária para comparações (evita loop de centavos).
var Epsilon = decimal.NewFromFloat(0.01)

// Sale é uma transação comercial; pode cobrir vários itens de estoque
// agrupados como uma carcaça (as duas bandas do mesmo animal vendidas
// juntas). A venda referencia os itens mas não é dona deles: o estorno
// devolve os itens, não os apaga.
type Sale struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"clienteId"`
	ClientName    string    `json:"clienteNome"`
	StockItemIDs  []string  `json:"itensIds"`
	LegacyItemID  string    `json:"id_completo,omitempty"` // documentos antigos: item único
	ExitWeight    Num       `json:"pesoSaida"`             // soma dos itens do grupo
	PricePerKg    Num       `json:"precoKg"`
	SaleDate      time.Time `json:"dataVenda"`
	DueDate       time.Time `json:"dataVencimento"`
	PaymentTerm   int       `json:"prazoDias"`
	PaymentMethod string    `json:"formaPagamento"`
	AmountPaid    Num       `json:"valorPago"`
	PaymentStatus string    `json:"statusPagamento"`
	WeightLossKg  Num       `json:"quebraKg"`     // pesoEntrada - pesoSaida
	NetProfit     Num       `json:"lucroLiquido"` // receita - custo - extras rateados
	ExtraCosts    Num       `json:"custosExtrasRateados"`
	Version       int       `json:"versao"`
	CreatedAt     time.Time `json:"criadoEm"`
	UpdatedAt     time.Time `json:"atualizadoEm"`
}

// Revenue devolve pesoSaida × precoKg.
func (s *Sale) Revenue() decimal.Decimal {
	return s.ExitWeight.Mul(s.PricePerKg.Decimal)
}

// Outstanding devolve quanto ainda falta receber.
func (s *Sale) Outstanding() decimal.Decimal {
	return s.Revenue().Sub(s.AmountPaid.Decimal)
}

// FullyPaid informa se valorPago cobre a receita dentro do epsilon.
func (s *Sale) FullyPaid() bool {
	return s.Outstanding().LessThanOrEqual(Epsilon)
}

// Items devolve os ids de estoque referenciados, com fallback para o campo
// legado id_completo quando itensIds não existe no documento.
func (s *Sale) Items() []string {
	if len(s.StockItemIDs) > 0 {
		return s.StockItemIDs
	}
	if s.LegacyItemID != "" {
		return []string{s.LegacyItemID}
	}
	return nil
}

// DecodeSale desserializa um documento de venda aplicando a passagem única de
// normalização legada: itensIds ausente cai para id_completo e números em
// string são coagidos (ver Num).
func DecodeSale(data []byte) (*Sale, error) {
	var s Sale
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decodificar venda: %w", err)
	}
	if len(s.StockItemIDs) == 0 && s.LegacyItemID != "" {
		s.StockItemIDs = []string{s.LegacyItemID}
	}
	if s.PaymentStatus == "" {
		s.PaymentStatus = SalePending
	}
	if s.PaymentTerm <= 0 {
		s.PaymentTerm = DefaultTermDays
	}
	return &s, nil
}
