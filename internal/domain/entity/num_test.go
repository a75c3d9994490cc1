package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
)

// Os formulários antigos gravavam números como string (às vezes vazia) nos
// documentos. Num precisa aceitar tudo isso sem rejeitar o documento.
func TestNum_UnmarshalToleraLegado(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"número JSON", `{"v": 1234.56}`, "1234.56"},
		{"string numérica", `{"v": "1234.56"}`, "1234.56"},
		{"string vazia", `{"v": ""}`, "0"},
		{"nulo", `{"v": null}`, "0"},
		{"campo ausente", `{}`, "0"},
		{"lixo", `{"v": "abc"}`, "0"},
		{"inteiro", `{"v": 42}`, "42"},
		{"negativo", `{"v": -3.5}`, "-3.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var doc struct {
				V entity.Num `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.in), &doc))
			assert.Equal(t, tc.want, doc.V.String())
		})
	}
}

func TestDecodeSale_FallbackIDCompleto(t *testing.T) {
	// Documento antigo: um item único em id_completo, sem itensIds.
	raw := []byte(`{"id":"v1","id_completo":"LOTE-JOA-2025-001-01-A","pesoSaida":"125"}`)
	s, err := entity.DecodeSale(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"LOTE-JOA-2025-001-01-A"}, s.Items())
	assert.Equal(t, entity.SalePending, s.PaymentStatus, "status ausente deve normalizar para PENDENTE")
	assert.Equal(t, entity.DefaultTermDays, s.PaymentTerm)
}

func TestSale_FullyPaidDentroDoEpsilon(t *testing.T) {
	s := &entity.Sale{
		ExitWeight: entity.NF(248),
		PricePerKg: entity.NF(38),
	}
	assert.Equal(t, "9424", s.Revenue().String())

	s.AmountPaid = entity.NF(9423.995)
	assert.True(t, s.FullyPaid(), "diferença abaixo de um centavo conta como quitado")

	s.AmountPaid = entity.NF(9000)
	assert.False(t, s.FullyPaid())
	assert.Equal(t, "424", s.Outstanding().String())
}

func TestStockItemID_Formato(t *testing.T) {
	assert.Equal(t, "LOTE-JOA-2025-001-01-A", entity.StockItemID("LOTE-JOA-2025-001", 1, entity.SideA))
	assert.Equal(t, "LOTE-JOA-2025-001-01-B", entity.StockItemID("LOTE-JOA-2025-001", 1, entity.SideB))
	assert.Equal(t, "LOTE-JOA-2025-001-03-INT", entity.StockItemID("LOTE-JOA-2025-001", 3, entity.SideWhole))
}

func TestNewMirror_InverteDirecao(t *testing.T) {
	orig := entity.NewTransaction("TR-X", "Compra do lote", entity.DirectionOut, entity.CategoryPurchase, entity.NF(10200).Decimal, "LOTE-JOA-2025-001")
	m := entity.NewMirror(orig)

	assert.Equal(t, entity.DirectionIn, m.Direction, "espelho de SAIDA deve ser ENTRADA")
	assert.Equal(t, entity.CategoryReversal, m.Category)
	assert.Equal(t, orig.ID, m.ReferenceID, "espelho referencia a transação original")
	assert.True(t, m.Amount.Equal(orig.Amount.Decimal), "espelho tem o mesmo valor")
	assert.True(t, m.IsReversal())
}
