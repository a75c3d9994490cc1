package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tipo físico do item: carcaça inteira ou meia-banda.
const (
	SideWhole = "INTEIRO"
	SideA     = "BANDA_A"
	SideB     = "BANDA_B"
)

// Status do item de estoque.
const (
	StockAvailable = "DISPONIVEL"
	StockSold      = "VENDIDO"
	StockReversed  = "ESTORNADO"
)

// StockItem é uma unidade física de estoque (carcaça ou meia-banda) de um
// lote fechado. VENDIDO implica exatamente uma venda ativa referenciando o
// item; ESTORNADO implica estorno do lote dono ou estorno pontual do item.
type StockItem struct {
	ID          string    `json:"id"` // <loteId>-<seq>-<INT|A|B>
	BatchID     string    `json:"loteId"`
	Sequence    int       `json:"sequencia"`
	SideType    string    `json:"tipoBanda"`
	EntryWeight Num       `json:"pesoEntrada"`
	ExitWeight  Num       `json:"pesoSaida"` // zero até a venda
	Status      string    `json:"status"`
	Version     int       `json:"versao"`
	CreatedAt   time.Time `json:"criadoEm"`
	UpdatedAt   time.Time `json:"atualizadoEm"`
}

// StockItemID monta o id determinístico composto do item.
func StockItemID(batchID string, sequence int, sideType string) string {
	suffix := "INT"
	switch sideType {
	case SideA:
		suffix = "A"
	case SideB:
		suffix = "B"
	}
	return fmt.Sprintf("%s-%02d-%s", batchID, sequence, suffix)
}

// DecodeStockItem desserializa um documento de estoque com normalização legada.
func DecodeStockItem(data []byte) (*StockItem, error) {
	var s StockItem
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decodificar item de estoque: %w", err)
	}
	if s.Status == "" {
		s.Status = StockAvailable
	}
	if s.SideType == "" {
		s.SideType = SideWhole
	}
	return &s, nil
}
