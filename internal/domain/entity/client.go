package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Client é um comprador (açougue, mercado, pessoa física).
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Document  string    `json:"documento,omitempty"` // CPF/CNPJ
	Phone     string    `json:"telefone,omitempty"`
	City      string    `json:"cidade,omitempty"`
	Notes     string    `json:"observacoes,omitempty"`
	CreatedAt time.Time `json:"criadoEm"`
	UpdatedAt time.Time `json:"atualizadoEm"`
}

// DecodeClient desserializa um documento de cliente.
func DecodeClient(data []byte) (*Client, error) {
	var c Client
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decodificar cliente: %w", err)
	}
	return &c, nil
}
