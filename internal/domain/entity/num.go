package entity

import (
	"bytes"
	"strconv"

	"github.com/shopspring/decimal"
)

// Num é um valor numérico (dinheiro ou peso) tolerante a documentos legados:
// aceita número JSON, string numérica ("1.234,56" não; "1234.56" sim), nulo
// ou campo ausente. Valores não interpretáveis viram zero — os formulários
// antigos gravavam strings vazias em campos numéricos.
type Num struct {
	decimal.Decimal
}

// N constrói um Num a partir de um decimal.
func N(d decimal.Decimal) Num { return Num{d} }

// NF constrói um Num a partir de um float (conveniência para testes e DTOs).
func NF(f float64) Num { return Num{decimal.NewFromFloat(f)} }

// ZeroNum devolve um Num zerado.
func ZeroNum() Num { return Num{decimal.Zero} }

// UnmarshalJSON coage número, string numérica ou nulo; qualquer outra coisa vira 0.
func (n *Num) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		n.Decimal = decimal.Zero
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			n.Decimal = decimal.Zero
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			n.Decimal = decimal.Zero
			return nil
		}
		n.Decimal = d
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		n.Decimal = decimal.Zero
		return nil
	}
	n.Decimal = d
	return nil
}

// MarshalJSON grava como string numérica (formato do shopspring/decimal).
func (n Num) MarshalJSON() ([]byte, error) {
	return n.Decimal.MarshalJSON()
}
