package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EstadoPendiente = "pendiente"
	EstadoEntregado = "entregado"
	EstadoCancelado = "cancelado"
)

// Pedido is a rental order document, read only for dashboard aggregation.
type Pedido struct {
	ID        string          `json:"-"`
	Cliente   string          `json:"cliente"`
	Estado    string          `json:"estado"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"-"`
}

func PedidoFromFields(id string, createdAt time.Time, fields map[string]any) (Pedido, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return Pedido{}, err
	}
	var p Pedido
	if err := json.Unmarshal(raw, &p); err != nil {
		return Pedido{}, err
	}
	p.ID = id
	p.CreatedAt = createdAt
	return p, nil
}
