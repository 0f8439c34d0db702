package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CategoriasFijas is the closed set of product categories. Anything outside
// this list is rejected at validation time.
var CategoriasFijas = []string{
	"Vajilla",
	"Mantelería",
	"Decoración",
	"Salón",
	"Cristalería",
}

func CategoriaValida(categoria string) bool {
	for _, c := range CategoriasFijas {
		if c == categoria {
			return true
		}
	}
	return false
}

// Producto is the catalog document. ID and CreatedAt are assigned by the
// document store on creation and never mutated; CreatedBy is set once by the
// client that created the record.
type Producto struct {
	ID          string          `json:"-"`
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	Categoria   string          `json:"categoria"`
	Foto        *string         `json:"foto"`
	CreatedAt   time.Time       `json:"-"`
	CreatedBy   string          `json:"createdBy"`
}

// ProductoFromFields decodes a raw document-store field map into a Producto.
// The envelope id/createdAt belong to the store, not the field map.
func ProductoFromFields(id string, createdAt time.Time, fields map[string]any) (Producto, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return Producto{}, err
	}
	var p Producto
	if err := json.Unmarshal(raw, &p); err != nil {
		return Producto{}, err
	}
	p.ID = id
	p.CreatedAt = createdAt
	return p, nil
}
