// Package catalog implements the product catalog screen core: the live query
// subscription over the products collection, the pure view derivation applied
// on every keystroke, the create/edit form with its validation rules, and the
// mutation coordinator that serializes user intent into store writes.
package catalog

import (
	"sort"
	"strings"

	"github.com/joaquin771/rentalia/internal/model"
)

// Orden is the price sort direction of the rendered list.
type Orden string

const (
	OrdenAsc  Orden = "asc"
	OrdenDesc Orden = "desc"
)

// DeriveView computes the rendered list from the raw snapshot: case-insensitive
// substring match of searchText against nombre, exact categoria match when
// filterCategoria is non-empty, then a stable sort by precio. Pure function:
// same inputs, same output, and the input slice is never mutated.
func DeriveView(items []model.Producto, searchText, filterCategoria string, orden Orden) []model.Producto {
	needle := strings.ToLower(searchText)

	out := make([]model.Producto, 0, len(items))
	for _, p := range items {
		if needle != "" && !strings.Contains(strings.ToLower(p.Nombre), needle) {
			continue
		}
		if filterCategoria != "" && p.Categoria != filterCategoria {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		cmp := out[i].Precio.Cmp(out[j].Precio)
		if orden == OrdenAsc {
			return cmp < 0
		}
		return cmp > 0
	})
	return out
}

// Resumen are the aggregate figures shown alongside the list.
type Resumen struct {
	TotalProductos int
	StockTotal     int
	PorCategoria   map[string]int
}

// Aggregate derives the aggregate figures from a snapshot. Pure, like
// DeriveView.
func Aggregate(items []model.Producto) Resumen {
	r := Resumen{
		TotalProductos: len(items),
		PorCategoria:   make(map[string]int),
	}
	for _, p := range items {
		r.StockTotal += p.Stock
		r.PorCategoria[p.Categoria]++
	}
	return r
}
