// Package dashboard aggregates the home screen figures: catalog totals plus
// the count of pending rental orders.
package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/joaquin771/rentalia/internal/catalog"
	"github.com/joaquin771/rentalia/internal/model"
	"github.com/joaquin771/rentalia/internal/store"
)

type Resumen struct {
	TotalProductos    int
	StockTotal        int
	PorCategoria      map[string]int
	PedidosPendientes int
}

type Service struct {
	store store.DocumentStore
}

func NewService(ds store.DocumentStore) *Service {
	return &Service{store: ds}
}

// Resumen reads products and pending orders concurrently and derives the
// aggregate figures.
func (s *Service) Resumen(ctx context.Context) (Resumen, error) {
	var (
		productos []store.Document
		pedidos   []store.Document
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.store.List(gctx, catalog.ProductQuery())
		productos = docs
		return err
	})
	g.Go(func() error {
		docs, err := s.store.List(gctx, store.Query{
			Collection: store.ColOrders,
			OrderBy:    "createdAt",
			Descending: true,
			Equals:     map[string]string{"estado": model.EstadoPendiente},
		})
		pedidos = docs
		return err
	})
	if err := g.Wait(); err != nil {
		return Resumen{}, err
	}

	items := make([]model.Producto, 0, len(productos))
	for _, doc := range productos {
		p, err := model.ProductoFromFields(doc.ID, doc.CreatedAt, doc.Fields)
		if err != nil {
			continue
		}
		items = append(items, p)
	}

	agg := catalog.Aggregate(items)
	return Resumen{
		TotalProductos:    agg.TotalProductos,
		StockTotal:        agg.StockTotal,
		PorCategoria:      agg.PorCategoria,
		PedidosPendientes: len(pedidos),
	}, nil
}
