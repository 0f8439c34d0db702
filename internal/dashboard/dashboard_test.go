package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaquin771/rentalia/internal/model"
	"github.com/joaquin771/rentalia/internal/store"
)

func agregarProducto(t *testing.T, ds store.DocumentStore, nombre, categoria string, stock int) {
	t.Helper()
	_, err := ds.Add(context.Background(), store.ColProducts, map[string]any{
		"nombre":    nombre,
		"precio":    100.0,
		"stock":     stock,
		"categoria": categoria,
	})
	require.NoError(t, err)
}

func agregarPedido(t *testing.T, ds store.DocumentStore, estado string) {
	t.Helper()
	_, err := ds.Add(context.Background(), store.ColOrders, map[string]any{
		"cliente": "Ana",
		"estado":  estado,
	})
	require.NoError(t, err)
}

func TestResumen(t *testing.T) {
	ds := store.NewMemoryStore()
	agregarProducto(t, ds, "Mesa", "Salón", 4)
	agregarProducto(t, ds, "Silla", "Salón", 20)
	agregarProducto(t, ds, "Copa", "Cristalería", 120)

	agregarPedido(t, ds, model.EstadoPendiente)
	agregarPedido(t, ds, model.EstadoPendiente)
	agregarPedido(t, ds, model.EstadoEntregado)
	agregarPedido(t, ds, model.EstadoCancelado)

	r, err := NewService(ds).Resumen(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, r.TotalProductos)
	assert.Equal(t, 144, r.StockTotal)
	assert.Equal(t, map[string]int{"Salón": 2, "Cristalería": 1}, r.PorCategoria)
	assert.Equal(t, 2, r.PedidosPendientes)
}

func TestResumenVacio(t *testing.T) {
	r, err := NewService(store.NewMemoryStore()).Resumen(context.Background())
	require.NoError(t, err)

	assert.Zero(t, r.TotalProductos)
	assert.Zero(t, r.StockTotal)
	assert.Zero(t, r.PedidosPendientes)
	assert.Empty(t, r.PorCategoria)
}

func TestResumenIgnoraDocumentosIlegibles(t *testing.T) {
	ds := store.NewMemoryStore()
	agregarProducto(t, ds, "Mesa", "Salón", 4)
	_, err := ds.Add(context.Background(), store.ColProducts, map[string]any{
		"nombre": "Roto",
		"stock":  "no-es-un-numero",
	})
	require.NoError(t, err)

	r, err := NewService(ds).Resumen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, r.TotalProductos)
	assert.Equal(t, 4, r.StockTotal)
}
