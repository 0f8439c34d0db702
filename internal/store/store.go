// Package store defines the remote document store boundary: schema-flexible
// records grouped into collections, with standing live queries that push the
// full updated result set to subscribers on every change. The store is the
// sole source of truth; subscribers hold read-only projections. Concurrent
// writers follow last-write-wins; the policy is inherited from the backing
// engine and documented here as an explicit contract, not an accident.
package store

import (
	"context"
	"time"
)

// Document is the envelope around a stored record. ID and CreatedAt are
// assigned by the store on Add and never change afterwards.
type Document struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]any
}

// Query selects documents from one collection. Equals filters compare the
// named top-level field against a string value; OrderBy names the sort key
// ("createdAt" compares the envelope timestamp).
type Query struct {
	Collection string
	OrderBy    string
	Descending bool
	Equals     map[string]string
}

// SnapshotFunc receives the complete current result set. It runs on the
// subscription's delivery goroutine; implementations must not block.
type SnapshotFunc func(docs []Document)

// CancelFunc tears down a subscription. After it returns, no further
// snapshots are delivered. Safe to call more than once.
type CancelFunc func()

// DocumentStore is the boundary consumed by the catalog and dashboard.
//
// Errors: Add/Update/Delete return *apperror.WriteError; Subscribe returns
// *apperror.SubscriptionError when the live query cannot be established (no
// automatic retry is attempted on behalf of the caller).
type DocumentStore interface {
	// Add stores a new document, assigning id and createdAt server-side.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Update merges fields into an existing document. Fields absent from the
	// map keep their stored value (createdBy survives a full form rewrite).
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, q Query) ([]Document, error)
	// Subscribe delivers the current snapshot immediately, then again after
	// every mutation by any client, until the CancelFunc is called.
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (CancelFunc, error)
}

// Collection names used by the application.
const (
	ColProducts = "products"
	ColOrders   = "orders"
)

// Matches reports whether doc satisfies every Equals filter of q.
func (q Query) Matches(doc Document) bool {
	for field, want := range q.Equals {
		got, ok := doc.Fields[field].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
