package catalog

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/joaquin771/rentalia/internal/model"
	"github.com/joaquin771/rentalia/internal/store"
)

// Subscriber owns the screen-scoped live query over the products collection,
// ordered by creation time descending. The snapshot callback is the single
// writer of the cached list; Items readers get copies. Close is the disposer
// required on unmount: after it returns no further updates land, even if a
// snapshot was already in flight.
type Subscriber struct {
	store store.DocumentStore

	mu     sync.RWMutex
	items  []model.Producto
	cancel store.CancelFunc
	closed bool
}

func NewSubscriber(ds store.DocumentStore) *Subscriber {
	return &Subscriber{store: ds}
}

// ProductQuery is the one standing query of the catalog screen.
func ProductQuery() store.Query {
	return store.Query{
		Collection: store.ColProducts,
		OrderBy:    "createdAt",
		Descending: true,
	}
}

// Start opens the subscription. An establishment failure is surfaced once as
// a SubscriptionError; the list stays empty and no retry is scheduled.
func (s *Subscriber) Start(ctx context.Context) error {
	cancel, err := s.store.Subscribe(ctx, ProductQuery(), s.onSnapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		// Closed while the subscription was being established
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()
	return nil
}

func (s *Subscriber) onSnapshot(docs []store.Document) {
	items := make([]model.Producto, 0, len(docs))
	for _, doc := range docs {
		p, err := model.ProductoFromFields(doc.ID, doc.CreatedAt, doc.Fields)
		if err != nil {
			log.Error().Err(err).Str("id", doc.ID).Msg("producto ilegible en snapshot")
			continue
		}
		items = append(items, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.items = items
}

// Items returns a copy of the latest snapshot, in store order.
func (s *Subscriber) Items() []model.Producto {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Producto, len(s.items))
	copy(out, s.items)
	return out
}

// Close cancels the subscription. Safe to call more than once.
func (s *Subscriber) Close() {
	s.mu.Lock()
	s.closed = true
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
