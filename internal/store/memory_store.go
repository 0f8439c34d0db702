package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joaquin771/rentalia/internal/apperror"
)

// MemoryStore is an in-process DocumentStore with the same contract as the
// Redis adapter. Snapshots are delivered synchronously from the mutating
// call, which makes test assertions deterministic.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]Document
	listeners   map[int]*memListener
	nextID      int
	lastStamp   time.Time
}

type memListener struct {
	query Query
	sub   *subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		listeners:   make(map[int]*memListener),
	}
}

// stamp returns a strictly increasing creation time, mirroring the server
// clock guarantee of the real store.
func (s *MemoryStore) stamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

func (s *MemoryStore) col(name string) map[string]Document {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]Document)
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) Add(_ context.Context, collection string, fields map[string]any) (string, error) {
	s.mu.Lock()
	doc := Document{ID: uuid.NewString(), CreatedAt: s.stamp(), Fields: cloneFields(fields)}
	s.col(collection)[doc.ID] = doc
	s.mu.Unlock()

	s.broadcast(collection)
	return doc.ID, nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	doc, ok := s.col(collection)[id]
	if !ok {
		s.mu.Unlock()
		return &apperror.WriteError{Kind: apperror.WriteNotFound}
	}
	merged := cloneFields(doc.Fields)
	for k, v := range fields {
		merged[k] = v
	}
	doc.Fields = merged
	s.col(collection)[id] = doc
	s.mu.Unlock()

	s.broadcast(collection)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.col(collection)[id]; !ok {
		s.mu.Unlock()
		return &apperror.WriteError{Kind: apperror.WriteNotFound}
	}
	delete(s.col(collection), id)
	s.mu.Unlock()

	s.broadcast(collection)
	return nil
}

func (s *MemoryStore) List(_ context.Context, q Query) ([]Document, error) {
	s.mu.Lock()
	docs := s.snapshot(q)
	s.mu.Unlock()
	return docs, nil
}

func (s *MemoryStore) Subscribe(_ context.Context, q Query, fn SnapshotFunc) (CancelFunc, error) {
	sub := newSubscription(fn)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = &memListener{query: q, sub: sub}
	initial := s.snapshot(q)
	s.mu.Unlock()

	sub.deliver(initial)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sub.close()
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
	return cancel, nil
}

// snapshot must be called under mu.
func (s *MemoryStore) snapshot(q Query) []Document {
	docs := make([]Document, 0)
	for _, doc := range s.col(q.Collection) {
		if q.Matches(doc) {
			docs = append(docs, doc)
		}
	}
	sortDocs(docs, q)
	return docs
}

func (s *MemoryStore) broadcast(collection string) {
	s.mu.Lock()
	type pending struct {
		sub  *subscription
		docs []Document
	}
	var deliveries []pending
	for _, l := range s.listeners {
		if l.query.Collection != collection {
			continue
		}
		deliveries = append(deliveries, pending{sub: l.sub, docs: s.snapshot(l.query)})
	}
	s.mu.Unlock()

	for _, d := range deliveries {
		d.sub.deliver(d.docs)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
