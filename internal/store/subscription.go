package store

import "sync"

// subscription serializes snapshot delivery and enforces the stale-callback
// guard: once close returns, no SnapshotFunc invocation can start, and any
// in-flight invocation has already finished.
type subscription struct {
	mu     sync.Mutex
	closed bool
	fn     SnapshotFunc
}

func newSubscription(fn SnapshotFunc) *subscription {
	return &subscription{fn: fn}
}

func (s *subscription) deliver(docs []Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(docs)
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
