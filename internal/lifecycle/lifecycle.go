// Package lifecycle enforces the document status state machine and the
// one-in-flight-process-per-document rule.
package lifecycle

import (
	"sync"

	"github.com/knowbase/kb/internal/store"
)

// Valid transitions: PENDING → PROCESSING → {READY, FAILED}; READY and
// FAILED may return to PENDING on an explicit reprocess request. Deletion
// is allowed from any state and is terminal.
var transitions = map[store.Status][]store.Status{
	store.StatusPending:    {store.StatusProcessing},
	store.StatusProcessing: {store.StatusReady, store.StatusFailed},
	store.StatusReady:      {store.StatusPending},
	store.StatusFailed:     {store.StatusPending, store.StatusProcessing},
}

// CanTransition reports whether a document may move from one status to
// another.
func CanTransition(from, to store.Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Processable reports whether a process pass may start from this status.
func Processable(s store.Status) bool {
	return s == store.StatusPending || s == store.StatusFailed
}

// Reprocessable reports whether an explicit reprocess request is accepted
// from this status. A document mid-PROCESSING rejects the request.
func Reprocessable(s store.Status) bool {
	return s == store.StatusReady || s == store.StatusFailed || s == store.StatusPending
}

// Guard serializes processing per document within this process. The
// store-level status compare-and-swap is the authoritative gate; the guard
// fails fast without a database round-trip.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// TryAcquire claims the processing slot for a document. It reports false
// when a pass is already in flight.
func (g *Guard) TryAcquire(documentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[documentID]; busy {
		return false
	}
	g.inflight[documentID] = struct{}{}
	return true
}

// Release frees the processing slot.
func (g *Guard) Release(documentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, documentID)
}
