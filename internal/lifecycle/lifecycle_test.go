package lifecycle

import (
	"testing"

	"github.com/knowbase/kb/internal/store"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to store.Status }{
		{store.StatusPending, store.StatusProcessing},
		{store.StatusProcessing, store.StatusReady},
		{store.StatusProcessing, store.StatusFailed},
		{store.StatusReady, store.StatusPending},
		{store.StatusFailed, store.StatusPending},
		{store.StatusFailed, store.StatusProcessing},
	}
	for _, c := range allowed {
		if !CanTransition(c.from, c.to) {
			t.Errorf("%s -> %s should be allowed", c.from, c.to)
		}
	}

	forbidden := []struct{ from, to store.Status }{
		{store.StatusPending, store.StatusReady},
		{store.StatusPending, store.StatusFailed},
		{store.StatusReady, store.StatusReady},
		{store.StatusReady, store.StatusProcessing},
		{store.StatusProcessing, store.StatusPending},
	}
	for _, c := range forbidden {
		if CanTransition(c.from, c.to) {
			t.Errorf("%s -> %s should be rejected", c.from, c.to)
		}
	}
}

func TestProcessable(t *testing.T) {
	if !Processable(store.StatusPending) || !Processable(store.StatusFailed) {
		t.Error("pending and failed documents are processable")
	}
	if Processable(store.StatusReady) || Processable(store.StatusProcessing) {
		t.Error("ready and processing documents are not processable")
	}
}

func TestReprocessable(t *testing.T) {
	for _, s := range []store.Status{store.StatusReady, store.StatusFailed, store.StatusPending} {
		if !Reprocessable(s) {
			t.Errorf("%s should accept a reprocess request", s)
		}
	}
	if Reprocessable(store.StatusProcessing) {
		t.Error("a document mid-processing must reject reprocess")
	}
}

func TestGuard(t *testing.T) {
	g := NewGuard()

	if !g.TryAcquire("doc-1") {
		t.Fatal("first acquire should succeed")
	}
	if g.TryAcquire("doc-1") {
		t.Fatal("second acquire on the same document should fail")
	}
	if !g.TryAcquire("doc-2") {
		t.Fatal("acquire on a different document should succeed")
	}

	g.Release("doc-1")
	if !g.TryAcquire("doc-1") {
		t.Fatal("acquire after release should succeed")
	}
}
