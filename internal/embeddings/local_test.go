package embeddings

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e := NewLocalEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, []string{"refund policy for enterprise accounts"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(ctx, []string{"refund policy for enterprise accounts"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same text produced different vectors")
	}
}

func TestLocalEmbedder_Normalized(t *testing.T) {
	e := NewLocalEmbedder(128)
	vecs, err := e.Embed(context.Background(), []string{"alpha beta gamma"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	var norm float64
	for _, f := range vecs[0] {
		norm += float64(f) * float64(f)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Errorf("vector norm = %f, want 1", math.Sqrt(norm))
	}
}

func TestLocalEmbedder_EmptyText(t *testing.T) {
	e := NewLocalEmbedder(32)
	vecs, err := e.Embed(context.Background(), []string{"", "   "})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i, v := range vecs {
		for _, f := range v {
			if f != 0 {
				t.Fatalf("text %d: empty input should yield a zero vector", i)
			}
		}
	}
}

func TestLocalEmbedder_Dimensions(t *testing.T) {
	if d := NewLocalEmbedder(512).Dimensions(); d != 512 {
		t.Errorf("Dimensions() = %d, want 512", d)
	}
	if d := NewLocalEmbedder(0).Dimensions(); d != DefaultLocalDimensions {
		t.Errorf("Dimensions() = %d, want default %d", d, DefaultLocalDimensions)
	}
	if name := NewLocalEmbedder(0).Name(); name != LocalModelID {
		t.Errorf("Name() = %q, want %q", name, LocalModelID)
	}
}

func TestLocalEmbedder_LexicalOverlap(t *testing.T) {
	e := NewLocalEmbedder(256)
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{
		"vacation leave policy for employees",
		"policy on vacation leave",
		"database connection pooling internals",
	})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	simRelated := cosine(vecs[0], vecs[1])
	simUnrelated := cosine(vecs[0], vecs[2])
	if simRelated <= simUnrelated {
		t.Errorf("overlapping texts should score higher: related %f, unrelated %f", simRelated, simUnrelated)
	}
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
