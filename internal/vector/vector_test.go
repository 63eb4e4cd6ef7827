package vector

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	a := []float32{1, 2, 3}

	if got := Cosine(a, a); math.Abs(got-1) > 1e-9 {
		t.Errorf("Cosine(v, v) = %f, want 1", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors: got %f, want 0", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{-1, 0}); math.Abs(got+1) > 1e-9 {
		t.Errorf("opposite vectors: got %f, want -1", got)
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	if got := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("zero vector: got %f, want 0", got)
	}
	if got := Cosine(nil, nil); got != 0 {
		t.Errorf("empty vectors: got %f, want 0", got)
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)

	var norm float64
	for _, f := range v {
		norm += float64(f) * float64(f)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-6 {
		t.Errorf("norm after Normalize = %f, want 1", math.Sqrt(norm))
	}

	zero := []float32{0, 0}
	Normalize(zero)
	if !IsZero(zero) {
		t.Error("normalizing a zero vector should leave it zero")
	}
}

func TestIsZero(t *testing.T) {
	if !IsZero([]float32{0, 0, 0}) {
		t.Error("all-zero vector reported non-zero")
	}
	if IsZero([]float32{0, 0.001, 0}) {
		t.Error("non-zero vector reported zero")
	}
	if !IsZero(nil) {
		t.Error("nil vector should count as zero")
	}
}
