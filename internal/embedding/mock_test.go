package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/hyperjump/susume/pkg/utils"
)

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	a, err := e.Embed(context.Background(), "tech smartphone")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	b, err := e.Embed(context.Background(), "tech smartphone")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d", i)
		}
	}
}

func TestMockEmbedderUnitNorm(t *testing.T) {
	e := NewMockEmbedder(32)
	vec, err := e.Embed(context.Background(), "home sofa")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if norm := utils.L2Norm(vec); math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("norm = %v, want 1.0", norm)
	}
}

func TestMockEmbedderDifferentTexts(t *testing.T) {
	e := NewMockEmbedder(64)
	a, _ := e.Embed(context.Background(), "tech smartphone")
	b, _ := e.Embed(context.Background(), "home sofa")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical embeddings")
	}
}

func TestMockEmbedderBatch(t *testing.T) {
	e := NewMockEmbedder(16)
	vectors, err := e.EmbedBatch(context.Background(), []string{"a1", "b2", "c3"})
	if err != nil {
		t.Fatalf("EmbedBatch error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != 16 {
			t.Errorf("vectors[%d] has %d dims, want 16", i, len(vec))
		}
	}
}
