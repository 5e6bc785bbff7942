package embedding

import "testing"

func TestCacheGetSet(t *testing.T) {
	c := NewCache(2)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("a", []float32{1})
	if v, ok := c.Get("a"); !ok || v[0] != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3}) // evicts a

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCacheLRUOrder(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a")               // a becomes most recent
	c.Set("c", []float32{3}) // evicts b

	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to remain after access")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
}
