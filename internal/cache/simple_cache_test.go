package cache

import (
	"sync"
	"testing"
)

func TestSimpleCache_SetGet(t *testing.T) {
	c := NewSimpleCache[string, int]()
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected hit with value 1, got ok=%v v=%v", ok, v)
	}
	if c.Len() != 1 {
		t.Fatalf("expected Len=1, got %d", c.Len())
	}
}

func TestSimpleCache_KeysKeepInsertionOrder(t *testing.T) {
	c := NewSimpleCache[string, int]()
	c.Set("b", 1)
	c.Set("a", 2)
	c.Set("c", 3)
	c.Set("b", 4) // overwrite keeps position

	keys := c.Keys()
	want := []string{"b", "a", "c"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
	if v, _ := c.Get("b"); v != 4 {
		t.Fatalf("expected overwritten value 4, got %d", v)
	}
}

func TestSimpleCache_Delete(t *testing.T) {
	c := NewSimpleCache[int, int]()
	c.Set(1, 10)
	c.Set(2, 20)
	if !c.Delete(1) {
		t.Fatalf("expected key 1 to be deleted")
	}
	if c.Delete(1) {
		t.Fatalf("expected second delete to report absence")
	}
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected key 1 to be gone")
	}
	if keys := c.Keys(); len(keys) != 1 || keys[0] != 2 {
		t.Fatalf("expected [2], got %v", keys)
	}
}

func TestSimpleCache_Concurrent(t *testing.T) {
	keys := 100
	rounds := 200

	c := NewSimpleCache[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < keys; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				c.Set(i, r)
				_, _ = c.Get(i)
			}
		}()
	}
	wg.Wait()
	if c.Len() != keys {
		t.Fatalf("expected Len=%d, got %d", keys, c.Len())
	}
}
