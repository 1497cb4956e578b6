package cache

import (
	"sync"
	"testing"
)

func TestPreviewCache_AcquireGet(t *testing.T) {
	c := New(10)

	handle := c.Acquire(&Preview{MIMEType: "image/png", Body: []byte("png-bytes")})
	if handle == "" {
		t.Fatal("expected non-empty handle")
	}

	got, ok := c.Get(handle)
	if !ok {
		t.Fatal("expected preview to be found")
	}
	if got.MIMEType != "image/png" {
		t.Errorf("expected image/png, got %s", got.MIMEType)
	}
	if string(got.Body) != "png-bytes" {
		t.Errorf("unexpected body: %s", got.Body)
	}
}

func TestPreviewCache_Miss(t *testing.T) {
	c := New(10)

	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected miss for unknown handle")
	}
}

func TestPreviewCache_Release(t *testing.T) {
	c := New(10)

	h1 := c.Acquire(&Preview{Body: []byte("a")})
	h2 := c.Acquire(&Preview{Body: []byte("b")})

	c.Release(h1)

	if _, ok := c.Get(h1); ok {
		t.Error("expected released handle to miss")
	}
	if _, ok := c.Get(h2); !ok {
		t.Error("expected other handle to remain")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 live preview, got %d", c.Len())
	}
	if c.Released() != 1 {
		t.Errorf("expected 1 release, got %d", c.Released())
	}
}

func TestPreviewCache_ReleaseTwice(t *testing.T) {
	c := New(10)

	h := c.Acquire(&Preview{Body: []byte("a")})
	c.Release(h)
	c.Release(h)
	c.Release("never-issued")

	if c.Released() != 1 {
		t.Errorf("expected exactly 1 release, got %d", c.Released())
	}
}

func TestPreviewCache_MaxEntries(t *testing.T) {
	c := New(3)

	h1 := c.Acquire(&Preview{Body: []byte("1")})
	h2 := c.Acquire(&Preview{Body: []byte("2")})
	h3 := c.Acquire(&Preview{Body: []byte("3")})

	// Adding a 4th should evict the oldest (h1)
	h4 := c.Acquire(&Preview{Body: []byte("4")})

	if _, ok := c.Get(h1); ok {
		t.Error("expected h1 to be evicted (oldest entry)")
	}
	for _, h := range []string{h2, h3, h4} {
		if _, ok := c.Get(h); !ok {
			t.Errorf("expected %s to be in cache", h)
		}
	}
}

func TestPreviewCache_DefaultCapacity(t *testing.T) {
	c := New(0)
	if c.maxEntries != 64 {
		t.Errorf("expected default capacity 64, got %d", c.maxEntries)
	}
}

func TestPreviewCache_ThreadSafety(t *testing.T) {
	c := New(1000)

	var wg sync.WaitGroup
	handles := make(chan string, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles <- c.Acquire(&Preview{Body: []byte("data")})
		}()
	}
	wg.Wait()
	close(handles)

	for h := range handles {
		wg.Add(2)
		go func(h string) {
			defer wg.Done()
			c.Get(h)
		}(h)
		go func(h string) {
			defer wg.Done()
			c.Release(h)
		}(h)
	}
	wg.Wait()

	if c.Len() != 0 {
		t.Errorf("expected all previews released, got %d live", c.Len())
	}
}
