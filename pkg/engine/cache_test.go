package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type stubEngine struct {
	size   string
	device string
}

func (s *stubEngine) Recognize(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	return &Result{}, nil
}
func (s *stubEngine) ModelSize() string { return s.size }
func (s *stubEngine) Device() string    { return s.device }

func TestCacheLoadsOncePerSize(t *testing.T) {
	var loads int32
	cache := NewCache(func(ctx context.Context, size string) (Engine, error) {
		atomic.AddInt32(&loads, 1)
		return &stubEngine{size: size, device: "cpu"}, nil
	}, nil)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(ctx, ModelBase); err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Errorf("expected 1 load, got %d", got)
	}

	if _, err := cache.Get(ctx, ModelSmall); err != nil {
		t.Fatalf("Get(small) failed: %v", err)
	}
	if got := atomic.LoadInt32(&loads); got != 2 {
		t.Errorf("expected 2 loads after second size, got %d", got)
	}
}

func TestCacheReturnsSameInstance(t *testing.T) {
	cache := NewCache(func(ctx context.Context, size string) (Engine, error) {
		return &stubEngine{size: size, device: "cpu"}, nil
	}, nil)

	ctx := context.Background()
	first, err := cache.Get(ctx, ModelTiny)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	second, err := cache.Get(ctx, ModelTiny)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached engine instance to be reused")
	}
}

func TestCacheRejectsUnknownSize(t *testing.T) {
	cache := NewCache(func(ctx context.Context, size string) (Engine, error) {
		return &stubEngine{size: size}, nil
	}, nil)

	if _, err := cache.Get(context.Background(), "enormous"); err == nil {
		t.Error("expected error for unknown model size")
	}
}

func TestCacheLoaderErrorNotCached(t *testing.T) {
	var loads int32
	cache := NewCache(func(ctx context.Context, size string) (Engine, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			return nil, errors.New("download interrupted")
		}
		return &stubEngine{size: size}, nil
	}, nil)

	ctx := context.Background()
	if _, err := cache.Get(ctx, ModelMedium); err == nil {
		t.Fatal("expected first load to fail")
	}
	if _, err := cache.Get(ctx, ModelMedium); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestCacheClear(t *testing.T) {
	var loads int32
	cache := NewCache(func(ctx context.Context, size string) (Engine, error) {
		atomic.AddInt32(&loads, 1)
		return &stubEngine{size: size}, nil
	}, nil)

	ctx := context.Background()
	if _, err := cache.Get(ctx, ModelTiny); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	cache.Clear()
	if sizes := cache.LoadedSizes(); len(sizes) != 0 {
		t.Errorf("expected empty cache after Clear, got %v", sizes)
	}
	if _, err := cache.Get(ctx, ModelTiny); err != nil {
		t.Fatalf("Get after Clear failed: %v", err)
	}
	if got := atomic.LoadInt32(&loads); got != 2 {
		t.Errorf("expected reload after Clear, got %d loads", got)
	}
}
