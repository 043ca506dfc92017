package llm

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// slowProvider counts concurrent callers and fails the test if two overlap.
type slowProvider struct {
	active  int32
	overlap atomic.Bool
	calls   atomic.Int32
}

func (s *slowProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if atomic.AddInt32(&s.active, 1) > 1 {
		s.overlap.Store(true)
	}
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(&s.active, -1)
	s.calls.Add(1)
	return "ok:" + prompt, nil
}

func TestGate_SerializesCalls(t *testing.T) {
	sp := &slowProvider{}
	g := NewGate(sp, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Complete(context.Background(), "p"); err != nil {
				t.Errorf("Complete: %v", err)
			}
		}()
	}
	wg.Wait()

	if sp.overlap.Load() {
		t.Fatal("two generations overlapped despite single-slot gate")
	}
	if got := sp.calls.Load(); got != 8 {
		t.Fatalf("expected 8 completed calls, got %d", got)
	}
}

func TestGate_CancelledWhileQueued(t *testing.T) {
	block := make(chan struct{})
	blocker := providerFunc(func(ctx context.Context, prompt string) (string, error) {
		<-block
		return "late", nil
	})
	g := NewGate(blocker, 1)

	// Occupy the slot.
	go func() { _, _ = g.Complete(context.Background(), "first") }()
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := g.Complete(ctx, "second")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected context error for queued call")
		}
	case <-time.After(time.Second):
		t.Fatal("queued call did not observe cancellation")
	}
	close(block)
}

func TestNewGate_CoercesWidth(t *testing.T) {
	g := NewGate(providerFunc(func(ctx context.Context, p string) (string, error) { return p, nil }), 0)
	if cap(g.slot) != 1 {
		t.Fatalf("expected slot capacity 1, got %d", cap(g.slot))
	}
}

type providerFunc func(ctx context.Context, prompt string) (string, error)

func (f providerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
