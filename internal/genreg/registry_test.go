package genreg

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBeginFinish_Lifecycle(t *testing.T) {
	r := NewRegistry()
	task := r.Begin(context.Background(), "alice")

	if task.State() != Pending {
		t.Fatalf("expected Pending, got %v", task.State())
	}
	if !task.Finish() {
		t.Fatal("Finish on pending task should succeed")
	}
	if task.State() != Completed {
		t.Fatalf("expected Completed, got %v", task.State())
	}
	// Completed tasks cannot be cancelled afterwards.
	if r.Cancel("alice") {
		t.Fatal("Cancel after Finish should report false")
	}
	r.Remove(task)
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestCancel_PendingTask(t *testing.T) {
	r := NewRegistry()
	task := r.Begin(context.Background(), "alice")

	if !r.Cancel("alice") {
		t.Fatal("expected Cancel to report true for a pending task")
	}
	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel not closed after cancel")
	}
	select {
	case <-task.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("task context not cancelled")
	}
	if task.State() != Cancelled {
		t.Fatalf("expected Cancelled, got %v", task.State())
	}
	// Model output arriving late must be discarded.
	if task.Finish() {
		t.Fatal("Finish after cancel should report false")
	}
}

func TestCancel_NoTask(t *testing.T) {
	r := NewRegistry()
	if r.Cancel("nobody") {
		t.Fatal("Cancel with no task should report false")
	}
}

func TestBegin_ReplacesAndCancelsPrior(t *testing.T) {
	r := NewRegistry()
	first := r.Begin(context.Background(), "alice")
	second := r.Begin(context.Background(), "alice")

	// The replaced task is cancelled, not orphaned.
	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("replaced task was not cancelled")
	}
	if first.State() != Cancelled {
		t.Fatalf("expected first task Cancelled, got %v", first.State())
	}
	if second.State() != Pending {
		t.Fatalf("expected second task Pending, got %v", second.State())
	}
	if r.Len() != 1 {
		t.Fatalf("expected one registered task, got %d", r.Len())
	}

	// Removing the stale handle must not evict the active one.
	r.Remove(first)
	if r.Len() != 1 {
		t.Fatalf("Remove(stale) evicted the active task")
	}
	r.Remove(second)
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistry_ConcurrentSubmitCancel(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			task := r.Begin(context.Background(), "alice")
			task.Finish()
			r.Remove(task)
		}()
		go func() {
			defer wg.Done()
			r.Cancel("alice")
		}()
	}
	wg.Wait()
	if n := r.Len(); n > 1 {
		t.Fatalf("registry leaked tasks: %d", n)
	}
}

func TestTasks_IsolatedPerUser(t *testing.T) {
	r := NewRegistry()
	a := r.Begin(context.Background(), "alice")
	b := r.Begin(context.Background(), "bob")

	if !r.Cancel("alice") {
		t.Fatal("cancel alice")
	}
	if b.State() != Pending {
		t.Fatal("cancelling alice must not touch bob's task")
	}
	if a.State() != Cancelled {
		t.Fatal("alice's task should be cancelled")
	}
}
