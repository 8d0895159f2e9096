package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSafeGo_Success(t *testing.T) {
	ctx := context.Background()
	executed := atomic.Bool{}

	SafeGo(ctx, 1*time.Second, "test task", func(ctx context.Context) error {
		executed.Store(true)
		return nil
	})

	// Wait for goroutine to complete
	time.Sleep(100 * time.Millisecond)

	if !executed.Load() {
		t.Error("SafeGo did not execute function")
	}
}

func TestSafeGo_WithError(t *testing.T) {
	ctx := context.Background()
	executed := atomic.Bool{}

	SafeGo(ctx, 1*time.Second, "test task", func(ctx context.Context) error {
		executed.Store(true)
		return errors.New("test error")
	})

	// Wait for goroutine to complete
	time.Sleep(100 * time.Millisecond)

	if !executed.Load() {
		t.Error("SafeGo did not execute function despite error")
	}
	// Error should be logged but not crash
}

func TestSafeGo_PanicRecovery(t *testing.T) {
	ctx := context.Background()

	SafeGo(ctx, 1*time.Second, "test task", func(ctx context.Context) error {
		panic("test panic")
	})

	// The panic must not take down the test process.
	time.Sleep(100 * time.Millisecond)
}

func TestSafeGo_Timeout(t *testing.T) {
	ctx := context.Background()
	started := atomic.Bool{}
	completed := atomic.Bool{}

	SafeGo(ctx, 50*time.Millisecond, "test task", func(ctx context.Context) error {
		started.Store(true)
		select {
		case <-time.After(200 * time.Millisecond):
			completed.Store(true)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	time.Sleep(300 * time.Millisecond)

	if !started.Load() {
		t.Error("SafeGo did not start function")
	}
	if completed.Load() {
		t.Error("SafeGo did not enforce timeout")
	}
}

func TestWorkerPool_ProcessesTasks(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, 2, 10, "test tasks", 1*time.Second)

	var processed atomic.Int64
	for i := 0; i < 5; i++ {
		if err := pool.Submit(func(ctx context.Context) error {
			processed.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	if err := pool.Shutdown(2 * time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if got := processed.Load(); got != 5 {
		t.Errorf("processed %d tasks, want 5", got)
	}
}

func TestWorkerPool_TrySubmitDropsWhenFull(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, 1, 1, "test tasks", 2*time.Second)
	defer pool.Shutdown(2 * time.Second)

	block := make(chan struct{})
	started := make(chan struct{})

	// Occupy the single worker, then fill the single queue slot.
	if !pool.TrySubmit(func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	}) {
		t.Fatal("first TrySubmit should succeed")
	}
	<-started

	if !pool.TrySubmit(func(ctx context.Context) error { return nil }) {
		t.Fatal("second TrySubmit should land in the queue")
	}

	if pool.TrySubmit(func(ctx context.Context) error { return nil }) {
		t.Error("TrySubmit should report a drop when the queue is full")
	}

	close(block)
}

func TestWorkerPool_TrySubmitAfterShutdown(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, 1, 4, "test tasks", 1*time.Second)

	if err := pool.Shutdown(2 * time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if pool.TrySubmit(func(ctx context.Context) error { return nil }) {
		t.Error("TrySubmit should fail after shutdown")
	}
	if err := pool.Submit(func(ctx context.Context) error { return nil }); err == nil {
		t.Error("Submit should fail after shutdown")
	}
}

func TestWorkerPool_CollectsErrors(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, 1, 4, "test tasks", 1*time.Second)

	wantErr := errors.New("task failed")
	if err := pool.Submit(func(ctx context.Context) error { return wantErr }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case err := <-pool.Errors():
		if !errors.Is(err, wantErr) {
			t.Errorf("got error %v, want %v", err, wantErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error received")
	}

	pool.Shutdown(2 * time.Second)
}

func TestWorkerPool_PanicInTask(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, 1, 4, "test tasks", 1*time.Second)

	if err := pool.Submit(func(ctx context.Context) error { panic("task panic") }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The panic is converted to an error and the worker keeps going.
	select {
	case err := <-pool.Errors():
		if err == nil {
			t.Error("expected panic error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error received")
	}

	var processed atomic.Bool
	if err := pool.Submit(func(ctx context.Context) error {
		processed.Store(true)
		return nil
	}); err != nil {
		t.Fatalf("Submit after panic failed: %v", err)
	}

	if err := pool.Shutdown(2 * time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !processed.Load() {
		t.Error("worker did not survive task panic")
	}
}

func TestWorkerPool_DoneClosesAfterShutdown(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, 2, 4, "test tasks", 1*time.Second)

	select {
	case <-pool.Done():
		t.Fatal("Done closed before shutdown")
	default:
	}

	if err := pool.Shutdown(2 * time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case <-pool.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after shutdown")
	}
}
