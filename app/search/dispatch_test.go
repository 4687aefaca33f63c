package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/umatt1/ai-chess-evaluator/app/oracle"
)

func TestFanOutPreservesOrder(t *testing.T) {
	const n = 5
	var (
		inFlight, peak atomic.Int32
		mu             sync.Mutex
		finished       []int
	)

	tasks := make([]Task[int], n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			cur := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			// later tasks finish first
			time.Sleep(time.Duration(n-i) * 15 * time.Millisecond)
			mu.Lock()
			finished = append(finished, i)
			mu.Unlock()
			return i * 10, nil
		}
	}

	out, err := FanOut(context.Background(), 2, tasks, IsFatal)
	if err != nil {
		t.Fatalf("FanOut error = %v", err)
	}
	if len(out) != n {
		t.Fatalf("got %d outcomes, want %d", len(out), n)
	}
	for i, o := range out {
		if o.Err != nil || o.Value != i*10 {
			t.Fatalf("outcome %d = %+v, want %d", i, o, i*10)
		}
	}
	if p := peak.Load(); p > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", p)
	}
	if len(finished) != n || finished[0] == 0 {
		t.Fatalf("completion order %v should not match task order", finished)
	}
}

func TestFanOutKeepsNonFatalErrors(t *testing.T) {
	tasks := []Task[string]{
		func(ctx context.Context) (string, error) { return "a", nil },
		func(ctx context.Context) (string, error) { return "", oracle.ErrParse },
		func(ctx context.Context) (string, error) { return "", oracle.ErrTransient },
		func(ctx context.Context) (string, error) { return "d", nil },
	}
	out, err := FanOut(context.Background(), 4, tasks, IsFatal)
	if err != nil {
		t.Fatalf("FanOut error = %v", err)
	}
	if out[0].Value != "a" || out[3].Value != "d" {
		t.Fatalf("successful outcomes lost: %+v", out)
	}
	if !errors.Is(out[1].Err, oracle.ErrParse) || !errors.Is(out[2].Err, oracle.ErrTransient) {
		t.Fatalf("per-task errors = %v, %v", out[1].Err, out[2].Err)
	}
}

func TestFanOutFatalCancelsBatch(t *testing.T) {
	var started atomic.Int32
	var sawCancel atomic.Bool

	tasks := []Task[int]{
		func(ctx context.Context) (int, error) {
			started.Add(1)
			select {
			case <-ctx.Done():
				sawCancel.Store(true)
				return 0, ctx.Err()
			case <-time.After(5 * time.Second):
				return 1, nil
			}
		},
		func(ctx context.Context) (int, error) {
			started.Add(1)
			time.Sleep(10 * time.Millisecond)
			return 0, oracle.ErrAuth
		},
	}
	for i := 0; i < 5; i++ {
		tasks = append(tasks, func(ctx context.Context) (int, error) {
			started.Add(1)
			return 0, nil
		})
	}

	begin := time.Now()
	out, err := FanOut(context.Background(), 2, tasks, IsFatal)
	if !errors.Is(err, oracle.ErrAuth) {
		t.Fatalf("FanOut error = %v, want ErrAuth", err)
	}
	if out != nil {
		t.Fatalf("fatal batch returned outcomes: %+v", out)
	}
	if time.Since(begin) > 2*time.Second {
		t.Fatalf("running task was not cancelled")
	}
	if !sawCancel.Load() {
		t.Fatalf("running sibling did not observe cancellation")
	}
	if got := started.Load(); got != 2 {
		t.Fatalf("%d tasks started, want 2", got)
	}
}

func TestFanOutParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tasks := []Task[int]{func(ctx context.Context) (int, error) { return 1, nil }}
	if _, err := FanOut(ctx, 1, tasks, IsFatal); !errors.Is(err, context.Canceled) {
		t.Fatalf("FanOut error = %v, want context.Canceled", err)
	}
}
