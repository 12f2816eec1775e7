package detached

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"nearest-departures/internal/general/logger"
)

func newRunner(limit int) *Runner {
	return NewRunner(logger.NewWithWriter("test", io.Discard), nil, limit)
}

func TestTaskSurvivesParentCancellation(t *testing.T) {
	r := newRunner(0)
	parent, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	result := make(chan error, 1)

	r.Go(parent, "survivor", func(ctx context.Context) error {
		close(started)
		<-release
		result <- ctx.Err()
		return nil
	})

	<-started
	cancel()
	close(release)

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("task context was cancelled with parent: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
}

func TestGoReturnsBeforeTaskRuns(t *testing.T) {
	r := newRunner(1)
	block := make(chan struct{})
	defer close(block)

	r.Go(context.Background(), "slow", func(context.Context) error {
		<-block
		return nil
	})

	// the slot is taken; a second spawn must still return at once
	returned := make(chan struct{})
	go func() {
		r.Go(context.Background(), "queued", func(context.Context) error { return nil })
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Go blocked on a full runner")
	}
}

func TestPanicsAndErrorsAreContained(t *testing.T) {
	r := newRunner(2)
	var ran atomic.Int32

	r.Go(context.Background(), "panics", func(context.Context) error {
		ran.Add(1)
		panic("boom")
	})
	r.Go(context.Background(), "fails", func(context.Context) error {
		ran.Add(1)
		return errors.New("downstream failed")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ran.Load() != 2 {
		t.Errorf("ran %d tasks, want 2", ran.Load())
	}
}

func TestWaitHonoursDeadline(t *testing.T) {
	r := newRunner(0)
	block := make(chan struct{})
	defer close(block)
	r.Go(context.Background(), "stuck", func(context.Context) error {
		<-block
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait = %v, want deadline exceeded", err)
	}
}

func TestContextValuesAreKept(t *testing.T) {
	r := newRunner(0)
	l := logger.NewWithWriter("test", io.Discard)
	ctx := l.WithCorrelationID(context.Background(), "corr-7")

	got := make(chan string, 1)
	r.Go(ctx, "values", func(ctx context.Context) error {
		got <- logger.CorrelationID(ctx)
		return nil
	})

	select {
	case id := <-got:
		if id != "corr-7" {
			t.Errorf("correlation id = %q", id)
		}
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}
