package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

type fakeEvaluator struct {
	mu        sync.Mutex
	evaluated []core.Scope
	sweeps    int
	err       error
}

func (f *fakeEvaluator) Evaluate(_ context.Context, scope core.Scope) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.evaluated = append(f.evaluated, scope)
	return 1, nil
}

func (f *fakeEvaluator) Sweep(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return 0, nil
}

func (f *fakeEvaluator) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.evaluated), f.sweeps
}

type fakePurger struct {
	mu    sync.Mutex
	calls int
}

func (f *fakePurger) PurgeExpired(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 2, nil
}

// fakeConsumer replays messages on each consume call, then reports a dropped
// connection. After maxReconnects it cancels the run.
type fakeConsumer struct {
	messages      []*amqp.BudgetCheckMessage
	maxReconnects int
	cancel        context.CancelFunc

	mu         sync.Mutex
	consumes   int
	reconnects int
	handled    []error
}

func (f *fakeConsumer) ConsumeBudgetChecks(ctx context.Context, handler func(context.Context, *amqp.BudgetCheckMessage) error) error {
	f.mu.Lock()
	f.consumes++
	f.mu.Unlock()

	for _, m := range f.messages {
		err := handler(ctx, m)
		f.mu.Lock()
		f.handled = append(f.handled, err)
		f.mu.Unlock()
	}
	return errors.New("message channel closed")
}

func (f *fakeConsumer) Reconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	if f.reconnects >= f.maxReconnects {
		f.cancel()
		return context.Canceled
	}
	return nil
}

func TestHandleBudgetCheck(t *testing.T) {
	eval := &fakeEvaluator{}
	w := NewAlertWorker(eval, nil, nil, 0)

	if err := w.HandleBudgetCheck(context.Background(), amqp.NewBudgetCheckMessage(1, 2, "expense_created")); err != nil {
		t.Fatalf("HandleBudgetCheck() error = %v", err)
	}
	if len(eval.evaluated) != 1 || eval.evaluated[0] != (core.Scope{UserID: 1, TrackerID: 2}) {
		t.Errorf("evaluated = %+v", eval.evaluated)
	}

	if err := w.HandleBudgetCheck(context.Background(), amqp.NewBudgetCheckMessage(1, 0, "bad")); err != nil {
		t.Errorf("message without tracker should be dropped, got %v", err)
	}
	if len(eval.evaluated) != 1 {
		t.Errorf("message without tracker was evaluated")
	}

	eval.err = errors.New("database is locked")
	if err := w.HandleBudgetCheck(context.Background(), amqp.NewBudgetCheckMessage(1, 2, "retry")); err == nil {
		t.Error("evaluation failure must be returned so the message is requeued")
	}
}

func TestNewAlertWorker_DefaultInterval(t *testing.T) {
	w := NewAlertWorker(&fakeEvaluator{}, nil, nil, -time.Second)
	if w.sweepInterval != DefaultSweepInterval {
		t.Errorf("sweepInterval = %v, want %v", w.sweepInterval, DefaultSweepInterval)
	}
}

func TestRun_ConsumesAndReconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eval := &fakeEvaluator{}
	purger := &fakePurger{}
	consumer := &fakeConsumer{
		messages:      []*amqp.BudgetCheckMessage{amqp.NewBudgetCheckMessage(7, 9, "budget_updated")},
		maxReconnects: 3,
		cancel:        cancel,
	}

	w := NewAlertWorker(eval, purger, consumer, time.Hour)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	if consumer.consumes != 3 {
		t.Errorf("consumes = %d, want 3", consumer.consumes)
	}
	for i, err := range consumer.handled {
		if err != nil {
			t.Errorf("handled[%d] = %v", i, err)
		}
	}

	evaluated, sweeps := eval.counts()
	if evaluated != 3 {
		t.Errorf("evaluated = %d, want 3", evaluated)
	}
	if sweeps < 1 {
		t.Error("initial sweep did not run")
	}
}

func TestRun_SweepOnlyWithoutConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	eval := &fakeEvaluator{}
	purger := &fakePurger{}
	w := NewAlertWorker(eval, purger, nil, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, sweeps := eval.counts(); sweeps >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sweep ticker did not fire")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	purger.mu.Lock()
	defer purger.mu.Unlock()
	if purger.calls < 2 {
		t.Errorf("purge calls = %d, want >= 2", purger.calls)
	}
}
