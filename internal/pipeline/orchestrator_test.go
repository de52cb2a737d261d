package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// recordingExecutor completes runs in order, blocking on gate when set.
type recordingExecutor struct {
	mu     sync.Mutex
	order  []string
	active int
	maxAct int
	gate   chan struct{}
	err    error
}

func (e *recordingExecutor) Run(ctx context.Context, run *Run) error {
	e.mu.Lock()
	e.active++
	e.maxAct = max(e.maxAct, e.active)
	e.mu.Unlock()

	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
		}
	}

	e.mu.Lock()
	e.active--
	e.order = append(e.order, run.ID)
	e.mu.Unlock()

	if e.err != nil {
		return e.err
	}
	run.SetStatus(StatusCompleted, "done")
	return nil
}

func waitDone(t *testing.T, runs ...*Run) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for _, r := range runs {
		for !r.Done() {
			if time.Now().After(deadline) {
				t.Fatalf("run %s did not finish: %+v", r.ID, r.Snapshot())
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestOrchestrator_RunsSerially(t *testing.T) {
	exec := &recordingExecutor{}
	o := NewOrchestrator(exec, slog.New(slog.NewTextHandler(io.Discard, nil)), OrchestratorConfig{MaxQueueSize: 5})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer o.Stop()

	var runs []*Run
	for n := 0; n < 3; n++ {
		r := NewRun(TriggerAPI)
		if err := o.Submit(r); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		runs = append(runs, r)
	}
	waitDone(t, runs...)

	exec.mu.Lock()
	defer exec.mu.Unlock()
	if exec.maxAct != 1 {
		t.Errorf("expected at most 1 concurrent run, got %d", exec.maxAct)
	}
	for i, r := range runs {
		if exec.order[i] != r.ID {
			t.Errorf("run %d: expected %s, got %s", i, r.ID, exec.order[i])
		}
	}
	if o.GetRun(runs[0].ID) == nil {
		t.Error("expected run to be registered")
	}
	if len(o.Runs()) != 3 {
		t.Errorf("expected 3 runs listed, got %d", len(o.Runs()))
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	exec := &recordingExecutor{gate: make(chan struct{})}
	o := NewOrchestrator(exec, slog.New(slog.NewTextHandler(io.Discard, nil)), OrchestratorConfig{MaxQueueSize: 1})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer o.Stop()

	first := NewRun(TriggerAPI)
	if err := o.Submit(first); err != nil {
		t.Fatalf("Submit first: %v", err)
	}
	// Wait for the worker to take the first run off the queue.
	deadline := time.Now().Add(2 * time.Second)
	for o.QueueDepth() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("worker never picked up the first run")
		}
		time.Sleep(5 * time.Millisecond)
	}

	second := NewRun(TriggerAPI)
	if err := o.Submit(second); err != nil {
		t.Fatalf("Submit second: %v", err)
	}
	third := NewRun(TriggerAPI)
	if err := o.Submit(third); err == nil {
		t.Fatal("expected queue full error")
	}
	if third.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected run to be failed, got %q", third.Snapshot().Status)
	}

	close(exec.gate)
	waitDone(t, first, second)
}

func TestOrchestrator_FailedRunMarked(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("boom")}
	o := NewOrchestrator(exec, slog.New(slog.NewTextHandler(io.Discard, nil)), OrchestratorConfig{})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer o.Stop()

	r := NewRun(TriggerAPI)
	if err := o.Submit(r); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitDone(t, r)
	snap := r.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "aborted" {
		t.Errorf("expected failed/aborted, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(&recordingExecutor{}, slog.New(slog.NewTextHandler(io.Discard, nil)), OrchestratorConfig{})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	o.Stop()
	o.Stop()
	if err := o.Submit(NewRun(TriggerAPI)); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestOrchestrator_BadSchedule(t *testing.T) {
	o := NewOrchestrator(&recordingExecutor{}, slog.New(slog.NewTextHandler(io.Discard, nil)), OrchestratorConfig{CronSchedule: "not a schedule"})
	if err := o.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestOrchestrator_ScheduleAccepted(t *testing.T) {
	o := NewOrchestrator(&recordingExecutor{}, slog.New(slog.NewTextHandler(io.Discard, nil)), OrchestratorConfig{CronSchedule: "0 6 * * *"})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	o.Stop()
}
