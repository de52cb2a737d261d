package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("pipeline is stopped")

// Executor runs one pipeline pass. *Runner satisfies it.
type Executor interface {
	Run(ctx context.Context, run *Run) error
}

// OrchestratorConfig sizes the run queue and schedule.
type OrchestratorConfig struct {
	MaxQueueSize int
	RunTTL       time.Duration
	// CronSchedule, when set, submits a run on each tick (standard 5-field
	// cron syntax).
	CronSchedule string
}

// Orchestrator serializes pipeline runs through a single worker.
type Orchestrator struct {
	runs  *RunStore
	queue chan *Run
	exec  Executor
	log   *slog.Logger
	cfg   OrchestratorConfig
	cron  *cron.Cron

	mu      sync.Mutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(exec Executor, log *slog.Logger, cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 10
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 24 * time.Hour
	}
	return &Orchestrator{
		runs:  NewRunStore(cfg.RunTTL),
		queue: make(chan *Run, cfg.MaxQueueSize),
		exec:  exec,
		log:   log,
		cfg:   cfg,
	}
}

// Start launches the worker, the run cleanup loop and the schedule.
func (o *Orchestrator) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.cfg.CronSchedule != "" {
		o.cron = cron.New()
		_, err := o.cron.AddFunc(o.cfg.CronSchedule, func() {
			run := NewRun(TriggerSchedule)
			if err := o.Submit(run); err != nil {
				o.log.Warn("scheduled run not queued", "run_id", run.ID, "error", err)
				return
			}
			o.log.Info("scheduled run queued", "run_id", run.ID)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("schedule %q: %w", o.cfg.CronSchedule, err)
		}
	}

	// Runs share the record store and report file, so there is exactly one worker.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case run, ok := <-o.queue:
				if !ok {
					return
				}
				if err := o.exec.Run(workerCtx, run); err != nil {
					o.log.Error("run failed", "run_id", run.ID, "error", err)
					if !run.Done() {
						run.Fail("aborted", err)
					}
				}
			}
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()

	if o.cron != nil {
		o.cron.Start()
		o.log.Info("run schedule active", "cron", o.cfg.CronSchedule)
	}
	return nil
}

// Stop halts the schedule, cancels the in-flight run and waits for the worker.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cron != nil {
		<-o.cron.Stop().Done()
	}
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues run for processing.
func (o *Orchestrator) Submit(run *Run) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrStopped
	}
	o.runs.Put(run)
	select {
	case o.queue <- run:
		return nil
	default:
		run.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("run queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetRun returns a run by ID.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// Runs returns snapshots of known runs, newest first.
func (o *Orchestrator) Runs() []RunSnapshot {
	return o.runs.List()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
