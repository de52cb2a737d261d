package pipeline

import (
	"slices"
	"sync"
	"time"
)

// RunStatus represents the state of a collection run.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusCollecting RunStatus = "collecting"
	StatusCleaning   RunStatus = "cleaning"
	StatusAnalyzing  RunStatus = "analyzing"
	StatusReporting  RunStatus = "reporting"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Trigger names what started a run.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
	TriggerAPI      Trigger = "api"
)

// Run tracks one pass of the pipeline over the input directory.
type Run struct {
	mu sync.Mutex

	ID      string    `json:"run_id"`
	Trigger Trigger   `json:"trigger"`
	Status  RunStatus `json:"status"`
	Phase   string    `json:"phase"`

	Progress Progress `json:"progress"`

	ReportPath string    `json:"report_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	errors []string
}

// Progress counts what a run has done so far.
type Progress struct {
	Files             int      `json:"files"`
	ArticlesFound     int      `json:"articles_found"`
	ArticlesKept      int      `json:"articles_kept"`
	DuplicatesRemoved int      `json:"duplicates_removed"`
	ToAnalyze         int      `json:"to_analyze"`
	Analyzed          int      `json:"analyzed"`
	Negative          int      `json:"negative"`
	Topics            int      `json:"topics"`
	Errors            []string `json:"errors"`
}

// NewRun returns a queued run with a fresh ID.
func NewRun(trigger Trigger) *Run {
	now := time.Now()
	return &Run{
		ID:        newRunID(),
		Trigger:   trigger,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// AddError records an error.
func (r *Run) AddError(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	r.Progress.Errors = r.errors
	r.UpdatedAt = time.Now()
}

// Fail records err and marks the run failed in phase.
func (r *Run) Fail(phase string, err error) {
	r.AddError(err.Error())
	r.SetStatus(StatusFailed, phase)
}

// Update applies fn to the progress counters under the run lock.
func (r *Run) Update(fn func(p *Progress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.Progress)
	r.UpdatedAt = time.Now()
}

// SetReportPath records where the topic report was written.
func (r *Run) SetReportPath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ReportPath = path
	r.UpdatedAt = time.Now()
}

// Done reports whether the run reached a terminal status.
func (r *Run) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID         string    `json:"run_id"`
	Trigger    Trigger   `json:"trigger"`
	Status     RunStatus `json:"status"`
	Phase      string    `json:"phase"`
	Progress   Progress  `json:"progress"`
	ReportPath string    `json:"report_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.Progress
	p.Errors = slices.Clone(r.errors)
	if p.Errors == nil {
		p.Errors = []string{}
	}
	return RunSnapshot{
		ID:         r.ID,
		Trigger:    r.Trigger,
		Status:     r.Status,
		Phase:      r.Phase,
		Progress:   p,
		ReportPath: r.ReportPath,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (r *Run) updatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.UpdatedAt
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// List returns snapshots of all runs, newest first.
func (s *RunStore) List() []RunSnapshot {
	s.mu.Lock()
	runs := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	s.mu.Unlock()

	out := make([]RunSnapshot, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.Snapshot())
	}
	// ULIDs sort by creation time.
	slices.SortFunc(out, func(a, b RunSnapshot) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Cleanup removes finished runs older than the TTL.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		if run.Done() && now.Sub(run.updatedAt()) > s.ttl {
			delete(s.runs, id)
		}
	}
}
