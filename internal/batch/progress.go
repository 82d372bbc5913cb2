package batch

import (
	"fmt"
	"sync"
	"time"

	"math/rand"

	"hotelintel/pricewatcher/internal/scrape"
)

// Run is the in-memory progress record for one orchestrator invocation.
// Completed only ever grows and never exceeds Total.
type Run struct {
	ID         string
	Total      int
	Completed  int
	Current    string
	Results    []scrape.ScrapeResult
	Done       bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunStore owns the run-id keyed progress records. Runs are created
// explicitly on batch start and evicted when their summary is retrieved or
// after the TTL, so the map cannot grow without bound.
type RunStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	runs map[string]*Run
}

// NewRunStore creates a run store with the given eviction TTL.
func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		ttl:  ttl,
		runs: make(map[string]*Run),
	}
}

// Create registers a new run and returns its ID.
func (s *RunStore) Create(total int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	id := fmt.Sprintf("run_%d_%04x", time.Now().UnixNano(), rand.Intn(1<<16))
	s.runs[id] = &Run{
		ID:        id,
		Total:     total,
		StartedAt: time.Now(),
	}
	return id
}

// Get returns a consistent snapshot of the run, or nil when unknown. The
// scraping loop is never blocked by readers for longer than the copy.
func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	run, ok := s.runs[id]
	if !ok {
		return nil
	}
	return snapshot(run)
}

// SetCurrent marks the item now in flight.
func (s *RunStore) SetCurrent(id, current string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Current = current
	}
}

// Complete records one finished item.
func (s *RunStore) Complete(id string, result scrape.ScrapeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return
	}
	run.Results = append(run.Results, result)
	run.Completed++
	run.Current = ""
}

// Finish marks the run done.
func (s *RunStore) Finish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Done = true
		run.FinishedAt = time.Now()
	}
}

// Take returns the run snapshot and evicts it when the run has finished.
// Used by summary retrieval; an unfinished run stays put.
func (s *RunStore) Take(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return nil
	}
	snap := snapshot(run)
	if run.Done {
		delete(s.runs, id)
	}
	return snap
}

// sweepLocked drops finished runs older than the TTL. Callers hold the lock.
func (s *RunStore) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.ttl)
	for id, run := range s.runs {
		if run.Done && run.FinishedAt.Before(cutoff) {
			delete(s.runs, id)
		}
	}
}

func snapshot(run *Run) *Run {
	snap := *run
	snap.Results = make([]scrape.ScrapeResult, len(run.Results))
	copy(snap.Results, run.Results)
	return &snap
}
