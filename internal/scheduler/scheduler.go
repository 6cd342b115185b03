// Package scheduler runs the node's recurring housekeeping jobs on cron
// schedules and keeps a persisted run history.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultMaxConcurrent bounds how many jobs may run at once.
const DefaultMaxConcurrent = 2

// Scheduler manages scheduled job execution
type Scheduler struct {
	jobs           []Job
	maxConcurrent  int
	cron           *cron.Cron
	history        map[string]*EventHistory
	historyPath    string
	runningEvents  map[string]bool
	mu             sync.RWMutex
	concurrencySem chan struct{}
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewScheduler creates a scheduler for jobs. An empty historyPath keeps
// history in memory only.
func NewScheduler(jobs []Job, maxConcurrent int, historyPath string) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	history := make(map[string]*EventHistory)
	if historyPath != "" {
		loaded, err := LoadHistory(historyPath)
		if err != nil {
			log.Printf("WARN: Failed to load event history from %s: %v", historyPath, err)
		} else {
			history = loaded
		}
	}

	return &Scheduler{
		jobs:           jobs,
		maxConcurrent:  maxConcurrent,
		history:        history,
		historyPath:    historyPath,
		runningEvents:  make(map[string]bool),
		concurrencySem: make(chan struct{}, maxConcurrent),
		ctx:            context.Background(),
	}
}

// parser accepts schedules with or without a leading seconds field, plus
// descriptors such as "@every 30s".
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks every job's schedule parses.
func Validate(jobs []Job) error {
	for _, job := range jobs {
		if _, err := parser.Parse(job.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q for job '%s': %w", job.Schedule, job.ID, err)
		}
	}
	return nil
}

// Start runs the scheduler until ctx is cancelled. Every job runs once
// immediately so data is fresh before the first tick.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.ctx, s.cancel = ctx, cancel
	s.mu.Unlock()

	s.cron = cron.New(cron.WithParser(parser))

	scheduled := 0
	for _, job := range s.jobs {
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.executeJobWithConcurrency(job) }); err != nil {
			log.Printf("ERROR: Failed to schedule job '%s' (%s): %v", job.ID, job.Name, err)
			continue
		}
		scheduled++
		log.Printf("INFO: Job '%s' (%s) scheduled: %s", job.ID, job.Name, job.Schedule)
	}

	if scheduled == 0 {
		log.Printf("WARN: No jobs to schedule")
		return
	}

	for _, job := range s.jobs {
		s.executeJobWithConcurrency(job)
	}

	s.cron.Start()
	log.Printf("INFO: Scheduler running with %d jobs (max concurrent: %d)", scheduled, s.maxConcurrent)

	<-ctx.Done()

	log.Printf("INFO: Scheduler stopping...")
	s.Stop()
}

// Stop waits for running jobs and saves history.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		cronCtx := s.cron.Stop()
		<-cronCtx.Done()
		log.Printf("INFO: All scheduled jobs completed")
	}

	if s.historyPath == "" {
		return
	}
	s.mu.RLock()
	err := SaveHistory(s.historyPath, s.history)
	s.mu.RUnlock()
	if err != nil {
		log.Printf("ERROR: Failed to save event history: %v", err)
	} else {
		log.Printf("INFO: Event history saved to %s", s.historyPath)
	}
}

// RunNow executes the job with id outside its schedule. It reports false
// when no such job exists or the run was skipped.
func (s *Scheduler) RunNow(id string) bool {
	for _, job := range s.jobs {
		if job.ID == id {
			return s.executeJobWithConcurrency(job)
		}
	}
	return false
}

// executeJobWithConcurrency runs job unless it is already running or the
// concurrency limit is reached.
func (s *Scheduler) executeJobWithConcurrency(job Job) bool {
	s.mu.Lock()
	if s.runningEvents[job.ID] {
		s.mu.Unlock()
		log.Printf("WARN: Job '%s' (%s) skipped: already running", job.ID, job.Name)
		return false
	}
	s.mu.Unlock()

	select {
	case s.concurrencySem <- struct{}{}:
		defer func() { <-s.concurrencySem }()
	default:
		log.Printf("WARN: Job '%s' (%s) skipped: max concurrent jobs reached (%d)",
			job.ID, job.Name, s.maxConcurrent)
		return false
	}

	s.mu.Lock()
	s.runningEvents[job.ID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.runningEvents, job.ID)
		s.mu.Unlock()
	}()

	s.updateHistory(s.executeJob(job))
	return true
}

// executeJob runs job once, recovering from panics.
func (s *Scheduler) executeJob(job Job) (result EventResult) {
	result = EventResult{EventID: job.ID, StartTime: time.Now()}

	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("job panicked: %v", r)
			result.Success = false
			result.EndTime = time.Now()
			log.Printf("ERROR: Job '%s' (%s) panicked: %v", job.ID, job.Name, r)
		}
	}()

	err := job.Run(ctx)
	result.EndTime = time.Now()
	result.Error = err
	result.Success = err == nil
	if err != nil {
		log.Printf("ERROR: Job '%s' (%s) failed: %v", job.ID, job.Name, err)
	} else {
		log.Printf("DEBUG: Job '%s' (%s) completed in %s", job.ID, job.Name, result.EndTime.Sub(result.StartTime))
	}
	return result
}

// GetHistory returns a copy of the current run history
func (s *Scheduler) GetHistory() map[string]*EventHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	historyCopy := make(map[string]*EventHistory)
	for k, v := range s.history {
		hCopy := *v
		historyCopy[k] = &hCopy
	}
	return historyCopy
}
