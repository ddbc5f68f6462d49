// Package scheduler implements background job scheduling for the
// progression engine. It drives the periodic sync flush and any other
// repeating maintenance work.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNilJob is returned when registering a nil job.
	ErrNilJob = errors.New("scheduler: job cannot be nil")
	// ErrNilSchedule is returned when registering a nil schedule.
	ErrNilSchedule = errors.New("scheduler: schedule cannot be nil")
	// ErrJobAlreadyExists is returned when a job name is already registered.
	ErrJobAlreadyExists = errors.New("scheduler: job already exists")
	// ErrJobNotFound is returned when a job name is not registered.
	ErrJobNotFound = errors.New("scheduler: job not found")
	// ErrSchedulerAlreadyRunning is returned when Start is called twice.
	ErrSchedulerAlreadyRunning = errors.New("scheduler: already running")
	// ErrSchedulerNotRunning is returned when Stop is called before Start.
	ErrSchedulerNotRunning = errors.New("scheduler: not running")
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// Schedule defines when a job should run.
type Schedule interface {
	// Next returns the next time the job should run after the given time.
	Next(t time.Time) time.Time

	// String returns a human-readable representation of the schedule.
	String() string
}

// funcJob adapts a plain function to the Job interface.
type funcJob struct {
	name string
	fn   func(ctx context.Context)
}

func (j *funcJob) Name() string        { return j.name }
func (j *funcJob) Description() string { return "repeating task " + j.name }

func (j *funcJob) Run(ctx context.Context) error {
	j.fn(ctx)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler manages and executes scheduled jobs.
type Scheduler struct {
	mu sync.RWMutex

	logger *slog.Logger
	tick   time.Duration

	jobs    map[string]*scheduledJob
	nextSeq int
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// scheduledJob wraps a Job with scheduling information.
type scheduledJob struct {
	job      Job
	schedule Schedule
	lastRun  time.Time
	nextRun  time.Time
	inFlight bool
}

// Config contains configuration for the Scheduler.
type Config struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Tick is how often due jobs are checked (default: 1s).
	Tick time.Duration
}

// New creates a new Scheduler with the given configuration.
func New(config Config) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Tick <= 0 {
		config.Tick = time.Second
	}

	return &Scheduler{
		logger: config.Logger,
		tick:   config.Tick,
		jobs:   make(map[string]*scheduledJob),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// Register adds a job to the scheduler with the given schedule.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	now := time.Now()
	sj := &scheduledJob{
		job:      job,
		schedule: schedule,
		nextRun:  schedule.Next(now),
	}
	s.jobs[name] = sj

	s.logger.Info("job registered",
		"job", name,
		"schedule", schedule.String(),
		"next_run", sj.nextRun.Format(time.RFC3339),
	)
	return nil
}

// Unregister removes a job from the scheduler.
func (s *Scheduler) Unregister(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobName]; !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	delete(s.jobs, jobName)
	s.logger.Info("job unregistered", "job", jobName)
	return nil
}

// ScheduleRepeating registers a repeating task and returns a handle
// for cancelling or restarting its interval. Names are generated, so
// multiple anonymous tasks can coexist.
func (s *Scheduler) ScheduleRepeating(interval time.Duration, fn func(ctx context.Context)) Handle {
	s.mu.Lock()
	s.nextSeq++
	name := fmt.Sprintf("repeating-%d", s.nextSeq)
	s.mu.Unlock()

	job := &funcJob{name: name, fn: fn}
	if err := s.Register(job, NewIntervalSchedule(interval)); err != nil {
		// Generated names cannot collide; nil signals a programming error.
		s.logger.Error("schedule repeating task failed", "error", err)
		return nil
	}

	return &jobHandle{scheduler: s, name: name, interval: interval}
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLE
// ══════════════════════════════════════════════════════════════════════════════

// Handle controls a scheduled repeating task.
type Handle interface {
	// Cancel stops the task. Idempotent; after Cancel the callback is
	// never invoked again.
	Cancel()

	// Restart resets the interval countdown from the current moment.
	Restart()
}

// jobHandle is the Handle implementation for registered jobs.
type jobHandle struct {
	scheduler *Scheduler
	name      string
	interval  time.Duration

	once sync.Once
}

func (h *jobHandle) Cancel() {
	h.once.Do(func() {
		// Ignore not-found: the scheduler may already be stopped.
		_ = h.scheduler.Unregister(h.name)
	})
}

func (h *jobHandle) Restart() {
	h.scheduler.resetNextRun(h.name, h.interval)
}

// resetNextRun pushes a job's next run out by the given interval.
func (s *Scheduler) resetNextRun(jobName string, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sj, exists := s.jobs[jobName]; exists {
		sj.nextRun = time.Now().Add(interval)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.mu.Unlock()

	s.logger.Info("scheduler started", "jobs_count", len(s.jobs))

	s.wg.Add(1)
	go s.runLoop()
	return nil
}

// Stop gracefully stops the scheduler.
// It waits for all currently running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info("scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER LOOP
// ══════════════════════════════════════════════════════════════════════════════

// runLoop is the main scheduler loop that checks and runs due jobs.
func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunJobs()
		}
	}
}

// checkAndRunJobs runs every due job. A job that is still in flight is
// skipped; it will be picked up after its current run completes.
func (s *Scheduler) checkAndRunJobs() {
	now := time.Now()

	s.mu.Lock()
	due := make([]*scheduledJob, 0)
	for _, sj := range s.jobs {
		if !sj.inFlight && !sj.nextRun.IsZero() && now.After(sj.nextRun) {
			sj.inFlight = true
			due = append(due, sj)
		}
	}
	s.mu.Unlock()

	for _, sj := range due {
		s.wg.Add(1)
		go s.runJob(sj)
	}
}

// runJob executes a single job and reschedules it.
func (s *Scheduler) runJob(sj *scheduledJob) {
	defer s.wg.Done()

	start := time.Now()
	err := sj.job.Run(s.ctx)
	if err != nil {
		s.logger.Warn("job failed",
			"job", sj.job.Name(),
			"duration", time.Since(start).String(),
			"error", err)
	}

	s.mu.Lock()
	sj.lastRun = start
	sj.inFlight = false
	// A Restart during the run already pushed nextRun forward; do not
	// pull it back.
	if now := time.Now(); sj.nextRun.Before(now) {
		sj.nextRun = sj.schedule.Next(now)
	}
	s.mu.Unlock()
}
