package replysync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SchedulerConfig holds configuration for the periodic reconciliation runner
type SchedulerConfig struct {
	// Interval is how often to run the reconciliation job
	Interval time.Duration
	// RunTimeout bounds a single run
	RunTimeout time.Duration
}

// Scheduler runs the reconciliation job on a fixed interval
type Scheduler struct {
	job    *Job
	config SchedulerConfig
	logger *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup

	running bool
	mu      sync.Mutex
}

// NewScheduler creates a new reconciliation scheduler
func NewScheduler(job *Job, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	// Set defaults
	if config.Interval <= 0 {
		config.Interval = 15 * time.Minute
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = 5 * time.Minute
	}

	return &Scheduler{
		job:    job,
		config: config,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start begins the background reconciliation loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()

	s.logger.Info("reply sync scheduler started",
		slog.Duration("interval", s.config.Interval))
}

// Stop gracefully stops the reconciliation loop
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("reply sync scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// loop is the main loop that periodically runs the job
func (s *Scheduler) loop() {
	defer s.wg.Done()

	// Run immediately on start
	s.runOnce()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce executes a single bounded reconciliation run
func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()

	summary, err := s.job.Run(ctx)
	if err != nil {
		// Log error and continue - the next tick retries
		s.logger.Error("scheduled reply sync run failed",
			slog.Any("error", err))
		return
	}

	s.logger.Debug("scheduled reply sync run completed",
		slog.String("message", summary.Message),
		slog.Int("new_replies", summary.RepliesFound))
}

// ForceRun triggers an immediate reconciliation run outside the schedule.
// Useful for testing or manual intervention.
func (s *Scheduler) ForceRun() {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		s.logger.Warn("force run called but scheduler is not running")
		return
	}

	s.logger.Info("force run triggered")
	go s.runOnce()
}
