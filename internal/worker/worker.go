// Package worker runs the scheduled maintenance jobs of the CodeTech backend:
// nightly progress repair, activity cleanup and leaderboard cache warming.
// Jobs are driven by robfig/cron and never overlap with themselves.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"codetech/internal/config"
	"codetech/internal/observability"
	"codetech/internal/services"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
)

// Job names
const (
	JobRepair      = "repair_user_stats"
	JobCleanup     = "cleanup_activity"
	JobLeaderboard = "refresh_leaderboard"
)

var (
	// ErrJobRunning is returned when a job is triggered while a previous run is still in flight
	ErrJobRunning = errors.New("job is already running")
	// ErrUnknownJob is returned for a job name the worker does not know
	ErrUnknownJob = errors.New("unknown job")
)

// Status represents the current state of the worker
type Status struct {
	IsRunning     bool      `json:"is_running"`
	ActiveJobs    []string  `json:"active_jobs,omitempty"`
	LastRunStart  time.Time `json:"last_run_start"`
	LastRunFinish time.Time `json:"last_run_finish"`
	LastRunError  string    `json:"last_run_error,omitempty"`
	NextRun       time.Time `json:"next_run"`
}

// RunRecord tracks individual job runs
type RunRecord struct {
	Job       string        `json:"job"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Status    string        `json:"status"` // Success, Failure
	Details   string        `json:"details"`
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (string, error)
}

// Worker schedules and runs the maintenance jobs
type Worker struct {
	admin       services.AdminServiceInterface
	cleanup     services.CleanupServiceInterface
	leaderboard services.LeaderboardServiceInterface
	cfg         *config.Config
	logger      *observability.Logger

	jobs    map[string]job
	cron    *cron.Cron
	entries map[string]cron.EntryID

	mu       sync.RWMutex
	status   Status
	history  []RunRecord
	inFlight map[string]bool

	baseCtx context.Context
	cancel  context.CancelFunc

	// Time function for testing - defaults to time.Now
	timeNow func() time.Time
}

// NewWorker creates a worker for the configured schedules. Nothing runs until Start.
func NewWorker(
	admin services.AdminServiceInterface,
	cleanup services.CleanupServiceInterface,
	leaderboard services.LeaderboardServiceInterface,
	cfg *config.Config,
	logger *observability.Logger,
) *Worker {
	w := &Worker{
		admin:       admin,
		cleanup:     cleanup,
		leaderboard: leaderboard,
		cfg:         cfg,
		logger:      logger,
		entries:     make(map[string]cron.EntryID),
		inFlight:    make(map[string]bool),
		timeNow:     time.Now,
	}

	w.jobs = map[string]job{
		JobRepair: {
			name:     JobRepair,
			schedule: scheduleOrDefault(cfg.Worker.RepairSchedule, config.DefaultRepairSchedule),
			run:      w.repairUserStats,
		},
		JobCleanup: {
			name:     JobCleanup,
			schedule: scheduleOrDefault(cfg.Worker.CleanupSchedule, config.DefaultCleanupSchedule),
			run:      w.cleanupActivity,
		},
		JobLeaderboard: {
			name:     JobLeaderboard,
			schedule: scheduleOrDefault(cfg.Worker.LeaderboardSchedule, config.DefaultLeaderboardSchedule),
			run:      w.refreshLeaderboard,
		},
	}

	cronLog := newCronLogger(logger)
	w.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return w
}

func scheduleOrDefault(schedule, fallback string) string {
	if schedule == "" {
		return fallback
	}
	return schedule
}

// Start registers every job with the scheduler and starts it. It returns an
// error when a schedule cannot be parsed; in that case nothing is scheduled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.status.IsRunning {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.baseCtx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))
	w.mu.Unlock()

	for _, name := range w.JobNames() {
		j := w.jobs[name]
		id, err := w.cron.AddFunc(j.schedule, func() {
			if err := w.RunJob(w.baseCtx, j.name); err != nil && !errors.Is(err, ErrJobRunning) {
				w.logger.Warn(w.baseCtx, "Scheduled job failed", map[string]interface{}{
					"job":   j.name,
					"error": err.Error(),
				})
			}
		})
		if err != nil {
			w.removeEntries()
			w.cancel()
			return fmt.Errorf("invalid schedule %q for job %s: %w", j.schedule, j.name, err)
		}
		w.entries[j.name] = id
	}

	w.cron.Start()

	w.mu.Lock()
	w.status.IsRunning = true
	w.mu.Unlock()

	w.logger.Info(ctx, "Worker started", map[string]interface{}{
		"repair_schedule":      w.jobs[JobRepair].schedule,
		"cleanup_schedule":     w.jobs[JobCleanup].schedule,
		"leaderboard_schedule": w.jobs[JobLeaderboard].schedule,
		"job_timeout":          w.jobTimeout().String(),
	})
	return nil
}

func (w *Worker) removeEntries() {
	for name, id := range w.entries {
		w.cron.Remove(id)
		delete(w.entries, name)
	}
}

// JobNames returns the registered job names in a stable order
func (w *Worker) JobNames() []string {
	names := make([]string, 0, len(w.jobs))
	for name := range w.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (w *Worker) jobTimeout() time.Duration {
	if w.cfg.Worker.JobTimeout > 0 {
		return w.cfg.Worker.JobTimeout
	}
	return config.WorkerJobTimeout
}

// RunJob runs the named job once, bounded by the job timeout. It returns
// ErrJobRunning when the same job is already in flight.
func (w *Worker) RunJob(ctx context.Context, name string) (err error) {
	j, ok := w.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if !w.claim(name) {
		w.logger.Info(ctx, "Job still running, skipping", map[string]interface{}{"job": name})
		return ErrJobRunning
	}
	defer w.release(name)

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout())
	defer cancel()

	ctx, span := observability.TraceWorkerFunction(ctx, name,
		attribute.String("worker.job", name),
		attribute.String("worker.schedule", j.schedule),
	)
	defer observability.FinishSpan(span, &err)

	start := w.timeNow()
	w.mu.Lock()
	w.status.LastRunStart = start
	w.mu.Unlock()

	details, err := j.run(ctx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	end := w.timeNow()
	w.record(name, start, end, details, err)
	observability.Metrics().RecordJobRun(ctx, name, err)

	if err != nil {
		w.logger.Error(ctx, "Job failed", err, map[string]interface{}{
			"job":         name,
			"duration_ms": end.Sub(start).Milliseconds(),
		})
		return err
	}

	w.logger.Info(ctx, "Job finished", map[string]interface{}{
		"job":         name,
		"details":     details,
		"duration_ms": end.Sub(start).Milliseconds(),
	})
	return nil
}

func (w *Worker) claim(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[name] {
		return false
	}
	w.inFlight[name] = true
	return true
}

func (w *Worker) release(name string) {
	w.mu.Lock()
	delete(w.inFlight, name)
	w.mu.Unlock()
}

func (w *Worker) record(name string, start, end time.Time, details string, err error) {
	rec := RunRecord{
		Job:       name,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
		Status:    "Success",
		Details:   details,
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.status.LastRunFinish = end
	w.status.LastRunError = ""
	if err != nil {
		rec.Status = "Failure"
		rec.Details = err.Error()
		w.status.LastRunError = fmt.Sprintf("%s: %v", name, err)
	}

	w.history = append(w.history, rec)
	if len(w.history) > config.WorkerMaxHistory {
		w.history = w.history[len(w.history)-config.WorkerMaxHistory:]
	}
}

func (w *Worker) repairUserStats(ctx context.Context) (string, error) {
	report, err := w.admin.RepairUserStats(ctx)
	if err != nil {
		return "", err
	}
	for _, failure := range report.Errors {
		w.logger.Warn(ctx, "Repair failed for user", map[string]interface{}{
			"user_id": failure.UserID,
			"error":   failure.Err.Error(),
		})
	}
	return fmt.Sprintf("repaired %d users, %d errors", report.Users, len(report.Errors)), nil
}

func (w *Worker) cleanupActivity(ctx context.Context) (string, error) {
	if err := w.cleanup.RunFullCleanup(ctx); err != nil {
		return "", err
	}
	return "cleanup completed", nil
}

func (w *Worker) refreshLeaderboard(ctx context.Context) (string, error) {
	entries, err := w.leaderboard.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("leaderboard refreshed with %d entries", len(entries)), nil
}

// GetStatus returns the current worker status
func (w *Worker) GetStatus() Status {
	w.mu.RLock()
	status := w.status
	status.ActiveJobs = make([]string, 0, len(w.inFlight))
	for name := range w.inFlight {
		status.ActiveJobs = append(status.ActiveJobs, name)
	}
	w.mu.RUnlock()

	sort.Strings(status.ActiveJobs)
	for _, entry := range w.cron.Entries() {
		if status.NextRun.IsZero() || entry.Next.Before(status.NextRun) {
			status.NextRun = entry.Next
		}
	}
	return status
}

// GetHistory returns the worker's run history
func (w *Worker) GetHistory() []RunRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	history := make([]RunRecord, len(w.history))
	copy(history, w.history)
	return history
}

// Shutdown stops scheduling new runs and waits for running jobs to finish.
// When ctx expires first, in-flight jobs are cancelled and ctx.Err() is returned.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.logger.Info(ctx, "Worker starting shutdown", nil)

	stopped := w.cron.Stop()

	w.mu.Lock()
	w.status.IsRunning = false
	cancel := w.cancel
	w.mu.Unlock()

	select {
	case <-stopped.Done():
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		return ctx.Err()
	}

	if cancel != nil {
		cancel()
	}
	w.logger.Info(ctx, "Worker shutdown completed", nil)
	return nil
}
