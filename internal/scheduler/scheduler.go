// Package scheduler saves exports on a cron schedule.
//
// A Job names a rolling window (the last LookbackDays days up to and
// including today in the job's timezone) rather than fixed dates.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/oinktech/StockAPI/internal/infrastructure"
	"github.com/oinktech/StockAPI/internal/services"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// Saver runs the pipeline and persists the artifact
type Saver interface {
	Save(ctx context.Context, req domain.Request) (*services.SaveResult, error)
}

// Job is one recurring export
type Job struct {
	Name         string
	Spec         string // six fields, seconds first
	LookbackDays int
	Format       string
	Industry     string
	SortBy       string
}

// Request returns the pipeline request for a run at now. The end date is
// exclusive, so it is set to tomorrow to keep today's bar in the window.
func (j Job) Request(now time.Time) domain.Request {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -j.LookbackDays)
	return domain.Request{
		StartDate:    start.Format(domain.DateLayout),
		EndDate:      today.AddDate(0, 0, 1).Format(domain.DateLayout),
		OutputFormat: j.Format,
		Industry:     j.Industry,
		SortBy:       j.SortBy,
	}
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	saver    Saver
	location *time.Location
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a scheduler evaluating specs in loc. Each run is bounded by timeout.
func New(saver Saver, loc *time.Location, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		saver:    saver,
		location: loc,
		timeout:  timeout,
		now:      time.Now,
		logger:   infrastructure.WithComponent(logger, "scheduler"),
	}
}

// Register adds job to the schedule
func (s *Scheduler) Register(job Job) error {
	if job.LookbackDays <= 0 {
		return fmt.Errorf("register %s: lookback must be positive", job.Name)
	}
	if _, err := s.cron.AddFunc(job.Spec, func() { s.run(job) }); err != nil {
		return fmt.Errorf("register %s: %w", job.Name, err)
	}
	s.logger.Info("export job registered",
		slog.String("job", job.Name),
		slog.String("spec", job.Spec),
		slog.String("timezone", s.location.String()))
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

// RunNow executes job immediately
func (s *Scheduler) RunNow(ctx context.Context, job Job) (*services.SaveResult, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := job.Request(s.now().In(s.location))
	start := time.Now()

	result, err := s.saver.Save(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled export failed",
			slog.String("job", job.Name),
			slog.String("start_date", req.StartDate),
			slog.String("end_date", req.EndDate),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "scheduled export saved",
		slog.String("job", job.Name),
		slog.String("file", result.File),
		slog.Int("rows", result.Rows),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (s *Scheduler) run(job Job) {
	_, _ = s.RunNow(context.Background(), job)
}
