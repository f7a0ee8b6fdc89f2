package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/config"
	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/service/reporting"
	"github.com/mamadbah2/feedlot/internal/service/whatsapp"
)

// PlanGenerator builds the missing daily plans of active lots.
type PlanGenerator interface {
	GenerateDailyPlans(ctx context.Context, date time.Time) (int, error)
}

// Reporter produces the daily operations summary.
type Reporter interface {
	DailySummary(ctx context.Context, date time.Time) (models.DailyReport, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.ScheduleConfig
	plans    PlanGenerator
	reporter Reporter
	notifier whatsapp.Notifier
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ScheduleConfig, plans PlanGenerator, reporter Reporter, notifier whatsapp.Notifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		cfg:      cfg,
		plans:    plans,
		reporter: reporter,
		notifier: notifier,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("plan_cron", s.cfg.PlanCron),
		zap.String("report_cron", s.cfg.ReportCron),
		zap.String("timezone", s.loc.String()))

	if _, err := s.cron.AddFunc(s.cfg.PlanCron, s.generatePlans); err != nil {
		return fmt.Errorf("schedule plan job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.ReportCron, s.sendDailyReport); err != nil {
		return fmt.Errorf("schedule report job: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// today is the local calendar date expressed as a reference date.
func (s *Scheduler) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Scheduler) generatePlans() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	date := s.today()
	created, err := s.plans.GenerateDailyPlans(ctx, date)
	if err != nil {
		s.logger.Error("daily plan generation finished with errors", zap.String("date", models.FormatDate(date)), zap.Int("created", created), zap.Error(err))
		return
	}
	s.logger.Info("daily plans generated", zap.String("date", models.FormatDate(date)), zap.Int("created", created))
}

func (s *Scheduler) sendDailyReport() {
	s.logger.Info("generating daily report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reporter.DailySummary(ctx, s.today())
	if err != nil {
		s.logger.Error("failed to generate daily report", zap.Error(err))
		return
	}

	if err := s.notifier.Notify(ctx, reporting.Format(report)); err != nil {
		s.logger.Error("failed to send daily report", zap.Error(err))
	} else {
		s.logger.Info("daily report sent successfully")
	}
}
