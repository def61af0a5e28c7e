package scheduler

import (
	"context"
	"time"

	"RatePulse/internal/logx"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runner drives scheduled jobs. *cron.Cron satisfies it; tests use a fake.
type Runner interface {
	Schedule(schedule cron.Schedule, cmd cron.Job) cron.EntryID
	Start()
	Stop() context.Context
}

// CycleFunc runs one broadcast.
type CycleFunc func(ctx context.Context) error

// Config anchors the daily broadcast.
type Config struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Scheduler fires the broadcast once per Interval.
type Scheduler struct {
	Runner Runner
	Ctx    context.Context

	cfg   Config
	cycle CycleFunc
	log   zerolog.Logger
	now   func() time.Time
}

// NewCron returns a cron runner whose jobs recover from panics and never
// overlap themselves.
func NewCron(loc *time.Location, log zerolog.Logger) *cron.Cron {
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logx.CronLogger(log)),
		cron.WithChain(wrappers(log)...),
	)
}

func wrappers(log zerolog.Logger) []cron.JobWrapper {
	cl := logx.CronLogger(log)
	return []cron.JobWrapper{cron.Recover(cl), cron.SkipIfStillRunning(cl)}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner Runner, cfg Config, cycle CycleFunc, log zerolog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		Runner: runner,
		Ctx:    ctx,
		cfg:    cfg,
		cycle:  cycle,
		log:    log.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}
}

// Start registers the daily task and starts the runner. It returns the delay
// until the first broadcast.
func (s *Scheduler) Start() time.Duration {
	s.Runner.Schedule(&DailySchedule{
		Hour:     s.cfg.Hour,
		Minute:   s.cfg.Minute,
		Location: s.cfg.Location,
	}, cron.FuncJob(s.dailyTask))

	now := s.now()
	delay := InitialDelay(now, s.cfg.Hour, s.cfg.Minute, s.cfg.Location)
	s.Runner.Start()
	s.log.Info().
		Float64("delay_seconds", delay.Seconds()).
		Time("first_run", now.Add(delay).In(s.cfg.Location)).
		Str("tz", s.cfg.Location.String()).
		Msg("scheduler started")
	return delay
}

// Stop stops the runner and waits for a running task to return.
func (s *Scheduler) Stop() {
	<-s.Runner.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the daily task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	s.log.Info().Msg("running daily broadcast")
	if err := s.cycle(s.Ctx); err != nil {
		s.log.Error().Err(err).Msg("daily broadcast failed")
	}
}
