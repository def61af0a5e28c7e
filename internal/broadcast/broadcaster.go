package broadcast

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"RatePulse/internal/collector"
	"RatePulse/internal/model"
	"RatePulse/internal/notifier"
	"RatePulse/internal/registry"
	"RatePulse/internal/tracker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	// ErrCycleInProgress is returned by RunCycle while another cycle is running.
	ErrCycleInProgress = errors.New("broadcast cycle already in progress")
	// ErrNoRates means no tracked currency could be fetched.
	ErrNoRates = errors.New("no rates fetched")
)

// Channel delivers a text message to one recipient.
type Channel interface {
	SendText(ctx context.Context, recipient int64, text string) error
}

// Config tunes delivery.
type Config struct {
	Workers     int
	RatePerSec  int
	SendTimeout time.Duration
	// Location is used for the date shown in the daily report.
	Location *time.Location
}

// Report summarizes one cycle.
type Report struct {
	CycleID          string
	Lines            []notifier.RateLine
	FailedCurrencies []model.Currency
	Recipients       int
	Delivered        int
	Failed           []int64
	Took             time.Duration
}

var petNames = []string{"kitty", "bunny", "teddy bear", "little elephant", "leopard cub", "fox cub", "tiger cub"}

// Broadcaster runs the fetch, diff, compose and fan-out cycle. It owns the
// Tracker; only RunCycle mutates it and RunCycle never overlaps itself.
type Broadcaster struct {
	collector *collector.Collector
	tracker   *tracker.Tracker
	registry  registry.Registry
	channel   Channel
	quote     model.Currency
	cfg       Config
	limiter   *rate.Limiter
	log       zerolog.Logger

	now      func() time.Time
	pickName func() string

	cycleMu sync.Mutex
}

// New creates a Broadcaster. Zero Config fields fall back to defaults.
func New(col *collector.Collector, tr *tracker.Tracker, reg registry.Registry, ch Channel, quote model.Currency, cfg Config, log zerolog.Logger) *Broadcaster {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 25
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Broadcaster{
		collector: col,
		tracker:   tr,
		registry:  reg,
		channel:   ch,
		quote:     quote,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		log:       log.With().Str("component", "broadcast").Logger(),
		now:       time.Now,
		pickName:  func() string { return petNames[rand.Intn(len(petNames))] },
	}
}

// RunCycle performs one scheduled broadcast. Currencies that fail to fetch are
// skipped and keep their remembered rate. If the recipient list cannot be
// read the cycle aborts before any rate is remembered or any message is sent.
// Individual delivery failures are logged and reported, never returned.
func (b *Broadcaster) RunCycle(ctx context.Context) (*Report, error) {
	if !b.cycleMu.TryLock() {
		b.log.Warn().Msg("previous cycle still running, skipping")
		return nil, ErrCycleInProgress
	}
	defer b.cycleMu.Unlock()

	start := time.Now()
	rep := &Report{CycleID: uuid.NewString()}
	log := b.log.With().Str("cycle", rep.CycleID).Logger()
	log.Info().Msg("broadcast cycle started")

	obs, errs := b.collector.Collect(ctx)
	for _, err := range errs {
		var fe *collector.FetchError
		if errors.As(err, &fe) {
			rep.FailedCurrencies = append(rep.FailedCurrencies, fe.Currency)
		}
	}
	if len(obs) == 0 {
		log.Error().Errs("fetch_errors", errs).Msg("no rates fetched, nothing to broadcast")
		return rep, noRates(errs)
	}

	recipients, err := b.registry.ListRecipients(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cannot list recipients, cycle aborted")
		return rep, fmt.Errorf("list recipients: %w", err)
	}

	for _, o := range obs {
		d := b.tracker.Observe(o.Currency, o.Rate)
		rep.Lines = append(rep.Lines, notifier.RateLine{Currency: o.Currency, Rate: o.Rate, Remark: d.Text})
	}
	text := notifier.FormatDailyReport(b.now().In(b.cfg.Location), rep.Lines, b.quote)

	rep.Recipients = len(recipients)
	rep.Failed = b.fanOut(ctx, log, recipients, text)
	rep.Delivered = rep.Recipients - len(rep.Failed)
	rep.Took = time.Since(start)

	ev := log.Info()
	if len(rep.Failed) > 0 || len(rep.FailedCurrencies) > 0 {
		ev = log.Warn()
	}
	ev.Int("recipients", rep.Recipients).
		Int("delivered", rep.Delivered).
		Int("failed", len(rep.Failed)).
		Int("currencies", len(rep.Lines)).
		Int("failed_currencies", len(rep.FailedCurrencies)).
		Dur("took", rep.Took).
		Msg("broadcast cycle finished")
	return rep, nil
}

// fanOut attempts delivery to every recipient exactly once and returns the
// ids that failed, sorted.
func (b *Broadcaster) fanOut(ctx context.Context, log zerolog.Logger, recipients []int64, text string) []int64 {
	var (
		mu     sync.Mutex
		failed []int64
		g      errgroup.Group
	)
	g.SetLimit(b.cfg.Workers)

	for _, id := range recipients {
		id := id
		g.Go(func() error {
			if err := b.deliver(ctx, id, text); err != nil {
				log.Warn().Err(err).Int64("chat_id", id).Msg("broadcast send failed")
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
			}
			// Failures stay local to this recipient.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
	return failed
}

func (b *Broadcaster) deliver(ctx context.Context, id int64, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &notifier.DeliveryError{Recipient: id, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := b.limiter.Wait(ctx); err != nil {
		return &notifier.DeliveryError{Recipient: id, Err: err}
	}
	sctx, cancel := context.WithTimeout(ctx, b.cfg.SendTimeout)
	defer cancel()

	if err := b.channel.SendText(sctx, id, text); err != nil {
		var de *notifier.DeliveryError
		if !errors.As(err, &de) {
			err = &notifier.DeliveryError{Recipient: id, Err: err}
		}
		return err
	}
	return nil
}

// OnDemand fetches fresh rates and composes a reply for one recipient. It
// does not touch the Tracker, so it may run at any time, concurrently with
// a cycle or with other OnDemand calls.
func (b *Broadcaster) OnDemand(ctx context.Context, recipient int64) (string, error) {
	obs, errs := b.collector.Collect(ctx)
	if len(obs) == 0 {
		return "", noRates(errs)
	}

	name, ok, err := b.registry.GetAlias(ctx, recipient)
	if err != nil {
		return "", fmt.Errorf("get alias: %w", err)
	}
	if !ok {
		name = b.pickName()
	}
	return notifier.FormatCurrentRates(obs, b.quote, name), nil
}

func noRates(errs []error) error {
	if len(errs) == 0 {
		return ErrNoRates
	}
	return fmt.Errorf("%w: %w", ErrNoRates, errors.Join(errs...))
}
