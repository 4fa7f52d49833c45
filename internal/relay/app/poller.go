package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vasu241267/s-panel/internal/relay/dedup"
	"github.com/vasu241267/s-panel/internal/relay/domain"
	"github.com/vasu241267/s-panel/internal/relay/repository"
)

// UpstreamSource is the collaborator the poller drains. The poller is
// its only consumer; nothing downstream of it touches upstream I/O.
type UpstreamSource interface {
	FetchRecent(ctx context.Context, limit int) ([]domain.RawRecord, error)
	Reauthenticate(ctx context.Context) error
}

// OTPExtractor is the pure extraction stage.
type OTPExtractor interface {
	Extract(text string) domain.ExtractedOTP
}

// PollerConfig carries the loop's tunables.
type PollerConfig struct {
	Interval        time.Duration
	Backoff         time.Duration
	BatchSize       int
	FingerprintText int
}

// Poller is the single control loop feeding the pipeline: fetch,
// dedup, normalize, extract, persist, route, enqueue. No failure in a
// cycle is fatal; the loop logs, backs off and tries again.
type Poller struct {
	cfg       PollerConfig
	source    UpstreamSource
	window    *dedup.Window
	extractor OTPExtractor
	store     repository.OTPRepository
	router    *Router
	queues    map[domain.TargetClass]*Queue
	validate  *validator.Validate
	clock     Clock
	logger    *slog.Logger
}

// NewPoller wires the control loop.
func NewPoller(
	cfg PollerConfig,
	source UpstreamSource,
	window *dedup.Window,
	extractor OTPExtractor,
	store repository.OTPRepository,
	router *Router,
	queues map[domain.TargetClass]*Queue,
	clock Clock,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		cfg:       cfg,
		source:    source,
		window:    window,
		extractor: extractor,
		store:     store,
		router:    router,
		queues:    queues,
		validate:  validator.New(),
		clock:     clock,
		logger:    logger.With("component", "poller"),
	}
}

// Run polls until ctx is cancelled. Failed cycles wait the backoff
// instead of the normal interval.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "poller started", "interval", p.cfg.Interval, "batch_size", p.cfg.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait := p.cfg.Interval
		if err := p.cycle(ctx); err != nil && ctx.Err() == nil {
			wait = p.cfg.Backoff
		}
		p.clock.Sleep(ctx, wait)
	}
}

// cycle performs one fetch and feeds every accepted row downstream.
func (p *Poller) cycle(ctx context.Context) error {
	records, err := p.source.FetchRecent(ctx, p.cfg.BatchSize)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthExpired):
			pollFailuresCounter.WithLabelValues("auth_expired").Inc()
			p.logger.WarnContext(ctx, "upstream session expired, re-authenticating")
			if authErr := p.source.Reauthenticate(ctx); authErr != nil {
				p.logger.ErrorContext(ctx, "re-authentication failed", "error", authErr)
			}
		default:
			pollFailuresCounter.WithLabelValues("unavailable").Inc()
			p.logger.WarnContext(ctx, "upstream poll failed", "error", err)
		}
		return err
	}

	recordsFetchedCounter.Add(float64(len(records)))
	for _, rec := range records {
		p.process(ctx, rec)
	}
	return nil
}

// process runs one raw record through dedup, extraction, persistence
// and routing. Persistence and enqueueing are independent best-effort
// steps: a storage error never suppresses delivery and vice versa.
func (p *Poller) process(ctx context.Context, rec domain.RawRecord) {
	if err := p.validate.Struct(rec); err != nil {
		malformedCounter.Inc()
		p.logger.DebugContext(ctx, "dropping record",
			"error", fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err))
		return
	}

	fp := domain.NewFingerprint(rec, p.cfg.FingerprintText)
	if p.window.Seen(fp) {
		duplicatesCounter.Inc()
		return
	}
	dedupWindowGauge.Set(float64(p.window.Len()))

	number := domain.NormalizeNumber(rec.Number)
	otp := p.extractor.Extract(rec.Text)
	extractedCounter.WithLabelValues(string(otp.Confidence)).Inc()

	record := domain.NewDeliveryRecord(number, rec.Sender, rec.Text, otp.Code, rec.SourceCountry, rec.ReceivedAt)
	if err := p.store.Append(ctx, record); err != nil {
		p.logger.ErrorContext(ctx, "history append failed", "number", domain.MaskNumber(number), "error", err)
	}

	now := p.clock.Now()
	for _, target := range p.router.Route(ctx, rec, number, otp) {
		queue, ok := p.queues[target.Class]
		if !ok {
			continue
		}
		if !queue.Offer(domain.NewQueueItem(target, now)) {
			p.logger.WarnContext(ctx, "delivery queue full, dropping",
				"class", string(target.Class),
				"number", domain.MaskNumber(number),
			)
		}
	}
}
