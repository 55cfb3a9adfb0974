package eventbus

import (
	"context"
	"log/slog"
	"time"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/infrastructure/metrics"
	"github.com/obligent/obligent/internal/usecase"
)

// Subscriber consumes outbox events. Delivery is at-least-once; every
// subscriber must deduplicate by event or transfer id.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, event *domain.OutboxEvent) error
}

// Dispatcher polls the outbox and delivers events, oldest first, to
// every registered subscriber.
type Dispatcher struct {
	outboxRepo  usecase.OutboxRepository
	subscribers []Subscriber
	logger      *slog.Logger
	metrics     *metrics.Metrics
	batchSize   int
	interval    time.Duration
}

// Config for Dispatcher.
type Config struct {
	OutboxRepo  usecase.OutboxRepository
	Subscribers []Subscriber
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	BatchSize   int           // Number of events to fetch per batch
	Interval    time.Duration // Polling interval
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Dispatcher{
		outboxRepo:  cfg.OutboxRepo,
		subscribers: cfg.Subscribers,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		batchSize:   cfg.BatchSize,
		interval:    cfg.Interval,
	}
}

// Start begins the dispatch worker.
// It runs continuously until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("event dispatcher started",
		slog.Int("batch_size", d.batchSize),
		slog.Duration("interval", d.interval),
		slog.Int("subscribers", len(d.subscribers)))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Process immediately on start
	if err := d.processBatch(ctx); err != nil {
		d.logger.Error("error dispatching events on start", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("event dispatcher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := d.processBatch(ctx); err != nil {
				d.logger.Error("error dispatching events", slog.String("error", err.Error()))
			}
		}
	}
}

// processBatch fetches unpublished events and delivers them in order.
// The batch stops at the first failure: marking later events published
// while an earlier one is pending would break per-account ordering.
func (d *Dispatcher) processBatch(ctx context.Context) error {
	events, err := d.outboxRepo.GetUnpublished(ctx, d.batchSize)
	if err != nil {
		return err
	}

	if d.metrics != nil {
		d.metrics.OutboxBacklog.Set(float64(len(events)))
	}

	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if err := d.deliver(ctx, event); err != nil {
			// Retried next tick from this event onward.
			return err
		}

		if err := d.outboxRepo.MarkPublished(ctx, event.ID, time.Now()); err != nil {
			d.logger.Error("failed to mark event published",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()))

			return err
		}

		if d.metrics != nil {
			d.metrics.EventsDispatched.WithLabelValues(event.EventType).Inc()
		}
	}

	return nil
}

// deliver hands one event to every subscriber in registration order.
func (d *Dispatcher) deliver(ctx context.Context, event *domain.OutboxEvent) error {
	for _, sub := range d.subscribers {
		if err := sub.Handle(ctx, event); err != nil {
			d.logger.Error("subscriber failed",
				slog.String("subscriber", sub.Name()),
				slog.String("event_id", event.ID),
				slog.String("event_type", event.EventType),
				slog.String("error", err.Error()))

			if d.metrics != nil {
				d.metrics.EventDispatchFailures.WithLabelValues(sub.Name()).Inc()
			}

			return err
		}
	}

	d.logger.Debug("event delivered",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType))

	return nil
}
