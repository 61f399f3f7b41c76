package memwatch

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"
)

// Publisher sends one memory reading somewhere.
type Publisher interface {
	Publish(ctx context.Context, processName string, bytes uint64) error
}

type Watcher struct {
	logger    *slog.Logger
	collector *Collector
	publisher Publisher
	interval  time.Duration
}

func NewWatcher(collector *Collector, publisher Publisher, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Watcher{
		logger:    logger,
		collector: collector,
		publisher: publisher,
		interval:  interval,
	}
}

// Run samples immediately and then once per interval until ctx is done.
// A failed round is logged and the loop carries on.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Tick(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Memory sampling round failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one collect and publish round.
func (w *Watcher) Tick(ctx context.Context) error {
	usage, err := w.collector.Collect(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := w.publisher.Publish(ctx, name, usage[name]); err != nil {
			errs = append(errs, err)
			continue
		}
		w.logger.InfoContext(ctx, "Posted memory metric",
			slog.String("process", name),
			slog.Uint64("bytes", usage[name]),
		)
	}
	return errors.Join(errs...)
}
