// Package worker runs the background side of an instance: it listens for
// consumption changes made elsewhere and keeps the select options warm.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"xiaofei/internal/amqp"
	"xiaofei/internal/api"
)

// Source delivers change messages until ctx ends; *amqp.Client satisfies it.
type Source interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.ConsumptionChangedMessage) error) error
}

// ChangeHandler applies a change announced by another instance.
type ChangeHandler func(ctx context.Context, msg *amqp.ConsumptionChangedMessage) error

// Stats counts what the worker has done since it started.
type Stats struct {
	Received int64
	Failed   int64
	Warmups  int64
}

type ChangeWorker struct {
	source       Source
	handle       ChangeHandler
	lookups      api.LookupReader
	refreshEvery time.Duration
	logger       *slog.Logger

	received atomic.Int64
	failed   atomic.Int64
	warmups  atomic.Int64
}

// NewChangeWorker builds a worker. source may be nil when no broker is
// configured; refreshEvery <= 0 disables the periodic lookup refresh.
func NewChangeWorker(source Source, handle ChangeHandler, lookups api.LookupReader, refreshEvery time.Duration, logger *slog.Logger) *ChangeWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeWorker{
		source:       source,
		handle:       handle,
		lookups:      lookups,
		refreshEvery: refreshEvery,
		logger:       logger,
	}
}

// HandleChangeMessage processes a single change message from AMQP.
func (w *ChangeWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ConsumptionChangedMessage) error {
	w.received.Add(1)
	w.logger.DebugContext(ctx, "Processing change message",
		"id", msg.ID,
		"action", msg.Action,
		"origin", msg.Origin)

	if w.handle == nil {
		return nil
	}
	if err := w.handle(ctx, msg); err != nil {
		w.failed.Add(1)
		return fmt.Errorf("handle %s of %q: %w", msg.Action, msg.ID, err)
	}
	return nil
}

// WarmLookups loads the channel, main type and sub type lists so the first
// page load after startup or expiry does not wait on the backend.
func (w *ChangeWorker) WarmLookups(ctx context.Context) error {
	if w.lookups == nil {
		return nil
	}
	var counts [3]int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := w.lookups.Channels(gctx)
		counts[0] = len(l)
		return err
	})
	g.Go(func() error {
		l, err := w.lookups.MainTypes(gctx)
		counts[1] = len(l)
		return err
	})
	g.Go(func() error {
		l, err := w.lookups.SubTypes(gctx)
		counts[2] = len(l)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("warm lookups: %w", err)
	}

	w.warmups.Add(1)
	w.logger.InfoContext(ctx, "Lookups cached",
		"channels", counts[0],
		"main_types", counts[1],
		"sub_types", counts[2])
	return nil
}

// Run warms the lookups, then consumes change messages and refreshes the
// lookups periodically until ctx ends.
func (w *ChangeWorker) Run(ctx context.Context) error {
	if err := w.WarmLookups(ctx); err != nil {
		w.logger.WarnContext(ctx, "Startup lookup warmup failed", "error", err)
	}

	if w.refreshEvery > 0 {
		go w.refreshLoop(ctx)
	}

	if w.source == nil {
		<-ctx.Done()
		return nil
	}
	err := w.source.Consume(ctx, w.HandleChangeMessage)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (w *ChangeWorker) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(w.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.WarmLookups(ctx); err != nil && ctx.Err() == nil {
				w.logger.WarnContext(ctx, "Periodic lookup refresh failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *ChangeWorker) Stats() Stats {
	return Stats{
		Received: w.received.Load(),
		Failed:   w.failed.Load(),
		Warmups:  w.warmups.Load(),
	}
}
