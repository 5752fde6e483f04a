// Package api declares the ports the web layer uses to reach the consumption
// backend, and the two error tiers every adapter reports through.
package api

import (
	"context"

	"xiaofei/internal/core"
)

// Ports for outbound adapters.
type (
	ConsumptionWriter interface {
		Create(ctx context.Context, c core.NewConsumption) error
		Delete(ctx context.Context, id string) error
		// Update applies a partial update; only the non-nil patch fields are sent.
		Update(ctx context.Context, id string, p core.Patch) error
	}

	ConsumptionReader interface {
		List(ctx context.Context, f core.ListFilter) ([]core.Consumption, error)
		ListBySubType(ctx context.Context, subType string) ([]core.Consumption, error)
		ListByTag(ctx context.Context, tag core.Tag) ([]core.Consumption, error)
	}

	// PendingReader serves the records still waiting for delivery.
	PendingReader interface {
		ListPending(ctx context.Context) ([]core.Consumption, error)
		// PendingCount returns the envelope's count, zero when absent.
		PendingCount(ctx context.Context) (int, error)
	}

	LookupReader interface {
		Channels(ctx context.Context) ([]core.Lookup, error)
		MainTypes(ctx context.Context) ([]core.Lookup, error)
		SubTypes(ctx context.Context) ([]core.Lookup, error)
	}

	StatisticsReader interface {
		Statistics(ctx context.Context, startDate, endDate string) (core.Statistics, error)
	}

	// Backend is everything the pages need from one data source.
	Backend interface {
		ConsumptionWriter
		ConsumptionReader
		PendingReader
		LookupReader
		StatisticsReader
	}
)
