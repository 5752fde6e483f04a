// Package services sits between the pages and the backend adapter: it
// announces mutations to other instances and keeps the cached reads fresh.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"xiaofei/internal/amqp"
	"xiaofei/internal/api"
	"xiaofei/internal/core"
)

// Publisher announces consumption changes; *amqp.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.ConsumptionChangedMessage) error
}

// ConsumptionService forwards every call to the backend. After a successful
// mutation it drops the local derived caches and publishes a change message.
// Publishing failures are logged, never returned: the mutation already landed.
type ConsumptionService struct {
	api.Backend
	catalog   *Catalog
	publisher Publisher
	origin    string
}

var _ api.Backend = (*ConsumptionService)(nil)

// NewConsumptionService wraps backend. catalog and publisher may be nil.
func NewConsumptionService(backend api.Backend, catalog *Catalog, publisher Publisher, origin string) *ConsumptionService {
	return &ConsumptionService{
		Backend:   backend,
		catalog:   catalog,
		publisher: publisher,
		origin:    origin,
	}
}

func (s *ConsumptionService) Create(ctx context.Context, c core.NewConsumption) error {
	if err := s.Backend.Create(ctx, c); err != nil {
		return fmt.Errorf("create consumption: %w", err)
	}
	s.changed(ctx, "", amqp.ActionCreated)
	return nil
}

func (s *ConsumptionService) Delete(ctx context.Context, id string) error {
	if err := s.Backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete consumption %s: %w", id, err)
	}
	s.changed(ctx, id, amqp.ActionDeleted)
	return nil
}

func (s *ConsumptionService) Update(ctx context.Context, id string, p core.Patch) error {
	if err := s.Backend.Update(ctx, id, p); err != nil {
		return fmt.Errorf("update consumption %s: %w", id, err)
	}
	s.changed(ctx, id, amqp.ActionUpdated)
	return nil
}

// Statistics and the lookups are served from the catalog when there is one.
func (s *ConsumptionService) Statistics(ctx context.Context, startDate, endDate string) (core.Statistics, error) {
	if s.catalog != nil {
		return s.catalog.Statistics(ctx, startDate, endDate)
	}
	return s.Backend.Statistics(ctx, startDate, endDate)
}

func (s *ConsumptionService) Channels(ctx context.Context) ([]core.Lookup, error) {
	if s.catalog != nil {
		return s.catalog.Channels(ctx)
	}
	return s.Backend.Channels(ctx)
}

func (s *ConsumptionService) MainTypes(ctx context.Context) ([]core.Lookup, error) {
	if s.catalog != nil {
		return s.catalog.MainTypes(ctx)
	}
	return s.Backend.MainTypes(ctx)
}

func (s *ConsumptionService) SubTypes(ctx context.Context) ([]core.Lookup, error) {
	if s.catalog != nil {
		return s.catalog.SubTypes(ctx)
	}
	return s.Backend.SubTypes(ctx)
}

func (s *ConsumptionService) changed(ctx context.Context, id string, action amqp.Action) {
	if s.catalog != nil {
		s.catalog.InvalidateStatistics()
	}
	if s.publisher == nil {
		return
	}
	msg := amqp.NewConsumptionChangedMessage(id, action, s.origin)
	if err := s.publisher.Publish(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish consumption change",
			"id", id,
			"action", action,
			"error", err)
	}
}

// HandleChange is the AMQP consumer callback. Messages this instance sent
// were already applied locally.
func (s *ConsumptionService) HandleChange(ctx context.Context, msg *amqp.ConsumptionChangedMessage) error {
	if msg.Origin == s.origin || s.catalog == nil {
		return nil
	}
	slog.DebugContext(ctx, "Consumption changed elsewhere", "id", msg.ID, "action", msg.Action, "origin", msg.Origin)
	s.catalog.InvalidateSoon()
	return nil
}
