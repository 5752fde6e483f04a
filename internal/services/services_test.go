package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"xiaofei/internal/amqp"
	"xiaofei/internal/api"
	"xiaofei/internal/api/memory"
	"xiaofei/internal/core"
)

type countingSource struct {
	*memory.Store
	lookups atomic.Int32
	stats   atomic.Int32
}

func (c *countingSource) Channels(ctx context.Context) ([]core.Lookup, error) {
	c.lookups.Add(1)
	return c.Store.Channels(ctx)
}

func (c *countingSource) Statistics(ctx context.Context, start, end string) (core.Statistics, error) {
	c.stats.Add(1)
	return c.Store.Statistics(ctx, start, end)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ConsumptionChangedMessage
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *amqp.ConsumptionChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func newSource() *countingSource {
	return &countingSource{Store: memory.New([]string{"淘宝"}, []string{"日用"}, []string{"纸品"})}
}

func TestCatalogCachesUntilInvalidated(t *testing.T) {
	src := newSource()
	cat := NewCatalog(src, time.Minute, 10*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cat.Channels(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := cat.Statistics(ctx, "2025-01-01", "2025-01-31"); err != nil {
			t.Fatal(err)
		}
	}
	if src.lookups.Load() != 1 || src.stats.Load() != 1 {
		t.Fatalf("lookups=%d stats=%d", src.lookups.Load(), src.stats.Load())
	}

	cat.InvalidateStatistics()
	cat.Statistics(ctx, "2025-01-01", "2025-01-31")
	cat.Channels(ctx)
	if src.lookups.Load() != 1 || src.stats.Load() != 2 {
		t.Fatalf("after stats invalidation: lookups=%d stats=%d", src.lookups.Load(), src.stats.Load())
	}

	for i := 0; i < 5; i++ {
		cat.InvalidateSoon()
	}
	time.Sleep(60 * time.Millisecond)
	cat.Channels(ctx)
	if src.lookups.Load() != 2 {
		t.Fatalf("debounced invalidation did not purge lookups: %d", src.lookups.Load())
	}
}

func TestConsumptionServicePublishesAfterMutation(t *testing.T) {
	src := newSource()
	cat := NewCatalog(src, time.Minute, time.Hour)
	pub := &recordingPublisher{}
	svc := NewConsumptionService(src.Store, cat, pub, "web-1")
	ctx := context.Background()

	svc.Statistics(ctx, "2025-01-01", "2025-01-31")
	if err := svc.Create(ctx, core.NewConsumption{Content: "纸巾", Quantity: "1", TotalPrice: "3", UnitCoefficient: "1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	svc.Statistics(ctx, "2025-01-01", "2025-01-31")
	if src.stats.Load() != 2 {
		t.Fatalf("a local mutation must drop cached statistics (calls=%d)", src.stats.Load())
	}

	if err := svc.Update(ctx, "1", core.ReceivedPatch()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(pub.msgs) != 3 || pub.msgs[2].Action != amqp.ActionDeleted || pub.msgs[2].ID != "1" || pub.msgs[0].Origin != "web-1" {
		t.Fatalf("published = %+v", pub.msgs)
	}
}

func TestConsumptionServiceKeepsBackendErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewConsumptionService(newSource().Store, nil, pub, "web-1")

	err := svc.Delete(context.Background(), "99")
	if msg, ok := api.Message(err); !ok || msg != "消费项不存在！" {
		t.Fatalf("err = %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatal("failed mutation must not be announced")
	}

	// Publisher failures do not fail the mutation.
	if err := svc.Create(context.Background(), core.NewConsumption{Content: "x", Quantity: "1", TotalPrice: "1", UnitCoefficient: "1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestHandleChangeIgnoresOwnMessages(t *testing.T) {
	src := newSource()
	cat := NewCatalog(src, time.Minute, 5*time.Millisecond)
	svc := NewConsumptionService(src.Store, cat, nil, "web-1")
	ctx := context.Background()

	cat.Channels(ctx)
	svc.HandleChange(ctx, amqp.NewConsumptionChangedMessage("1", amqp.ActionUpdated, "web-1"))
	time.Sleep(30 * time.Millisecond)
	cat.Channels(ctx)
	if src.lookups.Load() != 1 {
		t.Fatal("own message must not invalidate")
	}

	svc.HandleChange(ctx, amqp.NewConsumptionChangedMessage("1", amqp.ActionUpdated, "web-2"))
	time.Sleep(30 * time.Millisecond)
	cat.Channels(ctx)
	if src.lookups.Load() != 2 {
		t.Fatal("remote message must invalidate")
	}
}

type slowPending struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (s *slowPending) ListPending(context.Context) ([]core.Consumption, error) { return nil, nil }

func (s *slowPending) PendingCount(ctx context.Context) (int, error) {
	s.calls.Add(1)
	select {
	case <-s.release:
		return 7, s.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestPendingCounterCollapsesConcurrentLoads(t *testing.T) {
	src := &slowPending{release: make(chan struct{})}
	pc := NewPendingCounter(src, nil, time.Minute)

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = pc.Count(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	for _, n := range results {
		if n != 7 {
			t.Fatalf("results = %v", results)
		}
	}
	if src.calls.Load() != 1 {
		t.Fatalf("backend calls = %d", src.calls.Load())
	}

	pc.Count(context.Background())
	if src.calls.Load() != 2 {
		t.Fatal("count must not be cached between loads")
	}
}

func TestPendingCounterSurvivesCancelledLeader(t *testing.T) {
	src := &slowPending{release: make(chan struct{})}
	pc := NewPendingCounter(src, nil, time.Minute)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := make(chan int, 1)
	go func() { leader <- pc.Count(leaderCtx) }()
	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	follower := make(chan int, 1)
	go func() { follower <- pc.Count(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if n := <-leader; n != 0 {
		t.Fatalf("cancelled caller got %d", n)
	}
	close(src.release)
	if n := <-follower; n != 7 {
		t.Fatalf("follower got %d, want the shared result", n)
	}
	if src.calls.Load() != 1 {
		t.Fatalf("backend calls = %d", src.calls.Load())
	}
}

func TestPendingCounterTimesOutSharedCall(t *testing.T) {
	src := &slowPending{release: make(chan struct{})}
	pc := NewPendingCounter(src, nil, time.Minute)
	pc.timeout = 10 * time.Millisecond

	if n := pc.Count(context.Background()); n != 0 {
		t.Fatalf("count = %d", n)
	}
}

func TestPendingCounterFailureShowsZero(t *testing.T) {
	src := &slowPending{release: make(chan struct{}), err: api.Transport(errors.New("refused"))}
	close(src.release)
	pc := NewPendingCounter(src, nil, time.Minute)
	if n := pc.Count(context.Background()); n != 0 {
		t.Fatalf("count = %d", n)
	}
}
