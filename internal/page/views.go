package page

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"xiaofei/internal/core"
	"xiaofei/internal/log"
	"xiaofei/internal/ui"
)

// Common is what every page renders around its own content.
type Common struct {
	Page    Page
	Nav     []Page
	Pending int
	Toast   ui.ToastState

	// PageID names this page load's dialog slot.
	PageID string

	// LoadFailed is set when part of the page data could not be read.
	LoadFailed bool
}

// Base lets the HTTP layer fill the shared fields of any view.
func (c *Common) Base() *Common { return c }

// IndexView backs the create form and the statistics summary.
type IndexView struct {
	Common
	Channels  []core.Lookup
	MainTypes []core.Lookup
	SubTypes  []core.Lookup
	Statuses  []core.ReceiveStatus
	Stats     StatisticsView
}

// StatisticsView is the statistics summary, reloadable on its own when the
// range changes.
type StatisticsView struct {
	Range      core.ListFilter
	Rows       []StatisticsRow
	LoadFailed bool
}

// StatisticsRow is one main type's received spending.
type StatisticsRow struct {
	Category string
	Amount   decimal.Decimal
}

// statisticsRows pairs categories with values. Categories without a value
// are dropped.
func statisticsRows(s core.Statistics) []StatisticsRow {
	n := min(len(s.Categories), len(s.Values))
	rows := make([]StatisticsRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, StatisticsRow{Category: s.Categories[i], Amount: s.Values[i]})
	}
	return rows
}

// ListView backs the consumption list and its daily-price modal.
type ListView struct {
	Common
	Filter  core.ListFilter
	Records []core.Consumption
	Tags    []core.Tag
	Modal   DailyPriceForm
}

type PendingView struct {
	Common
	Records []core.Consumption
}

type PriceView struct {
	Common
	SubTypes []core.Lookup
	Result   PriceResult
}

type TagsView struct {
	Common
	Repurchase []core.Consumption
	Avoid      []core.Consumption
}

// Loader gathers page data. Independent backend reads of one page run
// concurrently; a failed read leaves its part empty and adds a load error
// instead of failing the page.
type Loader struct {
	flows *Flows
	now   func() time.Time
}

func NewLoader(flows *Flows) *Loader {
	return &Loader{flows: flows, now: time.Now}
}

// note logs a failed read and flags the page.
func (l *Loader) note(ctx context.Context, c *Common, what string, err error) {
	if err == nil {
		return
	}
	l.flows.log.LogError(ctx, "Page data load failed", err, log.ComponentPage, log.OpRead,
		log.NewFields().WithFlow(c.Page.Name+"."+what, ""))
	c.LoadFailed = true
}

// common loads the pending badge. It runs inside the page's errgroup.
func (l *Loader) common(ctx context.Context, g *errgroup.Group, p Page, c *Common) {
	c.Page = p
	c.Nav = All()
	if p.Has(PendingBadge) {
		g.Go(func() error {
			c.Pending = l.flows.PendingCount(ctx)
			return nil
		})
	}
}

// MonthToDate is the default statistics range: the first of this month to today.
func (l *Loader) MonthToDate() core.ListFilter {
	now := l.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return core.ListFilter{StartDate: ui.FormatDate(first), EndDate: ui.FormatDate(now)}
}

func (l *Loader) Index(ctx context.Context, statsRange core.ListFilter) IndexView {
	v := IndexView{Statuses: []core.ReceiveStatus{core.Pending, core.Received}}
	var g errgroup.Group
	l.common(ctx, &g, Index, &v.Common)

	var errs [3]error
	b := l.flows.backend
	g.Go(func() error { v.Channels, errs[0] = b.Channels(ctx); return nil })
	g.Go(func() error { v.MainTypes, errs[1] = b.MainTypes(ctx); return nil })
	g.Go(func() error { v.SubTypes, errs[2] = b.SubTypes(ctx); return nil })
	g.Go(func() error { v.Stats = l.Statistics(ctx, statsRange); return nil })
	_ = g.Wait()

	for i, what := range []string{"channels", "main_types", "sub_types"} {
		l.note(ctx, &v.Common, what, errs[i])
	}
	if v.Stats.LoadFailed {
		v.LoadFailed = true
	}
	return v
}

// Statistics loads the summary for statsRange, month to date when either end
// is missing.
func (l *Loader) Statistics(ctx context.Context, statsRange core.ListFilter) StatisticsView {
	if statsRange.StartDate == "" || statsRange.EndDate == "" {
		statsRange = l.MonthToDate()
	}
	v := StatisticsView{Range: statsRange}
	stats, err := l.flows.backend.Statistics(ctx, statsRange.StartDate, statsRange.EndDate)
	if err != nil {
		l.flows.log.LogError(ctx, "Statistics load failed", err, log.ComponentPage, log.OpRead,
			log.NewFields().WithFlow(Index.Name+".statistics", ""))
		v.LoadFailed = true
		return v
	}
	if len(stats.Categories) != len(stats.Values) {
		l.flows.log.LogError(ctx, "Statistics categories and values differ in length", core.ErrStatisticsShape, log.ComponentPage, log.OpRead,
			log.NewFields().WithFlow(Index.Name+".statistics", ""))
	}
	v.Rows = statisticsRows(stats)
	return v
}

func (l *Loader) List(ctx context.Context, filter core.ListFilter) ListView {
	v := ListView{Filter: filter, Tags: core.Tags()}
	var g errgroup.Group
	l.common(ctx, &g, List, &v.Common)

	var err error
	g.Go(func() error { v.Records, err = l.flows.backend.List(ctx, filter); return nil })
	_ = g.Wait()

	l.note(ctx, &v.Common, "records", err)
	return v
}

func (l *Loader) Pending(ctx context.Context) PendingView {
	var v PendingView
	var g errgroup.Group
	l.common(ctx, &g, Pending, &v.Common)

	var err error
	g.Go(func() error { v.Records, err = l.flows.backend.ListPending(ctx); return nil })
	_ = g.Wait()

	l.note(ctx, &v.Common, "records", err)
	return v
}

func (l *Loader) Price(ctx context.Context) PriceView {
	var v PriceView
	var g errgroup.Group
	l.common(ctx, &g, Price, &v.Common)

	var err error
	g.Go(func() error { v.SubTypes, err = l.flows.backend.SubTypes(ctx); return nil })
	_ = g.Wait()

	l.note(ctx, &v.Common, "sub_types", err)
	return v
}

func (l *Loader) Tags(ctx context.Context) TagsView {
	var v TagsView
	var g errgroup.Group
	l.common(ctx, &g, Tags, &v.Common)

	var errRe, errAv error
	g.Go(func() error { v.Repurchase, errRe = l.flows.backend.ListByTag(ctx, core.Repurchase); return nil })
	g.Go(func() error { v.Avoid, errAv = l.flows.backend.ListByTag(ctx, core.Avoid); return nil })
	_ = g.Wait()

	l.note(ctx, &v.Common, "repurchase", errRe)
	l.note(ctx, &v.Common, "avoid", errAv)
	return v
}
