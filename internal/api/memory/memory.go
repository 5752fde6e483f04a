// Package memory is an in-process backend for demo mode and tests. It derives
// the computed columns the same way the REST backend does.
package memory

import (
	"bufio"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"xiaofei/internal/api"
	"xiaofei/internal/core"
)

const notFound = "消费项不存在！"

type Store struct {
	mu        sync.Mutex
	nextID    int64
	items     []core.Consumption
	channels  []core.Lookup
	mainTypes []core.Lookup
	subTypes  []core.Lookup
	now       func() time.Time
}

var _ api.Backend = (*Store)(nil)

func New(channels, mainTypes, subTypes []string) *Store {
	return &Store{
		nextID:    1,
		channels:  toLookups(channels),
		mainTypes: toLookups(mainTypes),
		subTypes:  toLookups(subTypes),
		now:       time.Now,
	}
}

// NewFromFiles seeds the lookup lists from seed_channels.txt,
// seed_main_types.txt and seed_sub_types.txt under base.
func NewFromFiles(base string) *Store {
	channels := readLines(filepath.Join(base, "seed_channels.txt"))
	mainTypes := readLines(filepath.Join(base, "seed_main_types.txt"))
	subTypes := readLines(filepath.Join(base, "seed_sub_types.txt"))
	if len(channels) == 0 {
		channels = []string{"淘宝", "京东", "拼多多", "线下"}
	}
	if len(mainTypes) == 0 {
		mainTypes = []string{"日用", "食品", "服饰"}
	}
	if len(subTypes) == 0 {
		subTypes = []string{"纸品", "清洁", "零食", "饮料"}
	}
	return New(channels, mainTypes, subTypes)
}

// Seed inserts fully formed records, assigning ids to those without one.
func (s *Store) Seed(items ...core.Consumption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range items {
		if c.ID == 0 {
			c.ID = s.nextID
		}
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
		s.items = append(s.items, c)
	}
}

func (s *Store) Create(_ context.Context, nc core.NewConsumption) error {
	if strings.TrimSpace(nc.Content) == "" {
		return badRequest("消费内容不能为空！")
	}
	quantity, err := parsePositive(nc.Quantity, "数量")
	if err != nil {
		return err
	}
	coefficient, err := parsePositive(nc.UnitCoefficient, "单位系数")
	if err != nil {
		return err
	}
	total, err := decimal.NewFromString(strings.TrimSpace(nc.TotalPrice))
	if err != nil || total.IsNegative() {
		return badRequest("总价格式错误！")
	}
	status := core.ReceiveStatus(nc.ReceiveStatus)
	if status != core.Received {
		status = core.Pending
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := core.Consumption{
		ID:                s.nextID,
		Content:           strings.TrimSpace(nc.Content),
		Quantity:          quantity,
		TotalPrice:        total,
		Channel:           nc.Channel,
		MainType:          nc.MainType,
		SubType:           nc.SubType,
		UnitCoefficient:   coefficient,
		ReceiveStatus:     status,
		CreateTime:        s.now().Format(core.DateTimeLayout),
		StatisticalStatus: core.StatisticalStatus(status),
		MinUnitPrice:      decimal.NewNullDecimal(core.MinUnitPrice(total, quantity, coefficient)),
		DailyAveragePrice: decimal.NewNullDecimal(decimal.Zero),
	}
	s.nextID++
	s.items = append(s.items, c)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(id)
	if err != nil {
		return err
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) Update(_ context.Context, id string, p core.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(id)
	if err != nil {
		return err
	}
	c := &s.items[i]
	if p.Tag != nil {
		c.Tag = core.Tag(*p.Tag)
	}
	if p.ReceiveStatus != nil {
		c.ReceiveStatus = core.ReceiveStatus(*p.ReceiveStatus)
		c.StatisticalStatus = core.StatisticalStatus(c.ReceiveStatus)
	}
	if p.StartUseTime != nil || p.EndUseTime != nil {
		start, end := c.StartUseTime, c.EndUseTime
		if p.StartUseTime != nil {
			start = *p.StartUseTime
		}
		if p.EndUseTime != nil {
			end = *p.EndUseTime
		}
		for _, d := range []string{start, end} {
			if d != "" && !core.ValidDay(d) {
				return badRequest("时间格式错误: " + d)
			}
		}
		c.StartUseTime, c.EndUseTime = start, end
		c.DailyAveragePrice = decimal.NewNullDecimal(core.DailyAveragePrice(c.TotalPrice, start, end))
	}
	return nil
}

func (s *Store) List(_ context.Context, f core.ListFilter) ([]core.Consumption, error) {
	return s.filter(func(c core.Consumption) bool {
		day := datePart(c.CreateTime)
		if f.StartDate != "" && day < f.StartDate {
			return false
		}
		if f.EndDate != "" && day > f.EndDate {
			return false
		}
		return true
	}), nil
}

func (s *Store) ListBySubType(_ context.Context, subType string) ([]core.Consumption, error) {
	if strings.TrimSpace(subType) == "" {
		return nil, core.ErrEmptySubType
	}
	return s.filter(func(c core.Consumption) bool { return c.SubType == subType }), nil
}

func (s *Store) ListByTag(_ context.Context, tag core.Tag) ([]core.Consumption, error) {
	return s.filter(func(c core.Consumption) bool { return c.Tag == tag }), nil
}

func (s *Store) ListPending(_ context.Context) ([]core.Consumption, error) {
	return s.filter(func(c core.Consumption) bool { return c.ReceiveStatus == core.Pending }), nil
}

func (s *Store) PendingCount(ctx context.Context) (int, error) {
	items, err := s.ListPending(ctx)
	return len(items), err
}

func (s *Store) Channels(context.Context) ([]core.Lookup, error) {
	return s.lookups(s.channels), nil
}

func (s *Store) MainTypes(context.Context) ([]core.Lookup, error) {
	return s.lookups(s.mainTypes), nil
}

func (s *Store) SubTypes(context.Context) ([]core.Lookup, error) {
	return s.lookups(s.subTypes), nil
}

// Statistics sums received spending per main type, in order of first
// appearance, over an inclusive creation-date range.
func (s *Store) Statistics(_ context.Context, startDate, endDate string) (core.Statistics, error) {
	if startDate == "" || endDate == "" {
		return core.Statistics{}, badRequest("开始日期和结束日期不能为空！")
	}
	rows := s.filter(func(c core.Consumption) bool {
		day := datePart(c.CreateTime)
		return c.ReceiveStatus == core.Received && day >= startDate && day <= endDate
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreateTime < rows[j].CreateTime })

	stats := core.Statistics{Categories: []string{}, Values: []decimal.Decimal{}}
	index := map[string]int{}
	for _, c := range rows {
		i, ok := index[c.MainType]
		if !ok {
			i = len(stats.Categories)
			index[c.MainType] = i
			stats.Categories = append(stats.Categories, c.MainType)
			stats.Values = append(stats.Values, decimal.Zero)
		}
		stats.Values[i] = stats.Values[i].Add(c.TotalPrice)
	}
	return stats, nil
}

// filter returns matching records, newest first.
func (s *Store) filter(keep func(core.Consumption) bool) []core.Consumption {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Consumption, 0, len(s.items))
	for _, c := range s.items {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreateTime != out[j].CreateTime {
			return out[i].CreateTime > out[j].CreateTime
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) lookups(in []core.Lookup) []core.Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Lookup(nil), in...)
}

func (s *Store) indexOf(id string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return -1, &api.Error{Status: http.StatusNotFound, Message: notFound}
	}
	for i := range s.items {
		if s.items[i].ID == n {
			return i, nil
		}
	}
	return -1, &api.Error{Status: http.StatusNotFound, Message: notFound}
}

func badRequest(msg string) error {
	return &api.Error{Status: http.StatusBadRequest, Message: msg}
}

func parsePositive(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, badRequest(field + "必须大于0！")
	}
	return d, nil
}

func datePart(createTime string) string {
	if len(createTime) >= len(core.DateLayout) {
		return createTime[:len(core.DateLayout)]
	}
	return createTime
}

func toLookups(names []string) []core.Lookup {
	names = dedupe(names)
	out := make([]core.Lookup, len(names))
	for i, n := range names {
		out[i] = core.Lookup{ID: int64(i + 1), Name: n}
	}
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, keeping input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
