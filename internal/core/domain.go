package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Received ReceiveStatus = "已收货"
	Pending  ReceiveStatus = "待收货"

	Repurchase Tag = "回购"
	Avoid      Tag = "踩雷"
	NoTag      Tag = ""

	Counted    = "计入"
	NotCounted = "不计入"
)

type (
	ReceiveStatus string

	Tag string

	// Consumption is one purchase record as the backend returns it.
	Consumption struct {
		ID                int64               `json:"id"`
		Content           string              `json:"content"`
		Quantity          decimal.Decimal     `json:"quantity"`
		TotalPrice        decimal.Decimal     `json:"total_price"`
		Channel           string              `json:"channel"`
		MainType          string              `json:"main_type"`
		SubType           string              `json:"sub_type"`
		UnitCoefficient   decimal.Decimal     `json:"unit_coefficient"`
		ReceiveStatus     ReceiveStatus       `json:"receive_status"`
		CreateTime        string              `json:"create_time"`
		StatisticalStatus string              `json:"statistical_status"`
		MinUnitPrice      decimal.NullDecimal `json:"min_unit_price"`
		Tag               Tag                 `json:"tag"`
		Evaluate          string              `json:"evaluate"`
		StartUseTime      string              `json:"start_use_time"`
		EndUseTime        string              `json:"end_use_time"`
		DailyAveragePrice decimal.NullDecimal `json:"daily_average_price"`
		PickupCode        string              `json:"pickup_code"`
	}

	// NewConsumption carries the create form values verbatim; the backend
	// converts the numeric fields.
	NewConsumption struct {
		Content         string `json:"content"`
		Quantity        string `json:"quantity"`
		TotalPrice      string `json:"totalPrice"`
		Channel         string `json:"channel"`
		MainType        string `json:"mainType"`
		SubType         string `json:"subType"`
		UnitCoefficient string `json:"unitCoefficient"`
		ReceiveStatus   string `json:"receiveStatus"`
	}

	// Patch is a partial update. Nil fields are omitted from the request body.
	Patch struct {
		Tag           *string `json:"tag,omitempty"`
		StartUseTime  *string `json:"startUseTime,omitempty"`
		EndUseTime    *string `json:"endUseTime,omitempty"`
		ReceiveStatus *string `json:"receiveStatus,omitempty"`
	}

	// Lookup is a named option of a select (channel, main type, sub type).
	Lookup struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// Statistics sums received spending by main type over a date range.
	Statistics struct {
		Categories []string          `json:"categories"`
		Values     []decimal.Decimal `json:"values"`
	}

	// ListFilter narrows the consumption list by creation date (YYYY-MM-DD, inclusive).
	ListFilter struct {
		StartDate string
		EndDate   string
	}
)

var (
	ErrEmptyUseWindow  = errors.New("start and end use time are required")
	ErrEmptySubType    = errors.New("sub type is required")
	ErrEmptyID         = errors.New("consumption id is required")
	ErrStatisticsShape = errors.New("statistics categories and values differ in length")
)

// TagPatch replaces the tag; an empty tag clears it.
func TagPatch(tag string) Patch {
	return Patch{Tag: &tag}
}

// UseWindowPatch sets the usage window the daily average price is computed from.
func UseWindowPatch(start, end string) Patch {
	return Patch{StartUseTime: &start, EndUseTime: &end}
}

// ReceivedPatch marks a record as received.
func ReceivedPatch() Patch {
	s := string(Received)
	return Patch{ReceiveStatus: &s}
}

// ValidateUseWindow rejects a window with a blank start or end.
func ValidateUseWindow(start, end string) error {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return ErrEmptyUseWindow
	}
	return nil
}

// StatisticalStatus derives whether a record counts towards the bill statistics.
func StatisticalStatus(status ReceiveStatus) string {
	if status == Received {
		return Counted
	}
	return NotCounted
}

// Label returns the tag for display, "无" when unset.
func (t Tag) Label() string {
	if t == NoTag {
		return "无"
	}
	return string(t)
}

// Tags lists the selectable tags in display order.
func Tags() []Tag {
	return []Tag{NoTag, Repurchase, Avoid}
}
