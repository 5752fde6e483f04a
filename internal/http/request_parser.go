// Package http serves the pages and their HTMX interactions.
//
// This file reads request data: the create form (form-encoded or JSON), the
// list date filter, and the viewport width and page id the browser reports.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"xiaofei/internal/core"
)

// ViewportHeader carries window.innerWidth, set by static/app.js on every
// htmx request.
const ViewportHeader = "X-Viewport-Width"

// ViewportWidth returns the reported viewport width, 0 when absent or invalid.
func ViewportWidth(r *http.Request) int {
	w, err := strconv.Atoi(strings.TrimSpace(r.Header.Get(ViewportHeader)))
	if err != nil || w < 0 {
		return 0
	}
	return w
}

// PageHeader carries the id the page was rendered with, set by static/app.js
// on every htmx request. It names the page's pending-dialog slot.
const PageHeader = "X-Page-ID"

const maxPageIDLen = 64

// PageID returns the reported page id, empty when absent or oversized.
func PageID(r *http.Request) string {
	id := sanitizeInput(r.Header.Get(PageHeader))
	if len(id) > maxPageIDLen {
		return ""
	}
	return id
}

// ParseListFilter reads startDate/endDate from the query. Malformed dates are
// dropped rather than forwarded to the backend.
func ParseListFilter(query url.Values) core.ListFilter {
	var f core.ListFilter
	if v := strings.TrimSpace(query.Get("startDate")); core.ValidDate(v) {
		f.StartDate = v
	}
	if v := strings.TrimSpace(query.Get("endDate")); core.ValidDate(v) {
		f.EndDate = v
	}
	return f
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once and keeps it for Parse.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

const maxBodyBytes = 64 << 10

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitised string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// NewConsumption reads the create form. Values are passed through as typed;
// the backend owns numeric validation.
func (p *RequestBodyParser) NewConsumption() core.NewConsumption {
	return core.NewConsumption{
		Content:         p.Get("content"),
		Quantity:        p.Get("quantity"),
		TotalPrice:      p.Get("totalPrice"),
		Channel:         p.Get("channel"),
		MainType:        p.Get("mainType"),
		SubType:         p.Get("subType"),
		UnitCoefficient: p.Get("unitCoefficient"),
		ReceiveStatus:   p.Get("receiveStatus"),
	}
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
