package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestViewportWidth(t *testing.T) {
	tests := []struct {
		header string
		want   int
	}{
		{"375", 375},
		{" 1440 ", 1440},
		{"", 0},
		{"wide", 0},
		{"-1", 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set(ViewportHeader, tt.header)
		}
		if got := ViewportWidth(req); got != tt.want {
			t.Errorf("ViewportWidth(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}

func TestPageID(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"6f1c2d3e-0000-4000-8000-000000000001", "6f1c2d3e-0000-4000-8000-000000000001"},
		{" tab\x00 ", "tab"},
		{"", ""},
		{strings.Repeat("x", 65), ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(PageHeader, tt.header)
		if got := PageID(req); got != tt.want {
			t.Errorf("PageID(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestParseListFilter(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantStart string
		wantEnd   string
	}{
		{
			name:      "both dates",
			query:     url.Values{"startDate": {"2025-03-01"}, "endDate": {"2025-03-31"}},
			wantStart: "2025-03-01",
			wantEnd:   "2025-03-31",
		},
		{
			name:    "only end",
			query:   url.Values{"endDate": {"2025-03-31"}},
			wantEnd: "2025-03-31",
		},
		{
			name:      "malformed end dropped",
			query:     url.Values{"startDate": {"2025-03-01"}, "endDate": {"31/03/2025"}},
			wantStart: "2025-03-01",
		},
		{
			name:  "empty",
			query: url.Values{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseListFilter(tt.query)
			if f.StartDate != tt.wantStart || f.EndDate != tt.wantEnd {
				t.Errorf("ParseListFilter = %+v, want %s..%s", f, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"content": "抽纸", "quantity": 2, "totalPrice": "10.5", "unitCoefficient": 5}`
	req := httptest.NewRequest(http.MethodPost, "/consumption", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	nc := parser.NewConsumption()
	if nc.Content != "抽纸" || nc.Quantity != "2" || nc.TotalPrice != "10.5" || nc.UnitCoefficient != "5" {
		t.Errorf("NewConsumption() = %+v", nc)
	}
	if nc.Channel != "" {
		t.Errorf("missing key should be empty, got %q", nc.Channel)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	form := url.Values{
		"content":       {"  洗衣液\x00 "},
		"channel":       {"淘宝"},
		"mainType":      {"日用"},
		"subType":       {"清洁"},
		"receiveStatus": {"待收货"},
	}
	req := httptest.NewRequest(http.MethodPost, "/consumption", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	nc := parser.NewConsumption()
	if nc.Content != "洗衣液" {
		t.Errorf("Content = %q, want sanitised value", nc.Content)
	}
	if nc.Channel != "淘宝" || nc.MainType != "日用" || nc.SubType != "清洁" || nc.ReceiveStatus != "待收货" {
		t.Errorf("NewConsumption() = %+v", nc)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/consumption", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("content"); val != "" {
		t.Errorf("Get('content') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/consumption", strings.NewReader(`{"content":`))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Fatal("expected an error for truncated JSON")
	}
	if err := parser.Parse(); err == nil {
		t.Fatal("second Parse should return the same error")
	}
}
