package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestQueryBool(t *testing.T) {
	tests := []struct {
		value   string
		want    *bool
		wantErr bool
	}{
		{"", nil, false},
		{"1", boolPtr(true), false},
		{"true", boolPtr(true), false},
		{"ON", boolPtr(true), false},
		{"0", boolPtr(false), false},
		{"false", boolPtr(false), false},
		{"maybe", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := queryBool(url.Values{"is_active": {tt.value}}, "is_active")
			if (err != nil) != tt.wantErr {
				t.Fatalf("queryBool(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("queryBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }

func TestLedgerFilter(t *testing.T) {
	q := url.Values{
		"start_date":  {"2025-01-01"},
		"end_date":    {"2025-01-31"},
		"category_id": {"4"},
		"limit":       {"20"},
	}
	f, err := ledgerFilter(q)
	if err != nil {
		t.Fatalf("ledgerFilter() error = %v", err)
	}
	if f.StartDate.String() != "2025-01-01" || f.EndDate.String() != "2025-01-31" {
		t.Errorf("dates = %v..%v", f.StartDate, f.EndDate)
	}
	if f.CategoryID == nil || *f.CategoryID != 4 {
		t.Errorf("CategoryID = %v", f.CategoryID)
	}
	if f.SourceID != nil {
		t.Errorf("SourceID = %v, want nil", *f.SourceID)
	}
	if f.Limit != 20 {
		t.Errorf("Limit = %d", f.Limit)
	}

	invalid := []url.Values{
		{"start_date": {"01/01/2025"}},
		{"category_id": {"-1"}},
		{"source_id": {"x"}},
		{"limit": {"ten"}},
		{"limit": {"-5"}},
	}
	for _, q := range invalid {
		if _, err := ledgerFilter(q); !errors.Is(err, core.ErrValidation) {
			t.Errorf("ledgerFilter(%v) error = %v, want validation error", q, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		want    string
	}{
		{"valid", `{"tracker_name":"Home"}`, nil, "Home"},
		{"empty body", ``, nil, ""},
		{"malformed", `{"tracker_name":`, errInvalidBody, ""},
		{"trailing data", `{"tracker_name":"a"}{}`, errInvalidBody, "a"},
		{"wrong type", `{"tracker_name":5}`, errInvalidBody, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var in core.TrackerInput
			err := decodeJSON(httptest.NewRecorder(), req, &in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("decodeJSON() error = %v, want %v", err, tt.wantErr)
			}
			if in.Name != tt.want {
				t.Errorf("Name = %q, want %q", in.Name, tt.want)
			}
		})
	}
}

func TestDecodeJSON_KeepsCoreValidationMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"abc"}`))
	var in core.ExpenseInput
	err := decodeJSON(httptest.NewRecorder(), req, &in)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("decodeJSON() error = %v, want ErrInvalidAmount", err)
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetPathValue("id", tt.value)
			got, err := pathID(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pathID(%q) error = %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("pathID(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}
