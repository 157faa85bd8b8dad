package calendar

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseAndString(t *testing.T) {
	d, err := Parse("2024-01-05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2024-01-05" {
		t.Errorf("string = %q, want %q", d.String(), "2024-01-05")
	}
	if d.Year() != 2024 || d.Month() != time.January || d.DayOfMonth() != 5 {
		t.Errorf("components = %d-%d-%d", d.Year(), d.Month(), d.DayOfMonth())
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "2024-1-5", "2024-02-30", "yesterday", "2024-01-05T10:00:00Z"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", s)
		}
	}
}

func TestFromTimeIgnoresTimeOfDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 02:30 UTC on the 6th is still the evening of the 5th in New York.
	ts := time.Date(2024, 1, 6, 2, 30, 0, 0, time.UTC)
	if got := FromTime(ts, ny); got != Date(2024, 1, 5) {
		t.Errorf("FromTime(ny) = %s, want 2024-01-05", got)
	}
	if got := FromTime(ts, time.UTC); got != Date(2024, 1, 6) {
		t.Errorf("FromTime(utc) = %s, want 2024-01-06", got)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2024-01-01", "2024-01-01", 0},
		{"2024-01-01", "2024-01-03", 2},
		{"2024-01-03", "2024-01-01", -2},
		{"2024-02-28", "2024-03-01", 2}, // leap year
		{"2023-12-31", "2024-01-01", 1},
		{"2024-03-09", "2024-03-11", 2}, // across a DST change in the US
	}
	for _, tt := range tests {
		got := DaysBetween(MustParse(tt.a), MustParse(tt.b))
		if got != tt.want {
			t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestYesterdayAndAddDays(t *testing.T) {
	d := MustParse("2024-03-01")
	if got := d.Yesterday(); got != MustParse("2024-02-29") {
		t.Errorf("yesterday = %s, want 2024-02-29", got)
	}
	if got := d.AddDays(31); got != MustParse("2024-04-01") {
		t.Errorf("add 31 = %s, want 2024-04-01", got)
	}
	if !d.Yesterday().Before(d) || !d.After(d.Yesterday()) {
		t.Error("ordering is wrong")
	}
}

func TestContainsUsesHalfOpenBoundary(t *testing.T) {
	d := MustParse("2024-01-05")
	loc := time.UTC

	if !d.Contains(time.Date(2024, 1, 5, 0, 0, 0, 0, loc), loc) {
		t.Error("start of day should be contained")
	}
	if !d.Contains(time.Date(2024, 1, 5, 23, 59, 59, 999_000_000, loc), loc) {
		t.Error("23:59:59.999 should be contained")
	}
	if d.Contains(time.Date(2024, 1, 6, 0, 0, 0, 0, loc), loc) {
		t.Error("next midnight should not be contained")
	}
}

func TestScanAndValue(t *testing.T) {
	var d Day
	if err := d.Scan("2024-01-05"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if d != MustParse("2024-01-05") {
		t.Errorf("scanned = %s", d)
	}

	if err := d.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !d.IsZero() {
		t.Error("expected zero day after scanning NULL")
	}

	if err := d.Scan([]byte("2024-01-05T00:00:00Z")); err != nil {
		t.Fatalf("scan timestamp text: %v", err)
	}
	if d.String() != "2024-01-05" {
		t.Errorf("scanned = %s", d)
	}

	v, err := Day{}.Value()
	if err != nil || v != nil {
		t.Errorf("zero Value() = %v, %v; want nil, nil", v, err)
	}
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		Start Day `json:"start"`
		End   Day `json:"end"`
	}

	b, err := json.Marshal(wrapper{Start: MustParse("2024-01-05")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"start":"2024-01-05","end":null}` {
		t.Errorf("json = %s", b)
	}

	var w wrapper
	if err := json.Unmarshal(b, &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Start != MustParse("2024-01-05") || !w.End.IsZero() {
		t.Errorf("round trip = %+v", w)
	}
}
