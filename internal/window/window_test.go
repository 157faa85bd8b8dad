package window

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 6, 15, hour, min, 0, 0, time.UTC)
}

func TestDefaultWindowIsLastHour(t *testing.T) {
	w := Default(time.UTC)

	tests := []struct {
		now  time.Time
		open bool
	}{
		{at(0, 0), false},
		{at(12, 0), false},
		{at(22, 59), false},
		{at(23, 0), true},
		{at(23, 59), true},
	}
	for _, tt := range tests {
		if got := w.IsOpen(tt.now); got != tt.open {
			t.Errorf("IsOpen(%s) = %v, want %v", tt.now.Format("15:04"), got, tt.open)
		}
	}
}

func TestCountdowns(t *testing.T) {
	w := Default(time.UTC)

	if got := w.TimeUntilOpen(at(21, 30)); got != 90*time.Minute {
		t.Errorf("until open at 21:30 = %v, want 1h30m", got)
	}
	if got := w.TimeRemaining(at(21, 30)); got != 0 {
		t.Errorf("remaining while closed = %v, want 0", got)
	}
	if got := w.TimeRemaining(at(23, 45)); got != 15*time.Minute {
		t.Errorf("remaining at 23:45 = %v, want 15m", got)
	}
	if got := w.TimeUntilOpen(at(23, 45)); got != 0 {
		t.Errorf("until open while open = %v, want 0", got)
	}
	if got := w.TimeUntilOpen(at(0, 0)); got != 23*time.Hour {
		t.Errorf("until open at midnight = %v, want 23h", got)
	}
}

func TestWrappingWindow(t *testing.T) {
	w, err := New(22, 2, time.UTC)
	if err != nil {
		t.Fatalf("new window: %v", err)
	}

	for _, h := range []int{22, 23, 0, 1} {
		if !w.IsOpen(at(h, 10)) {
			t.Errorf("expected open at %02d:10", h)
		}
	}
	for _, h := range []int{2, 3, 12, 21} {
		if w.IsOpen(at(h, 10)) {
			t.Errorf("expected closed at %02d:10", h)
		}
	}

	if got := w.TimeRemaining(at(23, 0)); got != 3*time.Hour {
		t.Errorf("remaining at 23:00 = %v, want 3h", got)
	}
	if got := w.TimeRemaining(at(1, 30)); got != 30*time.Minute {
		t.Errorf("remaining at 01:30 = %v, want 30m", got)
	}
	if got := w.TimeUntilOpen(at(2, 0)); got != 20*time.Hour {
		t.Errorf("until open at 02:00 = %v, want 20h", got)
	}
}

func TestDay(t *testing.T) {
	w := Default(time.UTC)
	if _, ok := w.Day(at(12, 0)); ok {
		t.Error("expected no day while closed")
	}
	d, ok := w.Day(at(23, 30))
	if !ok || d.String() != "2024-06-15" {
		t.Errorf("Day(23:30) = %s, %v; want 2024-06-15, true", d, ok)
	}

	wrap, err := New(22, 2, time.UTC)
	if err != nil {
		t.Fatalf("new window: %v", err)
	}
	d, ok = wrap.Day(at(1, 0))
	if !ok || d.String() != "2024-06-14" {
		t.Errorf("wrapping Day(01:00) = %s, %v; want 2024-06-14, true", d, ok)
	}
	d, ok = wrap.Day(at(22, 30))
	if !ok || d.String() != "2024-06-15" {
		t.Errorf("wrapping Day(22:30) = %s, %v; want 2024-06-15, true", d, ok)
	}
}

func TestUsesWindowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	w := Default(loc)

	// 21:30 UTC is 23:30 in loc.
	if !w.IsOpen(at(21, 30)) {
		t.Error("expected open at 23:30 local")
	}
	if w.IsOpen(at(23, 30)) {
		t.Error("expected closed at 01:30 local")
	}
}

func TestStatus(t *testing.T) {
	s := Default(time.UTC).Status(at(23, 20))
	if !s.Open || s.Remaining != 40*time.Minute || s.UntilOpen != 0 {
		t.Errorf("status = %+v", s)
	}
}

func TestValidate(t *testing.T) {
	bad := [][2]int{{-1, 5}, {24, 24}, {5, 25}, {5, 5}, {0, 24}, {3, 0}}
	for _, b := range bad {
		if _, err := New(b[0], b[1], time.UTC); err == nil {
			t.Errorf("New(%d, %d) succeeded, want error", b[0], b[1])
		}
	}
	if _, err := New(0, 1, time.UTC); err != nil {
		t.Errorf("New(0, 1): %v", err)
	}
}
