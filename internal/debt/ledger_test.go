package debt

import (
	"testing"
	"time"

	"github.com/dukerupert/accountable/internal/calendar"
)

func TestRecordViolationIncrements(t *testing.T) {
	e := Entry{Debt: 3}
	e = RecordViolation(e)
	if e.Debt != 4 {
		t.Errorf("debt = %d, want 4", e.Debt)
	}
	for i := 0; i < 100; i++ {
		e = RecordViolation(e)
	}
	if e.Debt != 104 {
		t.Errorf("debt = %d, want 104", e.Debt)
	}
}

func TestConfirmCleanDayDecrementsOncePerDay(t *testing.T) {
	today := calendar.MustParse("2024-01-10")

	e, credited := ConfirmCleanDay(Entry{Debt: 4}, today)
	if !credited {
		t.Fatal("expected first confirmation to be credited")
	}
	if e.Debt != 3 {
		t.Errorf("debt = %d, want 3", e.Debt)
	}
	if e.LastCleanDay != today {
		t.Errorf("last clean day = %s, want %s", e.LastCleanDay, today)
	}

	again, credited := ConfirmCleanDay(e, today)
	if credited {
		t.Error("second confirmation for the same day should not be credited")
	}
	if again != e {
		t.Errorf("entry changed on repeat: %+v -> %+v", e, again)
	}

	next, credited := ConfirmCleanDay(e, today.AddDays(1))
	if !credited || next.Debt != 2 {
		t.Errorf("next day: credited=%v debt=%d, want true and 2", credited, next.Debt)
	}
}

func TestConfirmCleanDayRejectsEarlierDays(t *testing.T) {
	e := Entry{Debt: 5, LastCleanDay: calendar.MustParse("2024-01-10")}

	got, credited := ConfirmCleanDay(e, calendar.MustParse("2024-01-08"))
	if credited {
		t.Error("a day before the last credited day must not be credited")
	}
	if got != e {
		t.Errorf("entry changed: %+v -> %+v", e, got)
	}
}

func TestConfirmCleanDayFloorsAtZero(t *testing.T) {
	day := calendar.MustParse("2024-01-01")
	e := Entry{}
	for i := 0; i < 5; i++ {
		e, _ = ConfirmCleanDay(e, day.AddDays(i))
		if e.Debt != 0 {
			t.Fatalf("debt = %d, want 0", e.Debt)
		}
	}
	if e.LastCleanDay != day.AddDays(4) {
		t.Errorf("last clean day = %s, want %s", e.LastCleanDay, day.AddDays(4))
	}
}

func TestIsConfirmed(t *testing.T) {
	day := calendar.MustParse("2024-01-01")
	if (Entry{}).IsConfirmed(day) {
		t.Error("empty entry should not be confirmed")
	}
	if !(Entry{LastCleanDay: day}).IsConfirmed(day) {
		t.Error("expected confirmed")
	}
	if (Entry{LastCleanDay: day}).IsConfirmed(day.AddDays(1)) {
		t.Error("other day should not be confirmed")
	}
}

func TestCountOnDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	day := calendar.MustParse("2024-01-10")

	timestamps := []time.Time{
		time.Date(2024, 1, 10, 0, 0, 0, 0, loc),
		time.Date(2024, 1, 10, 12, 30, 0, 0, loc),
		time.Date(2024, 1, 10, 23, 59, 59, 999_000_000, loc),
		time.Date(2024, 1, 11, 0, 0, 0, 0, loc),
		time.Date(2024, 1, 9, 23, 59, 59, 0, loc),
		// 03:00 UTC on the 11th is 22:00 on the 10th in loc.
		time.Date(2024, 1, 11, 3, 0, 0, 0, time.UTC),
	}

	if got := CountOnDay(timestamps, day, loc); got != 4 {
		t.Errorf("count = %d, want 4", got)
	}
	if got := CountOnDay(nil, day, loc); got != 0 {
		t.Errorf("empty count = %d, want 0", got)
	}
}
