package scheduler

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/dukerupert/accountable/internal/calendar"
	"github.com/dukerupert/accountable/internal/database"
	"github.com/dukerupert/accountable/internal/habit"
	"github.com/dukerupert/accountable/internal/model"
	"github.com/dukerupert/accountable/internal/store"
	"github.com/dukerupert/accountable/internal/window"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func setup(t *testing.T, logOut io.Writer) (*habit.Service, *clock, *sql.DB) {
	t.Helper()
	return setupWindow(t, logOut, window.Default(time.UTC))
}

func setupWindow(t *testing.T, logOut io.Writer, w window.Window) (*habit.Service, *clock, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	c := &clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewJSONHandler(logOut, nil))
	svc := habit.NewService(store.NewHabitStore(db), habit.Config{
		Location: time.UTC,
		Window:   w,
		Now:      c.Now,
	}, logger)
	return svc, c, db
}

func TestTickClosesFinishedDays(t *testing.T) {
	svc, c, db := setup(t, io.Discard)
	defer db.Close()

	h, err := svc.Create("owner-1", model.NewHabit{Name: "Read", Kind: model.KindBuild, BaseTaskValue: 20, Unit: "pages"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	s := New(svc, time.Minute, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	ctx := context.Background()

	c.Set(time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC))
	s.tick(ctx)
	hist, err := svc.History("owner-1", h.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist.Statuses) != 1 || hist.Statuses[0].Day.String() != "2024-01-03" {
		t.Fatalf("statuses after first tick = %+v, want one for 2024-01-03", hist.Statuses)
	}

	// Same day again: nothing new.
	s.tick(ctx)
	c.Set(time.Date(2024, 1, 6, 0, 30, 0, 0, time.UTC))
	s.tick(ctx)

	hist, err = svc.History("owner-1", h.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist.Statuses) != 3 {
		t.Fatalf("statuses = %d, want 3", len(hist.Statuses))
	}
	for _, st := range hist.Statuses {
		if st.Completed || !st.AutoProcessed {
			t.Errorf("status %s = %+v, want auto-processed miss", st.Day, st)
		}
	}
	if want := calendar.MustParse("2024-01-05"); !s.rolled.Equal(want) {
		t.Errorf("rolled = %s, want %s", s.rolled, want)
	}
}

func TestTickWaitsForWrappingWindow(t *testing.T) {
	w, err := window.New(22, 2, time.UTC)
	if err != nil {
		t.Fatalf("new window: %v", err)
	}
	svc, c, db := setupWindow(t, io.Discard, w)
	defer db.Close()

	h, err := svc.Create("owner-1", model.NewHabit{Name: "Read", Kind: model.KindBuild, BaseTaskValue: 20, Unit: "pages"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s := New(svc, time.Minute, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	ctx := context.Background()

	c.Set(time.Date(2024, 1, 3, 0, 30, 0, 0, time.UTC))
	s.tick(ctx)
	hist, err := svc.History("owner-1", h.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist.Statuses) != 0 {
		t.Fatalf("statuses while window open = %+v, want none", hist.Statuses)
	}
	if !s.rolled.IsZero() {
		t.Errorf("rolled = %s, want zero", s.rolled)
	}

	c.Set(time.Date(2024, 1, 3, 2, 30, 0, 0, time.UTC))
	s.tick(ctx)
	hist, err = svc.History("owner-1", h.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist.Statuses) != 1 || hist.Statuses[0].Day.String() != "2024-01-02" {
		t.Errorf("statuses after window closed = %+v, want one for 2024-01-02", hist.Statuses)
	}
}

func TestTickLogsWindowTransitions(t *testing.T) {
	var buf bytes.Buffer
	svc, c, db := setup(t, io.Discard)
	defer db.Close()

	s := New(svc, time.Minute, slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.Background()

	c.Set(time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC))
	s.tick(ctx)
	if strings.Contains(buf.String(), "confirmation window") {
		t.Errorf("unexpected window log while closed at start: %s", buf.String())
	}

	c.Set(time.Date(2024, 1, 1, 23, 15, 0, 0, time.UTC))
	s.tick(ctx)
	if !strings.Contains(buf.String(), "confirmation window open") {
		t.Errorf("missing open log: %s", buf.String())
	}

	buf.Reset()
	c.Set(time.Date(2024, 1, 1, 23, 45, 0, 0, time.UTC))
	s.tick(ctx)
	if buf.Len() != 0 {
		t.Errorf("unexpected log while window stays open: %s", buf.String())
	}

	c.Set(time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC))
	s.tick(ctx)
	if !strings.Contains(buf.String(), "confirmation window closed") {
		t.Errorf("missing close log: %s", buf.String())
	}
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, _, db := setup(t, io.Discard)
	defer db.Close()

	s := New(svc, 5*time.Millisecond, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	// Stop is safe to call twice.
	s.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	svc, _, db := setup(t, io.Discard)
	defer db.Close()

	New(svc, time.Minute, nil).Stop()
}
