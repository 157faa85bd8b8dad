// Package habit is the scoring engine: it validates requests, applies the
// penalty, debt and streak rules and persists the result through the habit
// store.
package habit

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/accountable/internal/calendar"
	"github.com/dukerupert/accountable/internal/debt"
	"github.com/dukerupert/accountable/internal/model"
	"github.com/dukerupert/accountable/internal/penalty"
	"github.com/dukerupert/accountable/internal/store"
	"github.com/dukerupert/accountable/internal/streak"
	"github.com/dukerupert/accountable/internal/window"
)

const defaultRolloverWorkers = 4

type Config struct {
	// Location defines where calendar days begin and end.
	Location *time.Location
	Window   window.Window
	// EnforceWindow rejects confirmations submitted outside the window of
	// the day being confirmed.
	EnforceWindow   bool
	Stacking        penalty.Stacking
	RolloverWorkers int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type Service struct {
	store  *store.HabitStore
	cfg    Config
	locks  *keyedMutex
	logger *slog.Logger
}

func NewService(hs *store.HabitStore, cfg Config, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Window == (window.Window{}) {
		cfg.Window = window.Default(cfg.Location)
	} else if cfg.Window.Location == nil {
		cfg.Window.Location = cfg.Location
	}
	if cfg.Stacking == "" {
		cfg.Stacking = penalty.Additive
	}
	if cfg.RolloverWorkers <= 0 {
		cfg.RolloverWorkers = defaultRolloverWorkers
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  hs,
		cfg:    cfg,
		locks:  newKeyedMutex(),
		logger: logger.With("component", "habit"),
	}
}

func (s *Service) Location() *time.Location { return s.cfg.Location }
func (s *Service) Window() window.Window     { return s.cfg.Window }

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.cfg.Now() }

// Today returns the current calendar day in the service location.
func (s *Service) Today() calendar.Day {
	return calendar.FromTime(s.cfg.Now(), s.cfg.Location)
}

// CleanDayResult is returned by ConfirmCleanDay. AlreadyCredited is set when
// the day had been credited before and nothing changed.
type CleanDayResult struct {
	Debt            int          `json:"debt"`
	AlreadyCredited bool         `json:"already_credited"`
	Streak          streak.State `json:"streak"`
}

// Create validates in and stores a new habit for owner. Avoid habits start
// with an empty debt entry.
func (s *Service) Create(owner string, in model.NewHabit) (*model.Habit, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, invalid("owner", "is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	now := s.cfg.Now()
	h := model.Habit{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Name:      name,
		Kind:      in.Kind,
		CreatedOn: calendar.FromTime(now, s.cfg.Location),
		CreatedAt: now.UTC(),
	}

	switch in.Kind {
	case model.KindBuild:
		if in.BaseTaskValue <= 0 {
			return nil, invalid("base_task_value", "must be positive for build habits")
		}
		unit := strings.TrimSpace(in.Unit)
		if unit == "" {
			return nil, invalid("unit", "is required for build habits")
		}
		h.Build = &model.BuildTarget{BaseTaskValue: in.BaseTaskValue, Unit: unit}
	case model.KindAvoid:
		if in.BaseTaskValue != 0 || in.Unit != "" {
			return nil, invalid("kind", "avoid habits do not take a task value or unit")
		}
	default:
		return nil, invalid("kind", "must be %q or %q, got %q", model.KindBuild, model.KindAvoid, in.Kind)
	}

	if err := s.store.Update(func(tx *store.HabitTx) error {
		return tx.Insert(h)
	}); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	s.logger.Info("habit created", "habit_id", h.ID, "owner_id", owner, "kind", h.Kind)
	return &h, nil
}

// Delete removes the habit and all of its history.
func (s *Service) Delete(owner, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	err := s.store.Update(func(tx *store.HabitTx) error {
		if _, err := loadOwned(tx, owner, id); err != nil {
			return err
		}
		return tx.Delete(id)
	})
	if err != nil {
		return fmt.Errorf("delete habit %s: %w", id, err)
	}

	s.logger.Info("habit deleted", "habit_id", id, "owner_id", owner)
	return nil
}

// LogViolation records a violation of an avoid habit. Violations are
// accepted at any time of day.
func (s *Service) LogViolation(owner, id, notes string) (*model.Event, debt.Entry, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	ev := model.Event{
		ID:         uuid.NewString(),
		HabitID:    id,
		OccurredAt: s.cfg.Now().UTC(),
		Value:      1,
		Notes:      strings.TrimSpace(notes),
	}
	var entry debt.Entry

	err := s.store.Update(func(tx *store.HabitTx) error {
		h, err := loadOwned(tx, owner, id)
		if err != nil {
			return err
		}
		if !h.IsAvoid() {
			return fmt.Errorf("%w: cannot log a violation on a %s habit", ErrInvalidKind, h.Kind)
		}
		current, err := loadDebt(tx, id)
		if err != nil {
			return err
		}
		if err := tx.InsertEvent(ev); err != nil {
			return err
		}
		entry = debt.RecordViolation(current)
		if err := tx.SaveDebt(id, entry); err != nil {
			return err
		}
		h.Streak = streak.Reset(h.Streak)
		return tx.SaveStreak(*h)
	})
	if err != nil {
		return nil, debt.Entry{}, fmt.Errorf("log violation on %s: %w", id, err)
	}

	s.logger.Info("violation logged", "habit_id", id, "debt", entry.Debt)
	return &ev, entry, nil
}

// ConfirmCleanDay credits day against the habit's debt and extends its
// streak. A day that already received credit is reported with
// AlreadyCredited and leaves everything unchanged.
func (s *Service) ConfirmCleanDay(owner, id string, day calendar.Day) (*CleanDayResult, error) {
	if err := s.checkDay(day); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var res CleanDayResult
	err := s.store.Update(func(tx *store.HabitTx) error {
		h, err := loadOwned(tx, owner, id)
		if err != nil {
			return err
		}
		if !h.IsAvoid() {
			return fmt.Errorf("%w: cannot confirm a clean day on a %s habit", ErrInvalidKind, h.Kind)
		}
		if err := checkAlive(h, day); err != nil {
			return err
		}
		current, err := loadDebt(tx, id)
		if err != nil {
			return err
		}

		next, credited := debt.ConfirmCleanDay(current, day)
		if !credited {
			res = CleanDayResult{Debt: current.Debt, AlreadyCredited: true, Streak: h.Streak}
			return nil
		}

		events, err := tx.CountEventsOnDay(id, day, s.cfg.Location)
		if err != nil {
			return err
		}
		if events > 0 {
			return fmt.Errorf("%w: %d on %s", ErrDayNotClean, events, day)
		}

		if err := tx.SaveDebt(id, next); err != nil {
			return err
		}
		h.Streak = streak.Apply(h.Streak, day, true)
		if err := tx.SaveStreak(*h); err != nil {
			return err
		}
		res = CleanDayResult{Debt: next.Debt, Streak: h.Streak}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("confirm clean day %s on %s: %w", day, id, err)
	}

	if res.AlreadyCredited {
		s.logger.Debug("clean day already credited", "habit_id", id, "day", day)
	} else {
		s.logger.Info("clean day confirmed", "habit_id", id, "day", day, "debt", res.Debt, "streak", res.Streak.CurrentLength)
	}
	return &res, nil
}

// CompleteDailyTask records whether the build habit's task was done on day.
// Repeating the stored outcome is a no-op. Outcomes for days before the last
// streak day are stored without touching the streak.
func (s *Service) CompleteDailyTask(owner, id string, day calendar.Day, completed bool) (*model.DailyStatus, error) {
	if err := s.checkDay(day); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var result *model.DailyStatus
	changed := false
	err := s.store.Update(func(tx *store.HabitTx) error {
		h, err := loadOwned(tx, owner, id)
		if err != nil {
			return err
		}
		if !h.IsBuild() {
			return fmt.Errorf("%w: cannot complete a task on a %s habit", ErrInvalidKind, h.Kind)
		}
		if err := checkAlive(h, day); err != nil {
			return err
		}

		existing, err := tx.GetDailyStatus(id, day)
		if err != nil {
			return err
		}
		if existing != nil && existing.Completed == completed {
			result = existing
			return nil
		}

		st, err := s.writeStatus(tx, h, day, completed, false)
		if err != nil {
			return err
		}
		result, changed = st, true

		if !h.Streak.LastDate.IsZero() && day.Before(h.Streak.LastDate) {
			return nil
		}
		h.Streak = streak.Apply(h.Streak, day, completed)
		return tx.SaveStreak(*h)
	})
	if err != nil {
		return nil, fmt.Errorf("complete task %s on %s: %w", day, id, err)
	}

	if changed {
		s.logger.Info("daily task recorded", "habit_id", id, "day", day, "completed", completed, "penalty_level", result.PenaltyLevel)
	}
	return result, nil
}

// writeStatus upserts the status for day with the penalty level that was in
// force on it.
func (s *Service) writeStatus(tx *store.HabitTx, h *model.Habit, day calendar.Day, completed, auto bool) (*model.DailyStatus, error) {
	last, err := tx.LastCompletedBefore(h.ID, day)
	if err != nil {
		return nil, err
	}
	return tx.UpsertDailyStatus(model.DailyStatus{
		HabitID:       h.ID,
		Day:           day,
		Completed:     completed,
		PenaltyLevel:  penalty.Level(h.CreatedOn, day, last),
		AutoProcessed: auto,
		UpdatedAt:     s.cfg.Now().UTC(),
	})
}

// Get returns the habit with its status for today.
func (s *Service) Get(owner, id string) (*WithStatus, error) {
	h, err := s.store.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get habit %s: %w", id, err)
	}
	if h == nil || h.OwnerID != owner {
		return nil, ErrNotFound
	}
	ws, err := s.withStatus(*h, s.Today())
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// List returns every habit of owner with its status for today.
func (s *Service) List(owner string) ([]WithStatus, error) {
	habits, err := s.store.ListByOwner(owner)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	today := s.Today()
	out := make([]WithStatus, 0, len(habits))
	for _, h := range habits {
		ws, err := s.withStatus(h, today)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, nil
}

// History is the raw log behind a habit.
type History struct {
	Statuses []model.DailyStatus `json:"statuses,omitempty"`
	Events   []model.Event       `json:"events,omitempty"`
}

// History returns the daily statuses of a build habit or the events of an
// avoid habit.
func (s *Service) History(owner, id string) (*History, error) {
	h, err := s.store.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get habit %s: %w", id, err)
	}
	if h == nil || h.OwnerID != owner {
		return nil, ErrNotFound
	}

	var hist History
	if h.IsBuild() {
		hist.Statuses, err = s.store.ListDailyStatuses(id)
	} else {
		hist.Events, err = s.store.ListEvents(id)
	}
	if err != nil {
		return nil, fmt.Errorf("habit %s history: %w", id, err)
	}
	return &hist, nil
}

func (s *Service) withStatus(h model.Habit, today calendar.Day) (WithStatus, error) {
	var f Facts
	var err error
	switch h.Kind {
	case model.KindBuild:
		if f.LastCompleted, err = s.store.LastCompletedBefore(h.ID, today); err != nil {
			return WithStatus{}, fmt.Errorf("habit %s last completion: %w", h.ID, err)
		}
		if f.Today, err = s.store.GetDailyStatus(h.ID, today); err != nil {
			return WithStatus{}, fmt.Errorf("habit %s today status: %w", h.ID, err)
		}
	case model.KindAvoid:
		e, err := s.store.GetDebt(h.ID)
		if err != nil {
			return WithStatus{}, fmt.Errorf("habit %s debt: %w", h.ID, err)
		}
		if e != nil {
			f.Debt = *e
		}
		if f.EventCount, err = s.store.CountEventsOnDay(h.ID, today, s.cfg.Location); err != nil {
			return WithStatus{}, fmt.Errorf("habit %s events: %w", h.ID, err)
		}
	}
	return ComputeStatus(h, f, today, s.cfg.Stacking), nil
}

// checkDay rejects missing and future days and, when the window is
// enforced, any day whose window is not open right now.
func (s *Service) checkDay(day calendar.Day) error {
	if day.IsZero() {
		return invalid("day", "is required")
	}
	now := s.cfg.Now()
	if day.After(calendar.FromTime(now, s.cfg.Location)) {
		return invalid("day", "%s is in the future", day)
	}
	if !s.cfg.EnforceWindow {
		return nil
	}
	open, ok := s.cfg.Window.Day(now)
	if !ok {
		return fmt.Errorf("%w: opens in %s", ErrWindowClosed, s.cfg.Window.TimeUntilOpen(now).Round(time.Minute))
	}
	if !open.Equal(day) {
		return fmt.Errorf("%w: only %s can be confirmed now", ErrWindowClosed, open)
	}
	return nil
}

// checkAlive rejects days before the habit was created.
func checkAlive(h *model.Habit, day calendar.Day) error {
	if day.Before(h.CreatedOn) {
		return invalid("day", "%s is before the habit was created (%s)", day, h.CreatedOn)
	}
	return nil
}

func loadOwned(tx *store.HabitTx, owner, id string) (*model.Habit, error) {
	h, err := tx.GetByID(id)
	if err != nil {
		return nil, err
	}
	if h == nil || h.OwnerID != owner {
		return nil, ErrNotFound
	}
	return h, nil
}

func loadDebt(tx *store.HabitTx, id string) (debt.Entry, error) {
	e, err := tx.GetDebt(id)
	if err != nil {
		return debt.Entry{}, err
	}
	if e == nil {
		return debt.Entry{}, nil
	}
	return *e, nil
}
