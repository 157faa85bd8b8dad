package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/accountable/internal/calendar"
	"github.com/dukerupert/accountable/internal/debt"
	"github.com/dukerupert/accountable/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// habitQueries holds every habit query so the same methods run against the
// pool and inside a transaction.
type habitQueries struct {
	q querier
}

type HabitStore struct {
	habitQueries
	db *sql.DB
}

func NewHabitStore(db *sql.DB) *HabitStore {
	return &HabitStore{habitQueries: habitQueries{q: db}, db: db}
}

// HabitTx exposes the habit queries bound to one transaction.
type HabitTx struct {
	habitQueries
}

// Update runs fn in a single transaction and commits it if fn returns nil.
// fn must only use tx: the pool may have a single connection.
func (s *HabitStore) Update(fn func(tx *HabitTx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&HabitTx{habitQueries{q: tx}}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- Habit methods ---

func scanHabit(scanner interface{ Scan(...any) error }) (*model.Habit, error) {
	var h model.Habit
	var kind string
	var base sql.NullInt64
	var unit sql.NullString

	err := scanner.Scan(
		&h.ID, &h.OwnerID, &h.Name, &kind, &base, &unit,
		&h.CreatedOn, &h.CreatedAt,
		&h.Streak.CurrentLength, &h.Streak.CurrentStart,
		&h.Streak.LongestLength, &h.Streak.LongestStart, &h.Streak.LongestEnd,
		&h.Streak.LastDate,
	)
	if err != nil {
		return nil, err
	}

	h.Kind = model.Kind(kind)
	if h.Kind == model.KindBuild {
		h.Build = &model.BuildTarget{BaseTaskValue: int(base.Int64), Unit: unit.String}
	}
	return &h, nil
}

const habitCols = `id, owner_id, name, kind, base_task_value, unit, created_on, created_at,
	current_streak, current_streak_start, longest_streak, longest_streak_start, longest_streak_end, last_streak_date`

// Insert stores a new habit. Avoid habits also get their debt row; call
// Insert through Update so both rows commit together.
func (s habitQueries) Insert(h model.Habit) error {
	var base sql.NullInt64
	var unit sql.NullString
	if h.Build != nil {
		base = sql.NullInt64{Int64: int64(h.Build.BaseTaskValue), Valid: true}
		unit = sql.NullString{String: h.Build.Unit, Valid: true}
	}

	_, err := s.q.Exec(
		`INSERT INTO habits (`+habitCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.OwnerID, h.Name, string(h.Kind), base, unit, h.CreatedOn, h.CreatedAt.UTC(),
		h.Streak.CurrentLength, h.Streak.CurrentStart,
		h.Streak.LongestLength, h.Streak.LongestStart, h.Streak.LongestEnd,
		h.Streak.LastDate,
	)
	if err != nil {
		return fmt.Errorf("insert habit: %w", err)
	}

	if h.Kind == model.KindAvoid {
		if _, err := s.q.Exec(`INSERT INTO habit_debts (habit_id, debt_count) VALUES (?, 0)`, h.ID); err != nil {
			return fmt.Errorf("insert debt: %w", err)
		}
	}
	return nil
}

func (s habitQueries) GetByID(id string) (*model.Habit, error) {
	row := s.q.QueryRow(`SELECT `+habitCols+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

func (s habitQueries) ListByOwner(ownerID string) ([]model.Habit, error) {
	rows, err := s.q.Query(
		`SELECT `+habitCols+` FROM habits WHERE owner_id = ? ORDER BY created_at ASC, name ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list habits by owner: %w", err)
	}
	return collectHabits(rows)
}

// List returns every habit of every owner.
func (s habitQueries) List() ([]model.Habit, error) {
	rows, err := s.q.Query(`SELECT ` + habitCols + ` FROM habits ORDER BY created_at ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return collectHabits(rows)
}

func collectHabits(rows *sql.Rows) ([]model.Habit, error) {
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// SaveStreak overwrites the streak columns of a habit.
func (s habitQueries) SaveStreak(h model.Habit) error {
	_, err := s.q.Exec(
		`UPDATE habits SET current_streak = ?, current_streak_start = ?, longest_streak = ?,
			longest_streak_start = ?, longest_streak_end = ?, last_streak_date = ?
		WHERE id = ?`,
		h.Streak.CurrentLength, h.Streak.CurrentStart, h.Streak.LongestLength,
		h.Streak.LongestStart, h.Streak.LongestEnd, h.Streak.LastDate,
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

// Delete removes a habit after its statuses, events and debt row.
func (s habitQueries) Delete(id string) error {
	for _, stmt := range []struct{ query, what string }{
		{`DELETE FROM daily_habit_status WHERE habit_id = ?`, "daily statuses"},
		{`DELETE FROM habit_events WHERE habit_id = ?`, "events"},
		{`DELETE FROM habit_debts WHERE habit_id = ?`, "debt"},
		{`DELETE FROM habits WHERE id = ?`, "habit"},
	} {
		if _, err := s.q.Exec(stmt.query, id); err != nil {
			return fmt.Errorf("delete %s: %w", stmt.what, err)
		}
	}
	return nil
}

// --- Debt methods ---

// GetDebt returns the ledger row of an avoid habit, or nil if none exists.
func (s habitQueries) GetDebt(habitID string) (*debt.Entry, error) {
	var e debt.Entry
	err := s.q.QueryRow(
		`SELECT debt_count, last_clean_day FROM habit_debts WHERE habit_id = ?`, habitID,
	).Scan(&e.Debt, &e.LastCleanDay)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get debt: %w", err)
	}
	return &e, nil
}

// SaveDebt upserts the ledger row of an avoid habit.
func (s habitQueries) SaveDebt(habitID string, e debt.Entry) error {
	_, err := s.q.Exec(
		`INSERT INTO habit_debts (habit_id, debt_count, last_clean_day) VALUES (?, ?, ?)
		ON CONFLICT (habit_id) DO UPDATE SET debt_count = excluded.debt_count, last_clean_day = excluded.last_clean_day`,
		habitID, e.Debt, e.LastCleanDay,
	)
	if err != nil {
		return fmt.Errorf("save debt: %w", err)
	}
	return nil
}

// --- Event methods ---

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	err := scanner.Scan(&e.ID, &e.HabitID, &e.OccurredAt, &e.Value, &e.Notes)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const eventCols = `id, habit_id, occurred_at, value, notes`

func (s habitQueries) InsertEvent(e model.Event) error {
	_, err := s.q.Exec(
		`INSERT INTO habit_events (`+eventCols+`) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.HabitID, e.OccurredAt.UTC(), e.Value, e.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s habitQueries) ListEvents(habitID string) ([]model.Event, error) {
	rows, err := s.q.Query(
		`SELECT `+eventCols+` FROM habit_events WHERE habit_id = ? ORDER BY occurred_at DESC`,
		habitID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CountEventsBetween counts the events of a habit in [start, end).
func (s habitQueries) CountEventsBetween(habitID string, start, end time.Time) (int, error) {
	var n int
	err := s.q.QueryRow(
		`SELECT COUNT(*) FROM habit_events WHERE habit_id = ? AND occurred_at >= ? AND occurred_at < ?`,
		habitID, start.UTC(), end.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// CountEventsOnDay counts the events that fall on day as observed in loc.
func (s habitQueries) CountEventsOnDay(habitID string, day calendar.Day, loc *time.Location) (int, error) {
	return s.CountEventsBetween(habitID, day.Start(loc), day.End(loc))
}

// --- Daily status methods ---

func scanDailyStatus(scanner interface{ Scan(...any) error }) (*model.DailyStatus, error) {
	var st model.DailyStatus
	var completed, auto int

	err := scanner.Scan(&st.HabitID, &st.Day, &completed, &st.PenaltyLevel, &auto, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}

	st.Completed = completed != 0
	st.AutoProcessed = auto != 0
	return &st, nil
}

const dailyStatusCols = `habit_id, day, completed, penalty_level, auto_processed, updated_at`

func (s habitQueries) GetDailyStatus(habitID string, day calendar.Day) (*model.DailyStatus, error) {
	row := s.q.QueryRow(
		`SELECT `+dailyStatusCols+` FROM daily_habit_status WHERE habit_id = ? AND day = ?`,
		habitID, day,
	)
	st, err := scanDailyStatus(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily status: %w", err)
	}
	return st, nil
}

// UpsertDailyStatus writes the one status row for (habit, day), replacing any
// earlier row for the same day.
func (s habitQueries) UpsertDailyStatus(st model.DailyStatus) (*model.DailyStatus, error) {
	var completed, auto int
	if st.Completed {
		completed = 1
	}
	if st.AutoProcessed {
		auto = 1
	}

	_, err := s.q.Exec(
		`INSERT INTO daily_habit_status (habit_id, day, completed, penalty_level, auto_processed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			completed = excluded.completed,
			penalty_level = excluded.penalty_level,
			auto_processed = excluded.auto_processed,
			updated_at = excluded.updated_at`,
		st.HabitID, st.Day, completed, st.PenaltyLevel, auto, st.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert daily status: %w", err)
	}
	return s.GetDailyStatus(st.HabitID, st.Day)
}

// LastCompletedBefore returns the most recent completed day strictly before
// day, or the zero Day if there is none.
func (s habitQueries) LastCompletedBefore(habitID string, day calendar.Day) (calendar.Day, error) {
	var last calendar.Day
	err := s.q.QueryRow(
		`SELECT day FROM daily_habit_status
		WHERE habit_id = ? AND completed = 1 AND day < ?
		ORDER BY day DESC LIMIT 1`,
		habitID, day,
	).Scan(&last)
	if err == sql.ErrNoRows {
		return calendar.Day{}, nil
	}
	if err != nil {
		return calendar.Day{}, fmt.Errorf("last completed: %w", err)
	}
	return last, nil
}

// ListDailyStatuses returns the statuses of a habit, newest first.
func (s habitQueries) ListDailyStatuses(habitID string) ([]model.DailyStatus, error) {
	rows, err := s.q.Query(
		`SELECT `+dailyStatusCols+` FROM daily_habit_status WHERE habit_id = ? ORDER BY day DESC`,
		habitID,
	)
	if err != nil {
		return nil, fmt.Errorf("list daily statuses: %w", err)
	}
	defer rows.Close()

	var statuses []model.DailyStatus
	for rows.Next() {
		st, err := scanDailyStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily status: %w", err)
		}
		statuses = append(statuses, *st)
	}
	return statuses, rows.Err()
}
