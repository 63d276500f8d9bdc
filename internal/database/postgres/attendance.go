package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/faceattend/faceattend/internal/database"
)

// attendanceLockClass namespaces this application's advisory locks so they
// cannot collide with other software sharing the database.
const attendanceLockClass = 3205

// LogAttendance serializes the check-then-insert per identity with a
// transaction-scoped advisory lock keyed by user id. Two kiosks logging the
// same person at the same moment queue on the lock; the loser re-reads the
// winner's event and gets suppressed. The UNIQUE (user_id, ts) constraint
// stays as the last-resort guard.
func (s *Store) LogAttendance(ctx context.Context, userID int, name string, now time.Time, policy database.LogPolicy) (database.LogResult, error) {
	result := database.LogResult{TimeOfDay: now.Format(database.TimeLayout)}

	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return database.LogResult{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1, $2)", attendanceLockClass, userID); err != nil {
		return database.LogResult{}, fmt.Errorf("acquire attendance lock: %w", err)
	}

	prior, err := scanEvent(tx.QueryRowContext(ctx, `
		SELECT id, user_id, name, ts, date, time FROM attendance
		WHERE user_id = $1 ORDER BY ts DESC, id DESC LIMIT 1
	`, userID))
	if err != nil {
		return database.LogResult{}, err
	}

	allow, corrupt := database.ShouldLog(prior, now, policy)
	if corrupt {
		slog.Warn("unparsable prior attendance timestamp, minutes rule skipped",
			"user_id", userID, "ts", prior.TS)
	}
	if !allow {
		return result, tx.Commit()
	}

	event := database.NewEvent(userID, name, now)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO attendance (user_id, name, ts, date, time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, ts) DO NOTHING
	`, event.UserID, event.Name, event.TS, event.Date, event.Time)
	if err != nil {
		return database.LogResult{}, fmt.Errorf("insert attendance event: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return database.LogResult{}, fmt.Errorf("read insert result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return database.LogResult{}, fmt.Errorf("commit attendance event: %w", err)
	}

	result.Logged = inserted > 0
	return result, nil
}

// ImportEvent inserts a historical event verbatim. No advisory lock is taken;
// the migration runs alone and the unique constraint absorbs duplicates.
func (s *Store) ImportEvent(ctx context.Context, event database.AttendanceEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attendance (user_id, name, ts, date, time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, ts) DO NOTHING
	`, event.UserID, event.Name, event.TS, event.Date, event.Time)
	if err != nil {
		return fmt.Errorf("import attendance event: %w", err)
	}
	return nil
}

// LastEvent returns the most recent event for the user, or nil.
func (s *Store) LastEvent(ctx context.Context, userID int) (*database.AttendanceEvent, error) {
	return scanEvent(s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, ts, date, time FROM attendance
		WHERE user_id = $1 ORDER BY ts DESC, id DESC LIMIT 1
	`, userID))
}

// EventsSince returns all events at or after start, oldest first.
func (s *Store) EventsSince(ctx context.Context, start time.Time) ([]database.AttendanceEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, ts, date, time FROM attendance
		WHERE ts >= $1 ORDER BY ts ASC, id ASC
	`, start.Format(database.TimestampLayout))
	if err != nil {
		return nil, fmt.Errorf("query attendance events: %w", err)
	}
	defer rows.Close()

	var events []database.AttendanceEvent
	for rows.Next() {
		var e database.AttendanceEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.TS, &e.Date, &e.Time); err != nil {
			return nil, fmt.Errorf("scan attendance event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance events: %w", err)
	}
	return events, nil
}

func scanEvent(row *sql.Row) (*database.AttendanceEvent, error) {
	var e database.AttendanceEvent
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.TS, &e.Date, &e.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan attendance event: %w", err)
	}
	return &e, nil
}
