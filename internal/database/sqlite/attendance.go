package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/faceattend/faceattend/internal/database"
)

// LogAttendance runs the check-then-insert sequence as one job on the write
// worker, so no other write can slip between reading the prior event and
// inserting the new one. The UNIQUE (user_id, ts) constraint is a last-resort
// guard; with the worker serializing writes it should never fire.
func (s *Store) LogAttendance(ctx context.Context, userID int, name string, now time.Time, policy database.LogPolicy) (database.LogResult, error) {
	result := database.LogResult{TimeOfDay: now.Format(database.TimeLayout)}

	err := s.writes.do(ctx, func(tx *sql.Tx) error {
		prior, err := lastEventTx(tx, userID)
		if err != nil {
			return err
		}

		allow, corrupt := database.ShouldLog(prior, now, policy)
		if corrupt {
			slog.Warn("unparsable prior attendance timestamp, minutes rule skipped",
				"user_id", userID, "ts", prior.TS)
		}
		if !allow {
			return nil
		}

		event := database.NewEvent(userID, name, now)
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO attendance (user_id, name, ts, date, time)
			 VALUES (?, ?, ?, ?, ?)`,
			event.UserID, event.Name, event.TS, event.Date, event.Time,
		)
		if err != nil {
			return fmt.Errorf("could not insert attendance event: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("could not read insert result: %w", err)
		}
		result.Logged = inserted > 0
		return nil
	})
	if err != nil {
		return database.LogResult{}, err
	}
	return result, nil
}

// ImportEvent inserts a historical event verbatim. Timestamps come from the
// legacy CSV as-is; duplicates on (user_id, ts) are ignored.
func (s *Store) ImportEvent(ctx context.Context, event database.AttendanceEvent) error {
	return s.writes.do(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO attendance (user_id, name, ts, date, time)
			 VALUES (?, ?, ?, ?, ?)`,
			event.UserID, event.Name, event.TS, event.Date, event.Time,
		)
		if err != nil {
			return fmt.Errorf("could not import attendance event: %w", err)
		}
		return nil
	})
}

// LastEvent returns the most recent event for the user, or nil when the user
// has never been logged.
func (s *Store) LastEvent(ctx context.Context, userID int) (*database.AttendanceEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, ts, date, time FROM attendance
		 WHERE user_id = ? ORDER BY ts DESC, id DESC LIMIT 1`,
		userID,
	)
	return scanEvent(row)
}

// EventsSince returns all events at or after start, oldest first.
func (s *Store) EventsSince(ctx context.Context, start time.Time) ([]database.AttendanceEvent, error) {
	// Timestamps are stored in a fixed layout, so text comparison orders
	// them chronologically.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, ts, date, time FROM attendance
		 WHERE ts >= ? ORDER BY ts ASC, id ASC`,
		start.Format(database.TimestampLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("could not query attendance events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []database.AttendanceEvent
	for rows.Next() {
		var e database.AttendanceEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.TS, &e.Date, &e.Time); err != nil {
			return nil, fmt.Errorf("could not scan attendance event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate attendance events: %w", err)
	}
	return events, nil
}

func lastEventTx(tx *sql.Tx, userID int) (*database.AttendanceEvent, error) {
	row := tx.QueryRow(
		`SELECT id, user_id, name, ts, date, time FROM attendance
		 WHERE user_id = ? ORDER BY ts DESC, id DESC LIMIT 1`,
		userID,
	)
	return scanEvent(row)
}

func scanEvent(row *sql.Row) (*database.AttendanceEvent, error) {
	var e database.AttendanceEvent
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.TS, &e.Date, &e.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not scan attendance event: %w", err)
	}
	return &e, nil
}
