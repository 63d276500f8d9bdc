package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/faceattend/faceattend/internal/database"
)

// AddRequest records a pending enrollment request and returns its id.
func (s *Store) AddRequest(ctx context.Context, name, contact, message string, now time.Time) (int64, error) {
	name, contact, message, err := database.CleanRequest(name, contact, message)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.writes.do(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO enrollment_requests (name, contact, message, timestamp, status)
			 VALUES (?, ?, ?, ?, ?)`,
			name, contact, message, now.Format(database.TimestampLayout), database.RequestPending,
		)
		if err != nil {
			return fmt.Errorf("could not insert enrollment request: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("could not read request id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListRequests returns every enrollment request ordered by id.
func (s *Store) ListRequests(ctx context.Context) ([]database.EnrollmentRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, name, contact, message, timestamp, status
		 FROM enrollment_requests ORDER BY request_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query enrollment requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var requests []database.EnrollmentRequest
	for rows.Next() {
		var r database.EnrollmentRequest
		if err := rows.Scan(&r.ID, &r.Name, &r.Contact, &r.Message, &r.Timestamp, &r.Status); err != nil {
			return nil, fmt.Errorf("could not scan enrollment request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate enrollment requests: %w", err)
	}
	return requests, nil
}

// UpdateRequestStatus sets the status of one request.
func (s *Store) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	status, err := database.CleanStatus(status)
	if err != nil {
		return err
	}

	return s.writes.do(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE enrollment_requests SET status = ? WHERE request_id = ?`,
			status, id,
		)
		if err != nil {
			return fmt.Errorf("could not update request %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("could not read update result: %w", err)
		}
		if affected == 0 {
			return database.ErrRequestNotFound
		}
		return nil
	})
}
