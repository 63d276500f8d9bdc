package postgres

import (
	"context"
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
	err = s.pool.QueryRow(ctx, `
		INSERT INTO enrollment_requests (name, contact, message, timestamp, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING request_id
	`, name, contact, message, now.Format(database.TimestampLayout), database.RequestPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert enrollment request: %w", err)
	}
	return id, nil
}

// ListRequests returns every enrollment request ordered by id.
func (s *Store) ListRequests(ctx context.Context) ([]database.EnrollmentRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT request_id, name, contact, message, timestamp, status
		FROM enrollment_requests ORDER BY request_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query enrollment requests: %w", err)
	}
	defer rows.Close()

	var requests []database.EnrollmentRequest
	for rows.Next() {
		var r database.EnrollmentRequest
		if err := rows.Scan(&r.ID, &r.Name, &r.Contact, &r.Message, &r.Timestamp, &r.Status); err != nil {
			return nil, fmt.Errorf("scan enrollment request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollment requests: %w", err)
	}
	return requests, nil
}

// UpdateRequestStatus sets the status of one request.
func (s *Store) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	status, err := database.CleanStatus(status)
	if err != nil {
		return err
	}

	res, err := s.pool.Exec(ctx, "UPDATE enrollment_requests SET status = $1 WHERE request_id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update request %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read update result: %w", err)
	}
	if affected == 0 {
		return database.ErrRequestNotFound
	}
	return nil
}
