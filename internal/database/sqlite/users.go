package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/faceattend/faceattend/internal/database"
)

// UpsertUser creates the user or renames an existing one.
func (s *Store) UpsertUser(ctx context.Context, id int, name string) error {
	name, err := database.CleanName(name)
	if err != nil {
		return err
	}

	return s.writes.do(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO users (id, name) VALUES (?, ?)
			 ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
			id, name,
		)
		if err != nil {
			return fmt.Errorf("could not upsert user %d: %w", id, err)
		}
		return nil
	})
}

// DeleteUser removes the user from recognition. Attendance history keeps the
// rows already written under this id.
func (s *Store) DeleteUser(ctx context.Context, id int) error {
	return s.writes.do(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("could not delete user %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("could not read delete result: %w", err)
		}
		if affected == 0 {
			return database.ErrUserNotFound
		}
		return nil
	})
}

// ListUsers returns every enrolled user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]database.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("could not query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []database.User
	for rows.Next() {
		var u database.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("could not scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate users: %w", err)
	}
	return users, nil
}

// UserMap returns id -> name for every enrolled user.
func (s *Store) UserMap(ctx context.Context) (map[int]string, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[int]string, len(users))
	for _, u := range users {
		m[u.ID] = u.Name
	}
	return m, nil
}
