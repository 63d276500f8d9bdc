package postgres

import (
	"context"
	"fmt"

	"github.com/faceattend/faceattend/internal/database"
)

// UpsertUser creates the user or renames an existing one.
func (s *Store) UpsertUser(ctx context.Context, id int, name string) error {
	name, err := database.CleanName(name)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, id, name)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", id, err)
	}
	return nil
}

// DeleteUser removes the user from recognition. The template row goes with it
// via the foreign key; attendance history stays.
func (s *Store) DeleteUser(ctx context.Context, id int) error {
	res, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read delete result: %w", err)
	}
	if affected == 0 {
		return database.ErrUserNotFound
	}
	return nil
}

// ListUsers returns every enrolled user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]database.User, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []database.User
	for rows.Next() {
		var u database.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
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
