package mariadb

import (
	"context"
	"fmt"
)

// Person is one row of the HR people directory.
type Person struct {
	ID       int
	FullName string
}

// ListPeople returns all active people from the HR directory ordered by id.
// Inactive people are skipped so leavers drop out of recognition on the next
// sync.
func (p *Pool) ListPeople(ctx context.Context) ([]Person, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, full_name
		FROM people
		WHERE active = 1
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		var person Person
		if err := rows.Scan(&person.ID, &person.FullName); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return people, nil
}
