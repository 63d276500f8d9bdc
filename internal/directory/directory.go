// Package directory mirrors people from the company HR directory into the
// attendance store, so enrollment ids and display names stay aligned with
// the system of record.
package directory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/faceattend/faceattend/internal/database"
	"github.com/faceattend/faceattend/internal/database/mariadb"
)

// PeopleSource lists people from the HR directory.
type PeopleSource interface {
	ListPeople(ctx context.Context) ([]mariadb.Person, error)
}

// Result summarizes one directory sync.
type Result struct {
	Synced     int
	Skipped    int
	Duplicates int
}

// Syncer mirrors HR people into the attendance user store.
type Syncer struct {
	People PeopleSource
	Store  database.UserStore

	// OnPerson, when set, is called once per directory person processed.
	// The CLI uses it to drive a progress bar.
	OnPerson func(person mariadb.Person)
}

// Sync upserts every active HR person as an enrollable user. People with a
// blank name are skipped. People whose names collapse to the same
// normalized form are flagged as likely duplicates but still synced, since
// the HR id stays authoritative.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	people, err := s.People.ListPeople(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list directory people: %w", err)
	}

	var result Result
	seen := make(map[string]int, len(people))
	for _, person := range people {
		if s.OnPerson != nil {
			s.OnPerson(person)
		}

		name, err := database.CleanName(person.FullName)
		if err != nil {
			slog.Warn("skipping directory person with blank name", "id", person.ID)
			result.Skipped++
			continue
		}

		normalized := NormalizeName(name)
		if priorID, ok := seen[normalized]; ok {
			slog.Warn("directory people share a normalized name",
				"name", normalized, "id", person.ID, "prior_id", priorID)
			result.Duplicates++
		}
		seen[normalized] = person.ID

		if err := s.Store.UpsertUser(ctx, person.ID, name); err != nil {
			return result, fmt.Errorf("sync person %d: %w", person.ID, err)
		}
		result.Synced++
	}
	return result, nil
}
