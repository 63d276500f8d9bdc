package sqlite

import (
	"context"
	"database/sql"
)

// txFunc runs inside a write transaction owned by the worker. It receives no
// context on purpose: once a write has started it runs to completion (commit
// or full rollback) regardless of what happens to the submitter. Session
// cancellation stops the frame loop, never an in-flight ledger write.
type txFunc func(tx *sql.Tx) error

type writeJob struct {
	fn     txFunc
	result chan error
}

// writer serializes all mutations on one goroutine. Each job gets its own
// transaction: commit on success, rollback on error. Because there is only
// one writer, a ledger check-then-insert can never interleave with another
// write for the same (or any) identity.
type writer struct {
	db   *sql.DB
	jobs chan writeJob
	done chan struct{}
}

func newWriter(db *sql.DB) *writer {
	w := &writer{
		db:   db,
		jobs: make(chan writeJob, 64),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) close() {
	close(w.jobs)
	<-w.done
}

// do submits fn and waits for its result. If the caller's context expires
// while the job is queued or running, do returns early; the job itself still
// runs to completion, its result landing in the buffered channel unobserved.
func (w *writer) do(ctx context.Context, fn txFunc) error {
	job := writeJob{fn: fn, result: make(chan error, 1)}

	select {
	case w.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writer) run() {
	defer close(w.done)

	for job := range w.jobs {
		tx, err := w.db.Begin()
		if err != nil {
			job.result <- err
			continue
		}

		if err := job.fn(tx); err != nil {
			_ = tx.Rollback()
			job.result <- err
			continue
		}

		job.result <- tx.Commit()
	}
}
