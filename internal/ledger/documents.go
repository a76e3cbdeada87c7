package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DocumentState is an operator's completion mark for a document.
type DocumentState struct {
	Name      string
	Done      bool
	DoneAt    time.Time
	Note      string
	UpdatedAt time.Time
}

// MarkDone flags document as finished.
func (s *Store) MarkDone(ctx context.Context, document, note string) error {
	now := s.timestamp()
	_, err := s.exec(ctx,
		`INSERT INTO documents (name, done, done_at, note, updated_at) VALUES (?, 1, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET done = 1, done_at = excluded.done_at, note = excluded.note, updated_at = excluded.updated_at`,
		document, now, nullableString(note), now,
	)
	if err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	return nil
}

// MarkUndone clears the completion flag.
func (s *Store) MarkUndone(ctx context.Context, document string) error {
	now := s.timestamp()
	_, err := s.exec(ctx,
		`INSERT INTO documents (name, done, updated_at) VALUES (?, 0, ?)
         ON CONFLICT(name) DO UPDATE SET done = 0, done_at = NULL, updated_at = excluded.updated_at`,
		document, now,
	)
	if err != nil {
		return fmt.Errorf("mark undone: %w", err)
	}
	return nil
}

// Document returns the stored state; unknown documents report not done.
func (s *Store) Document(ctx context.Context, document string) (DocumentState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, done, done_at, note, updated_at FROM documents WHERE name = ?`, document)
	state, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DocumentState{Name: document}, nil
	}
	if err != nil {
		return DocumentState{}, fmt.Errorf("get document: %w", err)
	}
	return state, nil
}

// IsDone reports whether document is marked done.
func (s *Store) IsDone(ctx context.Context, document string) (bool, error) {
	state, err := s.Document(ctx, document)
	if err != nil {
		return false, err
	}
	return state.Done, nil
}

// DoneDocuments lists documents marked done, by name.
func (s *Store) DoneDocuments(ctx context.Context) ([]DocumentState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, done, done_at, note, updated_at FROM documents WHERE done = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list done documents: %w", err)
	}
	defer rows.Close()
	var out []DocumentState
	for rows.Next() {
		state, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, state)
	}
	return out, rows.Err()
}

func scanDocument(scanner interface{ Scan(dest ...any) error }) (DocumentState, error) {
	var (
		state   DocumentState
		done    int
		doneAt  sql.NullString
		note    sql.NullString
		updated sql.NullString
	)
	if err := scanner.Scan(&state.Name, &done, &doneAt, &note, &updated); err != nil {
		return DocumentState{}, err
	}
	state.Done = done != 0
	state.DoneAt = parseTime(doneAt)
	state.Note = note.String
	state.UpdatedAt = parseTime(updated)
	return state, nil
}
