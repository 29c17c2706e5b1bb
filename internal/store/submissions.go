package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CachedSubmission is a read-only reference snapshot of a submission the
// judge is assigned to. Written when fetched online, read when offline,
// never locally mutated - a re-fetch supersedes the row.
type CachedSubmission struct {
	ID         string
	CategoryID string
	TeamName   string
	Title      string
	Status     string
	CachedAt   time.Time
}

// UpsertSubmission inserts or replaces a submission snapshot.
func (st *Store) UpsertSubmission(ctx context.Context, sub *CachedSubmission) error {
	var title any
	if sub.Title != "" {
		title = sub.Title
	}

	_, err := st.conn.ExecContext(ctx, `
		INSERT INTO cached_submissions (id, category_id, team_name, title, status, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			team_name = excluded.team_name,
			title = excluded.title,
			status = excluded.status,
			cached_at = excluded.cached_at`,
		sub.ID, sub.CategoryID, sub.TeamName, title, sub.Status,
		sub.CachedAt.UTC().Format(timeFormat))
	if err != nil {
		return storageErr("upsert submission", err)
	}

	return nil
}

// GetSubmission returns a cached submission by id, or ErrNotFound.
func (st *Store) GetSubmission(ctx context.Context, id string) (*CachedSubmission, error) {
	row := st.conn.QueryRowContext(ctx, `
		SELECT id, category_id, team_name, title, status, cached_at
		FROM cached_submissions WHERE id = ?`, id)

	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get submission", err)
	}

	return sub, nil
}

// SubmissionsByCategory returns cached submissions for one category.
// An empty categoryID returns every cached submission.
func (st *Store) SubmissionsByCategory(ctx context.Context, categoryID string) ([]*CachedSubmission, error) {
	query := `
		SELECT id, category_id, team_name, title, status, cached_at
		FROM cached_submissions`
	var args []any
	if categoryID != "" {
		query += ` WHERE category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY id`

	rows, err := st.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query submissions", err)
	}
	defer rows.Close()

	var subs []*CachedSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, storageErr("scan submission", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate submissions", err)
	}

	return subs, nil
}

// ClearSubmissions empties the submission cache.
func (st *Store) ClearSubmissions(ctx context.Context) error {
	if _, err := st.conn.ExecContext(ctx, `DELETE FROM cached_submissions`); err != nil {
		return storageErr("clear submissions", err)
	}
	return nil
}

func scanSubmission(row rowScanner) (*CachedSubmission, error) {
	var (
		sub      CachedSubmission
		title    sql.NullString
		cachedAt string
	)
	err := row.Scan(&sub.ID, &sub.CategoryID, &sub.TeamName, &title, &sub.Status, &cachedAt)
	if err != nil {
		return nil, err
	}

	sub.Title = title.String
	if t, err := time.Parse(timeFormat, cachedAt); err == nil {
		sub.CachedAt = t
	}

	return &sub, nil
}
