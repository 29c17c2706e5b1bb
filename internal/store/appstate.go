package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Well-known app_state keys.
const (
	// StateKeyToken holds the bearer token for the current session.
	StateKeyToken = "auth.token"

	// StateKeySeat holds the judge's seat id for this device.
	StateKeySeat = "judge.seat"
)

// SetState stores a keyed value, overwriting any previous value.
func (st *Store) SetState(ctx context.Context, key, value string) error {
	_, err := st.conn.ExecContext(ctx, `
		INSERT INTO app_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return storageErr("set state", err)
	}
	return nil
}

// GetState returns a stored value, or ErrNotFound.
func (st *Store) GetState(ctx context.Context, key string) (string, error) {
	var value string
	err := st.conn.QueryRowContext(ctx, `
		SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", storageErr("get state", err)
	}
	return value, nil
}

// DeleteState removes a stored value. No-op if absent.
func (st *Store) DeleteState(ctx context.Context, key string) error {
	if _, err := st.conn.ExecContext(ctx, `DELETE FROM app_state WHERE key = ?`, key); err != nil {
		return storageErr("delete state", err)
	}
	return nil
}

// ClearState empties the app_state collection. Used on logout.
func (st *Store) ClearState(ctx context.Context) error {
	if _, err := st.conn.ExecContext(ctx, `DELETE FROM app_state`); err != nil {
		return storageErr("clear state", err)
	}
	return nil
}
