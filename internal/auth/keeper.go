// Package auth holds the judge's session credential on the device.
//
// The keeper is only a token holder: it persists the bearer token in
// the app_state collection so the session survives restarts, and hands
// the current token to the dispatcher on demand. It never refreshes or
// validates tokens - the scoring service owns session lifetimes.
//
// Login happens over a direct HTTP call, outside the dispatcher's
// send-or-enqueue path: deferring a login makes no sense, so it fails
// immediately when the server is unreachable.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/scorepadhq/scorepad/internal/store"
)

// Keeper stores and serves the session token. Implements
// api.CredentialProvider. Safe for concurrent use.
type Keeper struct {
	store *store.Store

	mu    sync.RWMutex
	token string
}

// NewKeeper creates a Keeper, loading any persisted token so a judge
// stays logged in across restarts.
func NewKeeper(st *store.Store) (*Keeper, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	k := &Keeper{store: st}

	token, err := st.GetState(context.Background(), store.StateKeyToken)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load session token: %w", err)
	}
	k.token = token

	return k, nil
}

// Token returns the current bearer token, or "" when logged out.
func (k *Keeper) Token() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.token
}

// LoggedIn reports whether a token is set.
func (k *Keeper) LoggedIn() bool {
	return k.Token() != ""
}

// SetToken persists a new session token.
func (k *Keeper) SetToken(ctx context.Context, token string) error {
	if err := k.store.SetState(ctx, store.StateKeyToken, token); err != nil {
		return fmt.Errorf("failed to persist session token: %w", err)
	}

	k.mu.Lock()
	k.token = token
	k.mu.Unlock()
	return nil
}

// Clear drops the session token. Part of logout.
func (k *Keeper) Clear(ctx context.Context) error {
	if err := k.store.DeleteState(ctx, store.StateKeyToken); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}

	k.mu.Lock()
	k.token = ""
	k.mu.Unlock()
	return nil
}

// SessionClaims is the informational content of the session token.
type SessionClaims struct {
	// Judge is the subject (judge id).
	Judge string

	// SeatID is the judging seat this session is bound to.
	SeatID string

	// ExpiresAt is the token expiry, zero if absent.
	ExpiresAt time.Time
}

// sessionClaims is the wire shape of the token's claim set.
type sessionClaims struct {
	SeatID string `json:"seat_id"`
	jwt.RegisteredClaims
}

// Claims parses the current token without verifying its signature.
// Verification belongs to the server; the device only displays who is
// logged in and until when.
func (k *Keeper) Claims() (*SessionClaims, error) {
	token := k.Token()
	if token == "" {
		return nil, fmt.Errorf("not logged in")
	}

	var claims sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	out := &SessionClaims{
		Judge:  claims.Subject,
		SeatID: claims.SeatID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}

// loginResponse accepts both the enveloped and bare response shapes.
type loginResponse struct {
	Data *struct {
		Token string `json:"token"`
	} `json:"data"`
	Token string `json:"token"`
}

// Login exchanges credentials for a session token and stores it.
func (k *Keeper) Login(ctx context.Context, httpClient *http.Client, baseURL, username, password string) error {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + "/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Message string `json:"message"`
		}
		if jerr := json.Unmarshal(respBody, &envelope); jerr == nil && envelope.Message != "" {
			return fmt.Errorf("login rejected: %s", envelope.Message)
		}
		return fmt.Errorf("login rejected: HTTP %d", resp.StatusCode)
	}

	var parsed loginResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}

	token := parsed.Token
	if parsed.Data != nil && parsed.Data.Token != "" {
		token = parsed.Data.Token
	}
	if token == "" {
		return fmt.Errorf("login response contained no token")
	}

	return k.SetToken(ctx, token)
}
