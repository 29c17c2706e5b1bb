// Package api is the single choke point for every call to the remote
// scoring service.
//
// Reads fail fast while offline. Mutations are never lost to a network
// blip: if the connectivity signal is down, or the call dies at the
// transport layer, the dispatcher converts the write into a durable
// offline-queue entry and reports it as queued. An HTTP rejection is
// surfaced as-is and never queued - the server saw the request and said
// no.
//
// Delivery is at-least-once: an applied write whose acknowledgement was
// lost will be resent by the drain. Idempotency is pushed to the domain
// layer (scores upsert by identity); callers with non-idempotent
// operations must carry their own idempotency key in the payload.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scorepadhq/scorepad/internal/store"
)

// CredentialProvider supplies the bearer token attached to every
// outbound call. The dispatcher never refreshes or validates tokens.
type CredentialProvider interface {
	// Token returns the current bearer token, or "" when logged out.
	Token() string
}

// OnlineSignal reports the host platform's current connectivity state.
// Satisfied by *connectivity.Monitor.
type OnlineSignal interface {
	Online() bool
}

// Outcome is the result of a mutating call.
type Outcome struct {
	// Data is the unwrapped response body. Set only on delivered success.
	Data json.RawMessage

	// Queued is true when the write was stored in the offline queue
	// instead of (or after failing) delivery.
	Queued bool

	// QueueID identifies the queue entry when Queued is true.
	QueueID string
}

// Client dispatches requests to the scoring service.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialProvider
	signal  OnlineSignal
	store   *store.Store
	logger  *log.Logger
}

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the scoring service root, e.g. "https://api.example.org/v1".
	BaseURL string

	// HTTPClient is the underlying transport. Defaults to a client with
	// no extra timeout: a hang is treated as an eventual network failure
	// once the transport gives up.
	HTTPClient *http.Client

	// Credentials supplies the bearer token.
	Credentials CredentialProvider

	// Signal is the host connectivity signal.
	Signal OnlineSignal

	// Store receives queued writes.
	Store *store.Store

	// Logger for dispatch activity (default: stderr logger).
	Logger *log.Logger
}

// NewClient creates a dispatcher.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if cfg.Signal == nil {
		return nil, fmt.Errorf("online signal cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[api] ", log.LstdFlags)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		creds:   cfg.Credentials,
		signal:  cfg.Signal,
		store:   cfg.Store,
		logger:  cfg.Logger,
	}, nil
}

// Get issues a read call and returns the unwrapped body.
//
// Offline returns ErrOffline with no side effect. A served error status
// returns *HTTPError; a transport death returns *NetworkError. Reads
// are never queued.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if !c.signal.Online() {
		return nil, ErrOffline
	}
	return c.send(ctx, http.MethodGet, path, nil)
}

// GetInto issues a read call and decodes the unwrapped body into out.
func (c *Client) GetInto(ctx context.Context, path string, out any) error {
	data, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// Create issues a POST mutation.
func (c *Client) Create(ctx context.Context, path string, payload any) (*Outcome, error) {
	return c.Do(ctx, http.MethodPost, path, payload)
}

// Update issues a PUT mutation.
func (c *Client) Update(ctx context.Context, path string, payload any) (*Outcome, error) {
	return c.Do(ctx, http.MethodPut, path, payload)
}

// Patch issues a PATCH mutation.
func (c *Client) Patch(ctx context.Context, path string, payload any) (*Outcome, error) {
	return c.Do(ctx, http.MethodPatch, path, payload)
}

// Delete issues a DELETE mutation. No payload.
func (c *Client) Delete(ctx context.Context, path string) (*Outcome, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do issues a mutating call with send-or-enqueue semantics.
//
// Offline: the write is queued before any network attempt.
// Online + delivered: the unwrapped body is returned.
// Online + HTTP rejection: *HTTPError, never queued.
// Online + network failure: the write is queued, exactly as in the
// offline branch - a blip during submission must not lose the write.
//
// A *store.StorageError from the enqueue path is fatal to the write
// attempt and is returned instead of a queued outcome.
func (c *Client) Do(ctx context.Context, method, path string, payload any) (*Outcome, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload for %s %s: %w", method, path, err)
		}
	}

	if !c.signal.Online() {
		return c.enqueue(ctx, method, path, body)
	}

	data, err := c.send(ctx, method, path, body)
	if err != nil {
		var nerr *NetworkError
		if errors.As(err, &nerr) {
			c.logger.Printf("%s %s failed at transport (%v), queueing", method, path, nerr.Err)
			return c.enqueue(ctx, method, path, body)
		}
		return nil, err
	}

	return &Outcome{Data: data}, nil
}

// Deliver replays a stored queue entry over the same transport. Used by
// the sync drain; never enqueues.
func (c *Client) Deliver(ctx context.Context, req *store.QueuedRequest) error {
	_, err := c.send(ctx, req.Method, req.Target, req.Payload)
	return err
}

// enqueue durably stores a deferred mutation and reports it as queued.
func (c *Client) enqueue(ctx context.Context, method, path string, body []byte) (*Outcome, error) {
	req := &store.QueuedRequest{
		ID:         uuid.NewString(),
		Method:     method,
		Target:     path,
		Payload:    body,
		EnqueuedAt: time.Now(),
	}

	if err := c.store.Enqueue(ctx, req); err != nil {
		// Failing to enqueue means the write is lost; never report it
		// as queued.
		return nil, fmt.Errorf("failed to queue %s %s: %w", method, path, err)
	}

	c.logger.Printf("Queued %s %s as %s", method, path, req.ID)
	return &Outcome{Queued: true, QueueID: req.ID}, nil
}

// send performs one HTTP exchange and classifies the result.
func (c *Client) send(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, respBody),
		}
	}

	return unwrapEnvelope(respBody), nil
}
