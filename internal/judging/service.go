// Package judging keeps the scoring UI fully usable offline.
//
// Every score a judge records is shadowed in the local cache before the
// network is attempted, so the UI reflects the judge's own writes
// immediately and a pending badge can be shown without waiting on the
// server. Assigned submissions are cached on fetch for offline display.
package judging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scorepadhq/scorepad/internal/api"
	"github.com/scorepadhq/scorepad/internal/store"
)

// Resource paths on the scoring service.
const (
	scoresPath      = "/scores"
	submissionsPath = "/judges/me/submissions"
)

// ScoreInput is one scoring decision as entered by the judge.
type ScoreInput struct {
	SubmissionID string  `json:"submission_id" validate:"required"`
	CriterionID  string  `json:"criterion_id" validate:"required"`
	SeatID       string  `json:"seat_id" validate:"required"`
	Phase        string  `json:"phase" validate:"required"`
	Value        float64 `json:"value" validate:"gte=0,lte=10"`
	Comment      string  `json:"comment,omitempty" validate:"max=500"`
}

// ScoreReceipt tells the UI what happened to a recorded score. The
// score is always cached locally first; Status says how far it got.
type ScoreReceipt struct {
	// Key is the deterministic composite identity.
	Key string

	// Status is the cached row's sync status after the attempt:
	// synced (confirmed), pending (queued for a later drain), or
	// failed (server rejected it).
	Status store.SyncStatus

	// Queued and QueueID are set when the write sits in the offline
	// queue.
	Queued  bool
	QueueID string

	// Message carries the server's rejection message when Status is
	// failed.
	Message string
}

// Service mediates between the scoring UI, the local cache, and the
// dispatcher.
type Service struct {
	store    *store.Store
	client   *api.Client
	validate *validator.Validate
	logger   *log.Logger
}

// NewService creates a judging service. If logger is nil, a default
// stderr logger is used.
func NewService(st *store.Store, client *api.Client, logger *log.Logger) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[judging] ", log.LstdFlags)
	}

	return &Service{
		store:    st,
		client:   client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}, nil
}

// RecordScore caches the score as pending, then attempts delivery.
//
// The cache upsert happens before any network attempt, so the judge's
// own write is visible immediately regardless of connectivity. The
// receipt reports confirmed/queued/rejected; a returned error means
// validation or storage failed and nothing was recorded.
func (s *Service) RecordScore(ctx context.Context, input ScoreInput) (*ScoreReceipt, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid score: %w", err)
	}

	score := &store.CachedScore{
		SubmissionID: input.SubmissionID,
		CriterionID:  input.CriterionID,
		SeatID:       input.SeatID,
		Phase:        input.Phase,
		ScoreValue:   input.Value,
		Comment:      input.Comment,
		SyncStatus:   store.SyncPending,
		UpdatedAt:    time.Now(),
	}
	if err := s.store.UpsertScore(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to cache score: %w", err)
	}

	receipt := &ScoreReceipt{Key: score.Key(), Status: store.SyncPending}

	outcome, err := s.client.Create(ctx, scoresPath, input)
	if err != nil {
		var herr *api.HTTPError
		if errors.As(err, &herr) {
			// Rejection is not a delivery problem; surface it, don't queue.
			if merr := s.store.MarkScoreStatus(ctx, input.SubmissionID, input.CriterionID, input.SeatID, store.SyncFailed); merr != nil {
				s.logger.Printf("WARNING: failed to mark score failed: %v", merr)
			}
			receipt.Status = store.SyncFailed
			receipt.Message = herr.Message
			return receipt, nil
		}
		// Storage failure on the enqueue path: the write was lost.
		return nil, err
	}

	if outcome.Queued {
		receipt.Queued = true
		receipt.QueueID = outcome.QueueID
		return receipt, nil
	}

	if err := s.store.MarkScoreStatus(ctx, input.SubmissionID, input.CriterionID, input.SeatID, store.SyncSynced); err != nil {
		s.logger.Printf("WARNING: failed to mark score synced: %v", err)
	}
	receipt.Status = store.SyncSynced
	return receipt, nil
}

// PendingScores returns the judge's not-yet-confirmed scores.
func (s *Service) PendingScores(ctx context.Context) ([]*store.CachedScore, error) {
	return s.store.ScoresByStatus(ctx, store.SyncPending)
}

// PendingCount backs the UI badge.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.store.PendingScoreCount(ctx)
}

// submissionDTO is the scoring service's wire shape for a submission.
type submissionDTO struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	TeamName   string `json:"team_name"`
	Title      string `json:"title"`
	Status     string `json:"status"`
}

// PullSubmissions fetches the judge's assigned submissions and caches
// them for offline display. Offline returns api.ErrOffline; the caller
// falls back to ListSubmissions.
func (s *Service) PullSubmissions(ctx context.Context) ([]*store.CachedSubmission, error) {
	var dtos []submissionDTO
	if err := s.client.GetInto(ctx, submissionsPath, &dtos); err != nil {
		return nil, err
	}

	now := time.Now()
	cached := make([]*store.CachedSubmission, 0, len(dtos))
	for _, dto := range dtos {
		sub := &store.CachedSubmission{
			ID:         dto.ID,
			CategoryID: dto.CategoryID,
			TeamName:   dto.TeamName,
			Title:      dto.Title,
			Status:     dto.Status,
			CachedAt:   now,
		}
		if err := s.store.UpsertSubmission(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to cache submission %s: %w", dto.ID, err)
		}
		cached = append(cached, sub)
	}

	s.logger.Printf("Cached %d assigned submissions", len(cached))
	return cached, nil
}

// ListSubmissions reads the submission cache; works offline.
// An empty categoryID lists everything.
func (s *Service) ListSubmissions(ctx context.Context, categoryID string) ([]*store.CachedSubmission, error) {
	return s.store.SubmissionsByCategory(ctx, categoryID)
}

// RequestDelivered implements syncer.Listener: a drained score delivery
// flips its cached row to synced.
func (s *Service) RequestDelivered(req *store.QueuedRequest) {
	input, ok := scoreFromRequest(req)
	if !ok {
		return
	}
	if err := s.store.MarkScoreStatus(context.Background(),
		input.SubmissionID, input.CriterionID, input.SeatID, store.SyncSynced); err != nil {
		s.logger.Printf("WARNING: failed to mark drained score synced: %v", err)
	}
}

// RequestAbandoned implements syncer.Listener: an abandoned score is
// surfaced as failed so the judge can resubmit.
func (s *Service) RequestAbandoned(req *store.QueuedRequest, err error) {
	input, ok := scoreFromRequest(req)
	if !ok {
		return
	}
	if merr := s.store.MarkScoreStatus(context.Background(),
		input.SubmissionID, input.CriterionID, input.SeatID, store.SyncFailed); merr != nil {
		s.logger.Printf("WARNING: failed to mark abandoned score failed: %v", merr)
	}
}

// scoreFromRequest recovers the score identity from a queued entry.
// Non-score entries (auth, other resources) are ignored.
func scoreFromRequest(req *store.QueuedRequest) (ScoreInput, bool) {
	if req.Target != scoresPath || len(req.Payload) == 0 {
		return ScoreInput{}, false
	}
	var input ScoreInput
	if err := json.Unmarshal(req.Payload, &input); err != nil {
		return ScoreInput{}, false
	}
	if input.SubmissionID == "" || input.CriterionID == "" || input.SeatID == "" {
		return ScoreInput{}, false
	}
	return input, true
}
