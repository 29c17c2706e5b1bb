package judging

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scorepadhq/scorepad/internal/store"
)

// Manifest is the venue-side seed file for pre-loading a device with
// its assigned submissions before the event, when the venue network may
// not exist yet.
//
// Example:
//
//	submissions:
//	  - id: sub-014
//	    category: cakes
//	    team: Team Alpha
//	    title: Lemon drizzle
//	    status: awaiting_scores
type Manifest struct {
	Submissions []ManifestSubmission `yaml:"submissions"`
}

// ManifestSubmission is one seeded submission entry.
type ManifestSubmission struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Team     string `yaml:"team"`
	Title    string `yaml:"title"`
	Status   string `yaml:"status"`
}

// ImportSubmissions seeds the submission cache from a YAML manifest.
// Returns the number of submissions imported. Existing rows with the
// same id are superseded, matching the online re-fetch behavior.
func (s *Service) ImportSubmissions(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return 0, fmt.Errorf("failed to parse manifest: %w", err)
	}

	now := time.Now()
	for i, entry := range manifest.Submissions {
		if entry.ID == "" {
			return 0, fmt.Errorf("manifest entry %d has no id", i)
		}
		status := entry.Status
		if status == "" {
			status = "awaiting_scores"
		}
		sub := &store.CachedSubmission{
			ID:         entry.ID,
			CategoryID: entry.Category,
			TeamName:   entry.Team,
			Title:      entry.Title,
			Status:     status,
			CachedAt:   now,
		}
		if err := s.store.UpsertSubmission(ctx, sub); err != nil {
			return 0, fmt.Errorf("failed to import submission %s: %w", entry.ID, err)
		}
	}

	s.logger.Printf("Imported %d submissions from manifest", len(manifest.Submissions))
	return len(manifest.Submissions), nil
}
