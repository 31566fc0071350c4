// Package tracking keeps in-memory lifecycle snapshots for ingestion
// requests. Records live in a mutex-guarded map; terminal records are
// evicted after a TTL so the map cannot grow without bound.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

// Tracker is the in-process ingestion request tracker.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]*models.IngestionStatus
	config  *common.TrackerConfig
	logger  arbor.ILogger
}

var _ interfaces.TrackerService = (*Tracker)(nil)

// NewTracker creates a new request tracker.
func NewTracker(config *common.TrackerConfig, logger arbor.ILogger) *Tracker {
	return &Tracker{
		records: make(map[string]*models.IngestionStatus),
		config:  config,
		logger:  logger,
	}
}

// Begin registers a new request and returns its initial snapshot.
func (t *Tracker) Begin(requestID, linkedinURL string) *models.IngestionStatus {
	status := &models.IngestionStatus{
		RequestID:   requestID,
		LinkedInURL: linkedinURL,
		State:       models.IngestionStateRunning,
		Stage:       models.StageProfileFetch,
		Step:        models.StageStep(models.StageProfileFetch),
		TotalSteps:  models.IngestionTotalSteps,
		StartedAt:   time.Now().UTC(),
	}

	t.mu.Lock()
	t.records[requestID] = status
	t.mu.Unlock()

	return status.Clone()
}

// Update mutates the tracked record under the lock. Unknown request ids
// are ignored; the record may have been evicted already.
func (t *Tracker) Update(requestID string, mutate func(*models.IngestionStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status, ok := t.records[requestID]; ok {
		mutate(status)
	}
}

// Get returns a snapshot of the tracked record.
func (t *Tracker) Get(requestID string) (*models.IngestionStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status, ok := t.records[requestID]
	if !ok {
		return nil, false
	}
	return status.Clone(), true
}

// Stats returns record counts by state.
func (t *Tracker) Stats() interfaces.TrackerStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var stats interfaces.TrackerStats
	for _, status := range t.records {
		switch status.State {
		case models.IngestionStateRunning:
			stats.Running++
		case models.IngestionStateCompleted:
			stats.Completed++
		case models.IngestionStateFailed:
			stats.Failed++
		}
	}
	return stats
}

// Start launches the eviction loop. It runs until the context is
// cancelled.
func (t *Tracker) Start(ctx context.Context) {
	interval := t.config.EvictionInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	common.SafeGoWithContext(ctx, t.logger, "tracker-eviction", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				t.logger.Debug().Msg("Tracker eviction loop stopped")
				return
			case <-ticker.C:
				t.evict()
			}
		}
	})
}

// evict drops terminal records whose completion is older than the TTL.
// Running records are never evicted regardless of age.
func (t *Tracker) evict() {
	ttl := t.config.TTL
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-ttl)

	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, status := range t.records {
		if !status.IsTerminal() || status.CompletedAt == nil {
			continue
		}
		if status.CompletedAt.Before(cutoff) {
			delete(t.records, id)
			evicted++
		}
	}

	if evicted > 0 {
		t.logger.Debug().
			Int("evicted", evicted).
			Int("remaining", len(t.records)).
			Msg("Evicted expired ingestion records")
	}
}
