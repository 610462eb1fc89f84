// Package ledger persists abuse-report records and enforces their lifecycle:
// a record is created pending and moves exactly once to submitted or failed.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"brandpatrol/internal/models"
)

// ErrInvalidTransition is returned when a status update would move a record
// backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid report status transition")

// ErrNotFound is returned when no record exists for the given id.
var ErrNotFound = errors.New("report not found")

// Store is a JSON-file-backed ledger of report records.
type Store struct {
	mu      sync.RWMutex
	path    string
	records map[string]models.ReportRecord
}

// Open loads the ledger at path, creating an empty file if none exists.
func Open(path string) (*Store, error) {
	s := &Store{path: path, records: make(map[string]models.ReportRecord)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
		return s, s.flush()
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(data) > 0 {
		var list []models.ReportRecord
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse ledger %s: %w", path, err)
		}
		for _, rec := range list {
			s.records[rec.ID] = rec
		}
	}
	return s, nil
}

// Create appends a new pending record for a detection hit and returns it.
func (s *Store) Create(platform string, obs models.ProductObservation, verdict models.DetectionVerdict, reason string) (models.ReportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := models.ReportRecord{
		ID:           uuid.NewString(),
		Platform:     platform,
		TargetTitle:  obs.Title,
		TargetShop:   obs.ShopName,
		TargetPrice:  obs.Price,
		TargetURL:    obs.URL,
		Verdict:      &verdict,
		ReportReason: reason,
		Status:       models.StatusPending,
		CreatedAt:    time.Now(),
	}
	s.records[rec.ID] = rec
	return rec, s.flush()
}

// UpdateStatus moves a record to a new status. Only pending records may
// move, and only to a terminal status.
func (s *Store) UpdateStatus(id string, status models.ReportStatus, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.Status != models.StatusPending || !status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.Status, status)
	}
	rec.Status = status
	rec.Notes = note
	s.records[id] = rec
	return s.flush()
}

// AttachEvidence records an evidence artifact path on a report. Duplicate
// paths are ignored.
func (s *Store) AttachEvidence(id, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, p := range rec.Evidence {
		if p == path {
			return nil
		}
	}
	rec.Evidence = append(rec.Evidence, path)
	s.records[id] = rec
	return s.flush()
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (models.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return models.ReportRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// List returns all records, newest first.
func (s *Store) List() []models.ReportRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ReportRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Summary aggregates report counts.
type Summary struct {
	Total      int            `json:"total"`
	ByPlatform map[string]int `json:"by_platform"`
	ByStatus   map[string]int `json:"by_status"`
}

// Stats returns report counts grouped by platform and status.
func (s *Store) Stats() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := Summary{
		Total:      len(s.records),
		ByPlatform: make(map[string]int),
		ByStatus:   make(map[string]int),
	}
	for _, rec := range s.records {
		sum.ByPlatform[rec.Platform]++
		sum.ByStatus[string(rec.Status)]++
	}
	return sum
}

// flush writes the full record list to disk. Caller holds the lock.
func (s *Store) flush() error {
	list := make([]models.ReportRecord, 0, len(s.records))
	for _, rec := range s.records {
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
