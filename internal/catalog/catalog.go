package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"brandpatrol/internal/models"
)

// Store holds the known-genuine product catalog, backed by a JSON file keyed
// by record id. It is read-only to the detection engine; mutation happens only
// through catalog maintenance commands.
type Store struct {
	mu      sync.RWMutex
	path    string
	records map[string]models.GenuineRecord
}

// Open loads the catalog at path, creating an empty file if none exists.
func Open(path string) (*Store, error) {
	s := &Store{path: path, records: make(map[string]models.GenuineRecord)}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := s.save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// Add inserts or updates a record, refreshing its timestamps.
func (s *Store) Add(rec models.GenuineRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("catalog record needs an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if old, ok := s.records[rec.ID]; ok {
		rec.CreatedAt = old.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.records[rec.ID] = rec
	return s.save()
}

// Get returns the record with the given id, if present.
func (s *Store) Get(id string) (models.GenuineRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Delete removes a record. Removing an unknown id is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	return s.save()
}

// All returns every record sorted by id. The sort keeps candidate selection
// in the detection engine deterministic across runs.
func (s *Store) All() []models.GenuineRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.GenuineRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SearchByName returns records whose canonical name contains name as a
// case-insensitive substring, in id order.
func (s *Store) SearchByName(name string) []models.GenuineRecord {
	needle := strings.ToLower(name)
	var out []models.GenuineRecord
	for _, rec := range s.All() {
		if strings.Contains(strings.ToLower(rec.Name), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// SearchByKeywords returns records for which any query keyword appears as a
// case-insensitive substring of the record's joined keyword list.
func (s *Store) SearchByKeywords(keywords []string) []models.GenuineRecord {
	var out []models.GenuineRecord
	for _, rec := range s.All() {
		if len(rec.Keywords) == 0 {
			continue
		}
		joined := strings.ToLower(strings.Join(rec.Keywords, " "))
		for _, kw := range keywords {
			if strings.Contains(joined, strings.ToLower(kw)) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// IsAuthorizedShop reports whether shop is the canonical shop or an authorized
// seller. With a non-empty recordID only that record is consulted; otherwise
// any record authorizing the shop counts. Matching is exact and case-sensitive.
func (s *Store) IsAuthorizedShop(shop, recordID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if recordID != "" {
		rec, ok := s.records[recordID]
		if !ok {
			return false
		}
		return shopAuthorized(shop, rec)
	}
	for _, rec := range s.records {
		if shopAuthorized(shop, rec) {
			return true
		}
	}
	return false
}

func shopAuthorized(shop string, rec models.GenuineRecord) bool {
	if shop == rec.ShopName {
		return true
	}
	for _, a := range rec.AuthorizedShops {
		if shop == a {
			return true
		}
	}
	return false
}

// Summary summarizes the catalog contents.
type Summary struct {
	Total      int            `json:"total"`
	ByPlatform map[string]int `json:"by_platform"`
	ByCategory map[string]int `json:"by_category"`
}

// Stats returns catalog totals grouped by platform and category.
func (s *Store) Stats() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Summary{
		Total:      len(s.records),
		ByPlatform: make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, rec := range s.records {
		st.ByPlatform[rec.Platform]++
		st.ByCategory[rec.Category]++
	}
	return st
}
