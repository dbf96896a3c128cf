package well

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound        = errors.New("well not found")
	ErrConflict        = errors.New("well was modified concurrently")
	ErrInvalidDocument = errors.New("invalid well document")
)

// Well is a stored well document. Document always holds the canonical JSON
// form of a valid schema, with defaults filled in.
type Well struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Document  json.RawMessage `json:"document"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store persists wells.
type Store interface {
	Create(ctx context.Context, w *Well) error
	Get(ctx context.Context, id string) (*Well, error)
	List(ctx context.Context) ([]Well, error)
	// Update overwrites the well only if its stored version is still
	// prevVersion, and returns ErrConflict otherwise.
	Update(ctx context.Context, w *Well, prevVersion int) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps wells in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	wells map[string]Well
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{wells: make(map[string]Well)}
}

func (s *MemoryStore) Create(_ context.Context, w *Well) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wells[w.ID]; ok {
		return ErrConflict
	}
	s.wells[w.ID] = copyWell(*w)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Well, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wells[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyWell(w)
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Well, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Well, 0, len(s.wells))
	for _, w := range s.wells {
		out = append(out, copyWell(w))
	}
	slices.SortFunc(out, func(a, b Well) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, w *Well, prevVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.wells[w.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != prevVersion {
		return ErrConflict
	}
	s.wells[w.ID] = copyWell(*w)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wells[id]; !ok {
		return ErrNotFound
	}
	delete(s.wells, id)
	return nil
}

func copyWell(w Well) Well {
	w.Document = slices.Clone(w.Document)
	return w
}
