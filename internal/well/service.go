package well

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wellschematic/wellschematic/internal/engine"
	"github.com/wellschematic/wellschematic/internal/schema"
	"github.com/wellschematic/wellschematic/internal/typeid"
)

// Notifier is told about every successful change to a well.
type Notifier interface {
	Publish(wellID string, w *schema.WellSchema, version int)
	Remove(wellID string)
}

type Service struct {
	store    Store
	mode     schema.Mode
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, mode schema.Mode) *Service {
	return &Service{store: store, mode: mode, now: time.Now}
}

// SetNotifier attaches the live hub. It must be called before serving.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Mode reports how unknown document fields are handled.
func (s *Service) Mode() schema.Mode {
	return s.mode
}

// decode parses and validates a document and returns it with its canonical
// JSON encoding.
func (s *Service) decode(doc []byte, format schema.Format) (*schema.WellSchema, []byte, error) {
	w, err := schema.NewDecoder(s.mode).Decode(doc, format)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	canonical, err := json.Marshal(w)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal document: %w", err)
	}
	return w, canonical, nil
}

func (s *Service) Create(ctx context.Context, name string, doc []byte, format schema.Format) (*Well, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDocument)
	}
	_, canonical, err := s.decode(doc, format)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	w := &Well{
		ID:        typeid.NewWellID(),
		Name:      name,
		Document:  canonical,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("create well: %w", err)
	}
	return w, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Well, error) {
	if err := typeid.Validate(id, typeid.PrefixWell); err != nil {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Well, error) {
	return s.store.List(ctx)
}

// Update replaces the document and, when name is not empty, the name.
// ifVersion, when positive, must match the stored version.
func (s *Service) Update(ctx context.Context, id, name string, doc []byte, format schema.Format, ifVersion int) (*Well, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ifVersion > 0 && ifVersion != cur.Version {
		return nil, ErrConflict
	}

	parsed, canonical, err := s.decode(doc, format)
	if err != nil {
		return nil, err
	}

	next := *cur
	if name = strings.TrimSpace(name); name != "" {
		next.Name = name
	}
	next.Document = canonical
	next.Version = cur.Version + 1
	next.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, &next, cur.Version); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(next.ID, parsed, next.Version)
	}
	return &next, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := typeid.Validate(id, typeid.PrefixWell); err != nil {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Remove(id)
	}
	return nil
}

// Schema loads and decodes the stored document for a well.
func (s *Service) Schema(ctx context.Context, id string) (*schema.WellSchema, int, error) {
	w, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	// Stored documents are canonical, so strict decoding always applies.
	parsed, err := schema.NewDecoder(schema.Strict).DecodeJSON(w.Document)
	if err != nil {
		return nil, 0, fmt.Errorf("decode stored well %s: %w", id, err)
	}
	return parsed, w.Version, nil
}

// Render lays out the stored well with the given options.
func (s *Service) Render(ctx context.Context, id string, opts engine.Options) (*engine.Schematic, error) {
	w, _, err := s.Schema(ctx, id)
	if err != nil {
		return nil, err
	}
	return engine.Render(w, opts)
}
