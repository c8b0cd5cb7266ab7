// Package memory provides an in-memory store for testing and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/store"
)

// Store is an in-memory implementation of store.Store.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	records  map[string]*catalog.Product
	readOnly bool
	now      func() time.Time
}

// Option configures a memory Store.
type Option func(*Store)

// WithReadOnly makes the store reject writes with errors.ErrReadOnly.
func WithReadOnly() Option {
	return func(s *Store) { s.readOnly = true }
}

// WithClock overrides the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]*catalog.Product),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find returns records scoped to orgID matching the filter. Results are
// ordered by record ID so callers see a stable order.
func (s *Store) Find(ctx context.Context, orgID string, filter store.Filter) ([]*catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*catalog.Product
	for _, p := range s.records {
		if store.Matches(p, orgID, filter) {
			cp := *p
			cp.Attributes = p.Attributes.Clone()
			cp.ImageURLs = append([]string(nil), p.ImageURLs...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Insert stores a new record and returns its assigned ID.
func (s *Store) Insert(ctx context.Context, p *catalog.Product) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.readOnly {
		return "", errors.ErrReadOnly
	}
	if p.OrgID == "" {
		return "", errors.NewValidationError("org_id", p.OrgID, "org scope is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	cp.ID = uuid.NewString()
	cp.Attributes = p.Attributes.Clone()
	cp.ImageURLs = append([]string(nil), p.ImageURLs...)
	cp.CreatedAt = s.now()
	cp.UpdatedAt = cp.CreatedAt
	s.records[cp.ID] = &cp
	return cp.ID, nil
}

// Update overwrites the record identified by id. The org scope of the stored
// record is preserved.
func (s *Store) Update(ctx context.Context, id string, p *catalog.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.readOnly {
		return errors.ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[id]
	if !ok {
		return errors.NewNotFoundError("product", id)
	}

	cp := *p
	cp.ID = id
	cp.OrgID = existing.OrgID
	cp.Attributes = p.Attributes.Clone()
	cp.ImageURLs = append([]string(nil), p.ImageURLs...)
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = s.now()
	s.records[id] = &cp
	return nil
}

// Delete removes the records with the given IDs. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.readOnly {
		return errors.ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.records, id)
	}
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
