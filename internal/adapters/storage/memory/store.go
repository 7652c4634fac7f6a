package memory

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/docshelf/internal/domain"
)

// Store is an in-memory implementation of domain.DocumentStore.
// It is NOT persistent and is only suitable for development / tests.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]*domain.Item

	// down makes every call fail with domain.ErrUnavailableStore.
	down bool
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string][]*domain.Item),
	}
}

// SetUnavailable toggles a simulated outage.
func (s *Store) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *Store) checkUp() error {
	if s.down {
		return fmt.Errorf("memory store: %w", domain.ErrUnavailableStore)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkUp()
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkUp(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	return names, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUp(); err != nil {
		return err
	}
	if _, exists := s.collections[name]; exists {
		return fmt.Errorf("memory CreateCollection %q: %w", name, domain.ErrAlreadyExists)
	}

	s.collections[name] = nil
	return nil
}

// DropCollection is a no-op for unknown collections, like mongo's drop.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUp(); err != nil {
		return err
	}

	delete(s.collections, name)
	return nil
}

// FindItems snapshots the collection when iteration starts.
func (s *Store) FindItems(ctx context.Context, collection string) iter.Seq2[*domain.Item, error] {
	return func(yield func(*domain.Item, error) bool) {
		s.mu.RLock()
		if err := s.checkUp(); err != nil {
			s.mu.RUnlock()
			yield(nil, err)
			return
		}
		items := make([]*domain.Item, len(s.collections[collection]))
		copy(items, s.collections[collection])
		s.mu.RUnlock()

		for _, it := range items {
			cp := *it
			if !yield(&cp, nil) {
				return
			}
		}
	}
}

// InsertItem creates the collection implicitly, as document stores do.
func (s *Store) InsertItem(ctx context.Context, collection string, item *domain.Item) (domain.ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUp(); err != nil {
		return "", err
	}

	stored := &domain.Item{
		ID:          domain.ItemID(uuid.NewString()),
		Name:        item.Name,
		Description: item.Description,
	}
	s.collections[collection] = append(s.collections[collection], stored)
	return stored.ID, nil
}

func (s *Store) DeleteItem(ctx context.Context, collection string, id domain.ItemID) (int64, error) {
	if _, err := uuid.Parse(string(id)); err != nil {
		return 0, fmt.Errorf("memory DeleteItem %q: %w", id, domain.ErrMalformedID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUp(); err != nil {
		return 0, err
	}

	items := s.collections[collection]
	for i, it := range items {
		if it.ID == id {
			s.collections[collection] = append(items[:i:i], items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
