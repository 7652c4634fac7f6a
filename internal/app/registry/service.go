package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/PabloGalante/docshelf/internal/domain"
	"github.com/PabloGalante/docshelf/internal/observability"
)

// Service tracks which collections exist and which one a session has selected.
type Service struct {
	store domain.DocumentStore
}

func NewService(store domain.DocumentStore) *Service {
	return &Service{store: store}
}

// ListCollections returns all collection names sorted lexicographically.
func (s *Service) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// Current returns the session's selection if it still exists, else the
// first available collection, else "".
func (s *Service) Current(ctx context.Context, sess *domain.Session) (string, error) {
	names, err := s.ListCollections(ctx)
	if err != nil {
		return "", err
	}
	return resolve(names, sess), nil
}

func resolve(names []string, sess *domain.Session) string {
	if sess != nil && sess.CurrentCollection != "" && slices.Contains(names, sess.CurrentCollection) {
		return sess.CurrentCollection
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

// SwitchTo selects name for the session. The session is left untouched on failure.
func (s *Service) SwitchTo(ctx context.Context, sess *domain.Session, name string) error {
	names, err := s.ListCollections(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		return fmt.Errorf("switch to %q: %w", name, domain.ErrInvalidSelection)
	}

	sess.CurrentCollection = name
	observability.LoggerFromContext(ctx).Info("switched collection", "collection", name)
	return nil
}

// Create makes an empty collection and selects it.
func (s *Service) Create(ctx context.Context, sess *domain.Session, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}

	log := observability.LoggerFromContext(ctx).With("collection", name)

	names, err := s.ListCollections(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return fmt.Errorf("create %q: %w", name, domain.ErrAlreadyExists)
	}

	if err := s.store.CreateCollection(ctx, name); err != nil {
		log.Error("failed to create collection", "error", err)
		return err
	}

	sess.CurrentCollection = name
	log.Info("collection created")
	return nil
}

// Drop removes the collection and clears the session selection if it pointed there.
func (s *Service) Drop(ctx context.Context, sess *domain.Session, name string) error {
	log := observability.LoggerFromContext(ctx).With("collection", name)

	names, err := s.ListCollections(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		return fmt.Errorf("drop %q: %w", name, domain.ErrInvalidSelection)
	}

	if err := s.store.DropCollection(ctx, name); err != nil {
		log.Error("failed to drop collection", "error", err)
		return err
	}

	if sess != nil && sess.CurrentCollection == name {
		sess.CurrentCollection = ""
	}
	log.Info("collection dropped")
	return nil
}

// Ensure creates name if it does not exist yet.
func (s *Service) Ensure(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}

	err := s.store.CreateCollection(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return err
	}
	return nil
}
