package items

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/PabloGalante/docshelf/internal/domain"
	"github.com/PabloGalante/docshelf/internal/observability"
)

// Gateway performs item reads and writes against one collection at a time.
type Gateway struct {
	store domain.DocumentStore
}

func NewGateway(store domain.DocumentStore) *Gateway {
	return &Gateway{store: store}
}

// ListItems yields every item of collection in store order.
// An empty collection name yields nothing.
func (g *Gateway) ListItems(ctx context.Context, collection string) iter.Seq2[*domain.Item, error] {
	if collection == "" {
		return func(func(*domain.Item, error) bool) {}
	}
	return g.store.FindItems(ctx, collection)
}

// Collect drains seq, stopping at the first error.
func Collect(seq iter.Seq2[*domain.Item, error]) ([]*domain.Item, error) {
	out := []*domain.Item{}
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// AddItem inserts {name, description} into collection, creating the
// collection first if needed. No deduplication is done.
func (g *Gateway) AddItem(ctx context.Context, collection, name, description string) (*domain.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrMissingName
	}
	if collection == "" {
		return nil, fmt.Errorf("add item: no collection selected: %w", domain.ErrInvalidSelection)
	}

	log := observability.LoggerFromContext(ctx).With("collection", collection)

	if err := g.ensureCollection(ctx, collection); err != nil {
		log.Error("failed to ensure collection", "error", err)
		return nil, err
	}

	item := &domain.Item{
		Name:        name,
		Description: strings.TrimSpace(description),
	}

	id, err := g.store.InsertItem(ctx, collection, item)
	if err != nil {
		log.Error("failed to insert item", "error", err)
		return nil, err
	}
	item.ID = id

	log.Info("item added", "item_id", id)
	return item, nil
}

func (g *Gateway) ensureCollection(ctx context.Context, collection string) error {
	names, err := g.store.ListCollections(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(names, collection) {
		return nil
	}

	err = g.store.CreateCollection(ctx, collection)
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return err
	}
	return nil
}

// DeleteItem removes exactly one item by id.
func (g *Gateway) DeleteItem(ctx context.Context, collection string, id domain.ItemID) error {
	id = domain.ItemID(strings.TrimSpace(string(id)))
	if id == "" {
		return domain.ErrMissingID
	}
	if collection == "" {
		return fmt.Errorf("delete item: no collection selected: %w", domain.ErrInvalidSelection)
	}

	log := observability.LoggerFromContext(ctx).With("collection", collection, "item_id", id)

	n, err := g.store.DeleteItem(ctx, collection, id)
	if err != nil {
		log.Error("failed to delete item", "error", err)
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete %q: %w", id, domain.ErrNotFound)
	}

	log.Info("item deleted")
	return nil
}
