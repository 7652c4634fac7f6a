package firestore

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/docshelf/internal/domain"
)

// registryCollection holds one document per logical collection.
// Firestore has no empty collections, so existence is tracked here.
const registryCollection = "_docshelf_collections"

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// NewStore creates a Firestore store.
// Uses the project passed (DOCSHELF_GCP_PROJECT); honours FIRESTORE_EMULATOR_HOST.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	s := &Store{client: client, now: time.Now}
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) registryCol() *firestore.CollectionRef {
	return s.client.Collection(registryCollection)
}

func (s *Store) registryDoc(name string) *firestore.DocumentRef {
	return s.registryCol().Doc(name)
}

func (s *Store) itemsCol(collection string) *firestore.CollectionRef {
	return s.client.Collection(collection)
}

func validName(name string) bool {
	return name != "" && !strings.Contains(name, "/") && name != registryCollection
}

func wrap(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("firestore %s: %w: %w", op, domain.ErrUnavailableStore, err)
	}
	return fmt.Errorf("firestore %s: %w", op, err)
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type collectionDoc struct {
	CreatedAt time.Time `firestore:"created_at"`
}

type itemDoc struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	CreatedAt   time.Time `firestore:"created_at"`
}

// ─────────────────────────────────────────
// DocumentStore implementation
// ─────────────────────────────────────────

func (s *Store) Ping(ctx context.Context) error {
	it := s.registryCol().Limit(1).Documents(ctx)
	defer it.Stop()

	if _, err := it.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firestore Ping: %w: %w", domain.ErrUnavailableStore, err)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	it := s.registryCol().Documents(ctx)
	defer it.Stop()

	var out []string
	for {
		snap, err := it.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, wrap("ListCollections", err)
		}
		out = append(out, snap.Ref.ID)
	}
	return out, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if !validName(name) {
		return fmt.Errorf("firestore CreateCollection: invalid collection name %q", name)
	}

	_, err := s.registryDoc(name).Create(ctx, collectionDoc{CreatedAt: s.now()})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("firestore CreateCollection %q: %w", name, domain.ErrAlreadyExists)
		}
		return wrap("CreateCollection", err)
	}
	return nil
}

// DropCollection deletes every item document, then the registry entry.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	if !validName(name) {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob

	it := s.itemsCol(name).Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			bw.End()
			return wrap("DropCollection", err)
		}
		job, err := bw.Delete(snap.Ref)
		if err != nil {
			bw.End()
			return wrap("DropCollection", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	// A partially deleted collection stays registered.
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return wrap("DropCollection", err)
		}
	}

	if _, err := s.registryDoc(name).Delete(ctx); err != nil {
		return wrap("DropCollection", err)
	}
	return nil
}

func (s *Store) FindItems(ctx context.Context, collection string) iter.Seq2[*domain.Item, error] {
	return func(yield func(*domain.Item, error) bool) {
		if !validName(collection) {
			return
		}

		it := s.itemsCol(collection).OrderBy("created_at", firestore.Asc).Documents(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if err != iterator.Done {
					yield(nil, wrap("FindItems", err))
				}
				return
			}

			var doc itemDoc
			if err := snap.DataTo(&doc); err != nil {
				yield(nil, fmt.Errorf("decode itemDoc: %w", err))
				return
			}

			item := &domain.Item{
				ID:          domain.ItemID(snap.Ref.ID),
				Name:        doc.Name,
				Description: doc.Description,
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// InsertItem writes the item only; registration is done by CreateCollection.
func (s *Store) InsertItem(ctx context.Context, collection string, item *domain.Item) (domain.ItemID, error) {
	if !validName(collection) {
		return "", fmt.Errorf("firestore InsertItem: invalid collection name %q", collection)
	}

	doc := itemDoc{
		Name:        item.Name,
		Description: item.Description,
		CreatedAt:   s.now(),
	}

	ref := s.itemsCol(collection).NewDoc()
	if _, err := ref.Create(ctx, doc); err != nil {
		return "", wrap("InsertItem", err)
	}
	return domain.ItemID(ref.ID), nil
}

func (s *Store) DeleteItem(ctx context.Context, collection string, id domain.ItemID) (int64, error) {
	if !validName(string(id)) {
		return 0, fmt.Errorf("firestore DeleteItem %q: %w", id, domain.ErrMalformedID)
	}
	if !validName(collection) {
		return 0, nil
	}

	_, err := s.itemsCol(collection).Doc(string(id)).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, wrap("DeleteItem", err)
	}
	return 1, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Close()
}
