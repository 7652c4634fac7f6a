package domain

import (
	"context"
	"iter"
)

// DocumentStore is the external document database the app talks to.
// Implementations must be safe for concurrent use.
type DocumentStore interface {
	Ping(ctx context.Context) error

	// ListCollections returns collection names in no particular order.
	ListCollections(ctx context.Context) ([]string, error)
	// CreateCollection returns ErrAlreadyExists if the collection is present.
	CreateCollection(ctx context.Context, name string) error
	DropCollection(ctx context.Context, name string) error

	// FindItems returns a lazy sequence; the query runs when iteration starts.
	FindItems(ctx context.Context, collection string) iter.Seq2[*Item, error]
	InsertItem(ctx context.Context, collection string, item *Item) (ItemID, error)
	// DeleteItem returns the number of deleted records, or ErrMalformedID
	// when id is not a valid identifier for the store.
	DeleteItem(ctx context.Context, collection string, id ItemID) (int64, error)

	Close(ctx context.Context) error
}
