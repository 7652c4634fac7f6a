package domain

import "errors"

var (
	// ErrMissingName is returned when an item is added without a name.
	ErrMissingName = errors.New("name is required")

	// ErrMissingID is returned when a delete request carries no item id.
	ErrMissingID = errors.New("item id is required")

	// ErrMalformedID is returned when an id cannot be parsed into the store's identifier type.
	ErrMalformedID = errors.New("malformed item id")

	// ErrNotFound is returned when a delete matched no record.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidSelection is returned when a collection name does not exist.
	ErrInvalidSelection = errors.New("invalid collection selection")

	// ErrAlreadyExists is returned when creating a collection that already exists.
	ErrAlreadyExists = errors.New("collection already exists")

	// ErrEmptyName is returned when creating a collection with a blank name.
	ErrEmptyName = errors.New("collection name is required")

	// ErrUnavailableStore wraps connectivity failures of the document store.
	ErrUnavailableStore = errors.New("document store unavailable")
)

// IsUnavailable returns true if the error is ErrUnavailableStore
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailableStore)
}
