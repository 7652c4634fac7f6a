package domain

// ItemID is the string form of a store-native identifier
// (ObjectID hex for mongo, document ID for firestore, UUID in memory).
type ItemID string

// Item is a single record inside a collection.
type Item struct {
	ID          ItemID
	Name        string
	Description string // optional, omitted from the stored document when empty
}

// Session is the per-user state carried between requests.
// CurrentCollection is empty when nothing is selected.
type Session struct {
	CurrentCollection string
}

type FlashCategory string

const (
	FlashSuccess FlashCategory = "success"
	FlashWarning FlashCategory = "warning"
	FlashError   FlashCategory = "error"
)
