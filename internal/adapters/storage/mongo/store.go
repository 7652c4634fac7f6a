package mongo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"strconv"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"

	"github.com/PabloGalante/docshelf/internal/domain"
)

// codeNamespaceExists is the server error code for "collection already exists".
const codeNamespaceExists = 48

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB and pings the primary.
// When database is empty the database named in the URI path is used.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	if database == "" {
		cs, err := connstring.ParseAndValidate(uri)
		if err != nil {
			return nil, fmt.Errorf("parsing mongo uri: %w", err)
		}
		database = cs.Database
	}
	if database == "" {
		return nil, fmt.Errorf("no database in mongo uri and none configured")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("creating mongo client: %w", err)
	}

	s := newStore(client, database)
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func newStore(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// ─────────────────────────────────────────
// Mongo Types
// ─────────────────────────────────────────

// itemDoc is the shape written by InsertItem. Reads go through itemFromRaw
// so documents written by other tools still list.
type itemDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	Name        string        `bson:"name"`
	Description string        `bson:"description,omitempty"`
}

func itemFromRaw(raw bson.Raw) *domain.Item {
	return &domain.Item{
		ID:          domain.ItemID(rawString(raw, "_id")),
		Name:        rawString(raw, "name"),
		Description: rawString(raw, "description"),
	}
}

// rawString renders a field as text; missing fields are "".
func rawString(raw bson.Raw, key string) string {
	v, err := raw.LookupErr(key)
	if err != nil {
		return ""
	}

	switch v.Type {
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return v.StringValue()
	case bson.TypeInt32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bson.TypeInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case bson.TypeDouble:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case bson.TypeBoolean:
		return strconv.FormatBool(v.Boolean())
	case bson.TypeNull, bson.TypeUndefined:
		return ""
	default:
		return v.String()
	}
}

// idCandidates lists every _id value the string form of id may stand for.
func idCandidates(id domain.ItemID) (bson.A, error) {
	s := string(id)
	if !utf8.ValidString(s) {
		return nil, domain.ErrMalformedID
	}

	cands := bson.A{s}
	if oid, err := bson.ObjectIDFromHex(s); err == nil {
		cands = append(cands, oid)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		cands = append(cands, n)
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			cands = append(cands, int32(n))
		}
	}
	return cands, nil
}

// wrap tags connectivity failures with domain.ErrUnavailableStore.
func wrap(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("mongo %s: %w: %w", op, domain.ErrUnavailableStore, err)
	}
	return fmt.Errorf("mongo %s: %w", op, err)
}

func isUnavailable(err error) bool {
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ─────────────────────────────────────────
// DocumentStore implementation
// ─────────────────────────────────────────

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo Ping: %w: %w", domain.ErrUnavailableStore, err)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, wrap("ListCollections", err)
	}
	return names, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	err := s.db.CreateCollection(ctx, name)
	if err == nil {
		return nil
	}

	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeNamespaceExists) {
		return fmt.Errorf("mongo CreateCollection %q: %w", name, domain.ErrAlreadyExists)
	}
	return wrap("CreateCollection", err)
}

func (s *Store) DropCollection(ctx context.Context, name string) error {
	if err := s.db.Collection(name).Drop(ctx); err != nil {
		return wrap("DropCollection", err)
	}
	return nil
}

func (s *Store) FindItems(ctx context.Context, collection string) iter.Seq2[*domain.Item, error] {
	return func(yield func(*domain.Item, error) bool) {
		cur, err := s.db.Collection(collection).Find(ctx, bson.D{})
		if err != nil {
			yield(nil, wrap("FindItems", err))
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			if !yield(itemFromRaw(cur.Current), nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, wrap("FindItems", err))
		}
	}
}

func (s *Store) InsertItem(ctx context.Context, collection string, item *domain.Item) (domain.ItemID, error) {
	doc := itemDoc{
		ID:          bson.NewObjectID(),
		Name:        item.Name,
		Description: item.Description,
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", wrap("InsertItem", err)
	}
	return domain.ItemID(doc.ID.Hex()), nil
}

func (s *Store) DeleteItem(ctx context.Context, collection string, id domain.ItemID) (int64, error) {
	cands, err := idCandidates(id)
	if err != nil {
		return 0, fmt.Errorf("mongo DeleteItem %q: %w", id, err)
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: cands}}}}
	res, err := s.db.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return 0, wrap("DeleteItem", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
