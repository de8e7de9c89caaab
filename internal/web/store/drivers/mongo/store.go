package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names. Accounts live in "users" with the hash under
// "password", the layout earlier deployments of the site already hold.
const (
	accountsCollection    = "users"
	waitlistCollection    = "waitlist"
	countersCollection    = "counters"
	resetTokensCollection = "used_reset_tokens"
)

// ErrFailedToConnect is returned when every connection attempt failed.
var ErrFailedToConnect = errors.New("mongo: failed to connect")

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Connect dials the server, retrying up to cfg.RetryAttempts times, and
// returns a store bound to cfg.Database.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	attempts := max(cfg.RetryAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return NewStore(client, cfg.Database), nil
			}
			_ = client.Disconnect(context.Background())
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnect, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrFailedToConnect, lastErr)
}

// NewStore wraps an already connected client.
func NewStore(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// ApplyMigrations ensures the indexes the repositories rely on. Index
// creation is idempotent so this is safe on every start.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		accountsCollection: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email_key"),
		}},
		waitlistCollection: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("waitlist_email_key"),
		}},
		resetTokensCollection: {{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("used_reset_tokens_ttl"),
		}},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: ensure %s indexes: %w", coll, err)
		}
	}
	return s.seedWaitlistCounter(ctx)
}

// seedWaitlistCounter raises the position counter to the highest position
// already stored, so entries written without the counter are never reused.
func (s *Store) seedWaitlistCounter(ctx context.Context) error {
	var last waitlistDoc
	err := s.db.Collection(waitlistCollection).FindOne(ctx, bson.D{},
		options.FindOne().SetSort(bson.D{{Key: "position", Value: -1}}),
	).Decode(&last)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil
	case err != nil:
		return fmt.Errorf("mongo: read last waitlist position: %w", err)
	}

	_, err = s.db.Collection(countersCollection).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: waitlistCounterID}},
		bson.D{{Key: "$max", Value: bson.D{{Key: "seq", Value: last.Position}}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: seed waitlist counter: %w", err)
	}
	return nil
}

func (s *Store) Accounts() store.Accounts {
	return &accountsRepo{coll: s.db.Collection(accountsCollection), now: s.now}
}

func (s *Store) Waitlist() store.Waitlist {
	return &waitlistRepo{
		coll:     s.db.Collection(waitlistCollection),
		counters: s.db.Collection(countersCollection),
		now:      s.now,
	}
}

func (s *Store) ResetTokens() store.ResetTokens {
	return &resetTokensRepo{coll: s.db.Collection(resetTokensCollection), now: s.now}
}

// idString renders a stored _id. Older records carry ObjectIDs, records
// written here carry ULID strings.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case bson.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprint(id)
	}
}

// idFilter matches an _id in whichever form it was stored. A ULID is 26
// characters so it never parses as an ObjectID.
func idFilter(id string) bson.D {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return bson.D{{Key: "_id", Value: oid}}
	}
	return bson.D{{Key: "_id", Value: id}}
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func mapDuplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}
