package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// waitlistCounterID is the counters document holding the last position.
const waitlistCounterID = "waitlist_position"

type waitlistDoc struct {
	ID             any       `bson:"_id"`
	Email          string    `bson:"email"`
	Name           string    `bson:"name,omitempty"`
	ReferralSource string    `bson:"referralSource,omitempty"`
	Position       int64     `bson:"position"`
	CreatedAt      time.Time `bson:"createdAt"`
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

type waitlistRepo struct {
	coll     *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

// Insert takes the next position from a counter document with $inc, which
// is atomic on a single document. A duplicate email detected before the
// increment costs nothing; one lost to a race leaves a gap in positions.
func (r *waitlistRepo) Insert(ctx context.Context, e domain.WaitlistEntry) (domain.WaitlistEntry, error) {
	if _, err := r.FindByEmail(ctx, e.Email); err == nil {
		return domain.WaitlistEntry{}, store.ErrAlreadyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.WaitlistEntry{}, fmt.Errorf("mongo: insert waitlist entry: %w", err)
	}

	var counter counterDoc
	err := r.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: waitlistCounterID}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("mongo: next waitlist position: %w", err)
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	e.Position = counter.Seq

	_, err = r.coll.InsertOne(ctx, waitlistDoc{
		ID:             e.ID,
		Email:          e.Email,
		Name:           e.Name,
		ReferralSource: e.ReferralSource,
		Position:       e.Position,
		CreatedAt:      e.CreatedAt,
	})
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("mongo: insert waitlist entry: %w", mapDuplicate(err))
	}
	return e, nil
}

func (r *waitlistRepo) FindByEmail(ctx context.Context, email string) (domain.WaitlistEntry, error) {
	var doc waitlistDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc); err != nil {
		return domain.WaitlistEntry{}, mapNotFound(err)
	}
	return domain.WaitlistEntry{
		ID:             idString(doc.ID),
		Email:          doc.Email,
		Name:           doc.Name,
		ReferralSource: doc.ReferralSource,
		Position:       doc.Position,
		CreatedAt:      doc.CreatedAt.UTC(),
	}, nil
}

func (r *waitlistRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongo: count waitlist: %w", err)
	}
	return n, nil
}
