package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type resetTokenDoc struct {
	Key       string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

type resetTokensRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (r *resetTokensRepo) MarkUsed(ctx context.Context, t domain.UsedResetToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now()
	}

	_, err := r.coll.InsertOne(ctx, resetTokenDoc{Key: t.Key, ExpiresAt: t.ExpiresAt, CreatedAt: t.CreatedAt})
	if err != nil {
		return fmt.Errorf("mongo: mark reset token used: %w", mapDuplicate(err))
	}
	return nil
}

// DeleteExpired backs up the TTL index, whose monitor only runs about once
// a minute.
func (r *resetTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lt", Value: now}}}})
	if err != nil {
		return 0, fmt.Errorf("mongo: delete expired reset tokens: %w", err)
	}
	return res.DeletedCount, nil
}
