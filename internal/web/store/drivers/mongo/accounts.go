package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type accountDoc struct {
	ID           any       `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name,omitempty"`
	PasswordHash string    `bson:"password,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d accountDoc) toDomain() domain.Account {
	return domain.Account{
		ID:           idString(d.ID),
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type accountsRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (r *accountsRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *accountsRepo) FindByID(ctx context.Context, id string) (domain.Account, error) {
	return r.findOne(ctx, idFilter(id))
}

func (r *accountsRepo) findOne(ctx context.Context, filter bson.D) (domain.Account, error) {
	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *accountsRepo) Insert(ctx context.Context, a domain.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	_, err := r.coll.InsertOne(ctx, accountDoc{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("mongo: insert account: %w", mapDuplicate(err))
	}
	return nil
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	res, err := r.coll.UpdateOne(ctx,
		idFilter(id),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "password", Value: hash},
			{Key: "updatedAt", Value: r.now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongo: update password hash: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
