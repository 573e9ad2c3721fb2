package repository

import (
	"context"
	"errors"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reviewsCollection = "reviews"

// ReviewRepository is backed by the document store.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ListByProduct(ctx context.Context, productID string, approvedOnly bool) ([]*model.Review, error)
	ListPending(ctx context.Context, limit int) ([]*model.Review, error)
	Approve(ctx context.Context, reviewID string) error
	Delete(ctx context.Context, reviewID string) error
	AverageRating(ctx context.Context, productID string) (float64, int64, error)
}

type reviewRepoImpl struct {
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepoImpl{
		coll: db.Collection(reviewsCollection),
	}
}

// EnsureReviewIndexes creates the lookup indexes used by the review queries.
func EnsureReviewIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(reviewsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "approved", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "approved", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return err
}

func (r *reviewRepoImpl) Create(ctx context.Context, review *model.Review) error {
	_, err := r.coll.InsertOne(ctx, review)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *reviewRepoImpl) ListByProduct(ctx context.Context, productID string, approvedOnly bool) ([]*model.Review, error) {
	filter := bson.M{"product_id": productID}
	if approvedOnly {
		filter["approved"] = true
	}

	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *reviewRepoImpl) ListPending(ctx context.Context, limit int) ([]*model.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	return r.find(ctx, bson.M{"approved": false}, opts)
}

func (r *reviewRepoImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Review, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	reviews := []*model.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *reviewRepoImpl) Approve(ctx context.Context, reviewID string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": reviewID}, bson.M{"$set": bson.M{"approved": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reviewRepoImpl) Delete(ctx context.Context, reviewID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": reviewID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AverageRating aggregates approved reviews of a product.
func (r *reviewRepoImpl) AverageRating(ctx context.Context, productID string) (float64, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID, "approved": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cur.Close(ctx)

	var result struct {
		Avg   float64 `bson:"avg"`
		Count int64   `bson:"count"`
	}
	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return 0, 0, err
		}
		return 0, 0, nil
	}
	if err := cur.Decode(&result); err != nil {
		return 0, 0, err
	}

	return result.Avg, result.Count, nil
}
