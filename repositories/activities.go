package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"autopost/models"
)

type ActivityRepository struct {
	col *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection("activities")}
}

// RecentActivities 는 since 이후에 만들어진 활동을 최신순으로 반환한다.
func (r *ActivityRepository) RecentActivities(ctx context.Context, identity string, since time.Time, limit int) ([]models.Activity, error) {
	filter := bson.M{
		"identity":   identity,
		"created_at": bson.M{"$gte": since},
		"text":       bson.M{"$nin": bson.A{"", nil}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := []models.Activity{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ActivityRepository) Insert(ctx context.Context, a models.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := r.col.InsertOne(ctx, a)
	return err
}
