package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"autopost/models"
)

// ErrPostLogNotFound 는 FindByPostID 가 기록을 찾지 못했을 때 반환된다.
var ErrPostLogNotFound = errors.New("post log not found")

type PostLogRepository struct {
	col *mongo.Collection
}

func NewPostLogRepository(db *mongo.Database) *PostLogRepository {
	return &PostLogRepository{col: db.Collection("post_logs")}
}

// Upsert 는 (identity, post_id) 로 식별되는 기록을 덮어쓴다. created_at 은 최초 삽입 때만 기록된다.
// 호출자가 정한 시각을 그대로 저장하고, 비어 있을 때만 현재 시각으로 채운다.
func (r *PostLogRepository) Upsert(ctx context.Context, p *models.PostLog) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.TrendSnapshot == nil {
		p.TrendSnapshot = []models.TrendItem{}
	}

	filter := bson.M{"identity": p.Identity, "post_id": p.PostID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": p.CreatedAt,
		},
		"$set": bson.M{
			"updated_at":       p.UpdatedAt,
			"status":           p.Status,
			"trigger":          p.Trigger,
			"content":          p.Content,
			"external_post_id": p.ExternalPostID,
			"prompt":           p.Prompt,
			"trend_snapshot":   p.TrendSnapshot,
			"success":          p.Success,
			"error":            p.Error,
		},
	}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *PostLogRepository) FindByPostID(ctx context.Context, identity, postID string) (*models.PostLog, error) {
	var p models.PostLog
	err := r.col.FindOne(ctx, bson.M{"identity": identity, "post_id": postID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPostLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListRecent 는 identity 의 최근 기록을 최신순으로 반환한다.
func (r *PostLogRepository) ListRecent(ctx context.Context, identity string, limit int) ([]models.PostLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"identity": identity}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := []models.PostLog{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

var unfinishedStatuses = []models.PostStatus{models.PostStatusPending, models.PostStatusProcessing}

// FindStale 는 before 이후로 갱신되지 않은 pending/processing 기록을 오래된 순으로 반환한다.
func (r *PostLogRepository) FindStale(ctx context.Context, before time.Time, limit int) ([]models.PostLog, error) {
	filter := bson.M{
		"status":     bson.M{"$in": unfinishedStatuses},
		"updated_at": bson.M{"$lt": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := []models.PostLog{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkFailed 는 아직 끝나지 않은 기록만 failed 로 바꾼다. 이미 종료된 기록이면 false 를 반환한다.
func (r *PostLogRepository) MarkFailed(ctx context.Context, identity, postID, reason string) (bool, error) {
	filter := bson.M{
		"identity": identity,
		"post_id":  postID,
		"status":   bson.M{"$in": unfinishedStatuses},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.PostStatusFailed,
		"success":    false,
		"error":      reason,
		"updated_at": time.Now(),
	}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
