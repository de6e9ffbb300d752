package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"autopost/models"
	"autopost/settings"
)

// SettingRepository 는 (identity, category) 별 설정 payload 를 저장한다.
// payload 는 JSON 으로 주고받고 Mongo 에는 하위 문서로 저장한다.
// Collection: settings
type SettingRepository struct {
	col *mongo.Collection
}

func NewSettingRepository(db *mongo.Database) *SettingRepository {
	return &SettingRepository{col: db.Collection("settings")}
}

type settingDocument struct {
	Identity  string    `bson:"identity"`
	Category  string    `bson:"category"`
	Payload   bson.Raw  `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (r *SettingRepository) Get(ctx context.Context, identity string, category models.Category) ([]byte, error) {
	var doc settingDocument
	err := r.col.FindOne(ctx, bson.M{"identity": identity, "category": string(category)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, settings.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(doc.Payload) == 0 {
		return nil, settings.ErrNotFound
	}
	return bson.MarshalExtJSON(doc.Payload, false, false)
}

// Put 은 payload 를 덮어쓴다. payload 는 JSON object 여야 한다.
func (r *SettingRepository) Put(ctx context.Context, identity string, category models.Category, payload []byte) error {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(payload, false, &doc); err != nil {
		return fmt.Errorf("invalid %s payload: %w", category, err)
	}

	now := time.Now()
	filter := bson.M{"identity": identity, "category": string(category)}
	update := bson.M{
		"$setOnInsert": bson.M{"created_at": now},
		"$set": bson.M{
			"payload":    doc,
			"updated_at": now,
		},
	}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
