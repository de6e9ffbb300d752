package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"autopost/config"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init 은 설정값으로 전역 Mongo 클라이언트와 데이터베이스를 초기화한다.
func Init(ctx context.Context) error {
	var initErr error
	clientOnce.Do(func() {
		cfg := config.GetConfig()

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI()))
		if err != nil {
			initErr = err
			return
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(cfg.Mongo.Database)

		if err := ensureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		config.Logger.Infof("mongodb connected and indexes ensured (database=%s)", cfg.Mongo.Database)
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Disconnect 는 초기화된 전역 클라이언트를 닫는다.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		// settings: (identity, category) 당 1건
		"settings": {{
			Keys:    bson.D{{Key: "identity", Value: 1}, {Key: "category", Value: 1}},
			Options: options.Index().SetName("uniq_identity_category").SetUnique(true),
		}},
		"personas": {{
			Keys:    bson.D{{Key: "identity", Value: 1}},
			Options: options.Index().SetName("uniq_identity").SetUnique(true),
		}},
		// activities: 최근 활동 조회용
		"activities": {{
			Keys:    bson.D{{Key: "identity", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_identity_created_at_desc"),
		}},
		// post_logs: (identity, post_id) 로 upsert 되므로 중복 문서가 생기지 않게 한다.
		"post_logs": {
			{
				Keys:    bson.D{{Key: "identity", Value: 1}, {Key: "post_id", Value: 1}},
				Options: options.Index().SetName("uniq_identity_post_id").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "identity", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_identity_created_at_desc"),
			},
			// 중단된 실행 복구용
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}},
				Options: options.Index().SetName("idx_status_updated_at"),
			},
		},
		"ai_logs": {{
			Keys:    bson.D{{Key: "post_id", Value: 1}},
			Options: options.Index().SetName("idx_post_id"),
		}},
	}

	for collection, ims := range indexes {
		if _, err := d.Collection(collection).Indexes().CreateMany(ctx, ims); err != nil {
			return err
		}
	}
	return nil
}
