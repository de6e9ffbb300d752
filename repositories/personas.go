package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"autopost/models"
	"autopost/settings"
)

type PersonaRepository struct {
	col *mongo.Collection
}

func NewPersonaRepository(db *mongo.Database) *PersonaRepository {
	return &PersonaRepository{col: db.Collection("personas")}
}

func (r *PersonaRepository) FindPersona(ctx context.Context, identity string) (*models.Persona, error) {
	var p models.Persona
	err := r.col.FindOne(ctx, bson.M{"identity": identity}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, settings.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert 는 p.Identity 의 페르소나를 교체한다.
func (r *PersonaRepository) Upsert(ctx context.Context, p *models.Persona) error {
	p.UpdatedAt = time.Now()
	_, err := r.col.ReplaceOne(ctx, bson.M{"identity": p.Identity}, p, options.Replace().SetUpsert(true))
	return err
}
