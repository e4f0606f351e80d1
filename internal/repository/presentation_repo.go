package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"exercisehub/internal/model"
)

// PresentationRepo handles MongoDB operations for presentations
type PresentationRepo interface {
	GetByID(ctx context.Context, id string) (*model.Presentation, error)
	Upsert(ctx context.Context, presentation *model.Presentation) error
}

type presentationRepo struct {
	collection *mongo.Collection
}

// NewPresentationRepo creates a new presentation repository
func NewPresentationRepo(db *mongo.Database) PresentationRepo {
	return &presentationRepo{
		collection: db.Collection("presentations"),
	}
}

func (r *presentationRepo) GetByID(ctx context.Context, id string) (*model.Presentation, error) {
	var presentation model.Presentation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&presentation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &presentation, nil
}

func (r *presentationRepo) Upsert(ctx context.Context, presentation *model.Presentation) error {
	now := time.Now().UTC()
	if presentation.CreatedAt.IsZero() {
		presentation.CreatedAt = now
	}
	presentation.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": presentation.ID}, presentation, opts)
	return err
}
