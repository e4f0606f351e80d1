package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"exercisehub/internal/model"
	"exercisehub/internal/settings"
)

// ExerciseRepo handles MongoDB operations for exercises
type ExerciseRepo interface {
	Create(ctx context.Context, exercise *model.Exercise) error
	GetByID(ctx context.Context, id string) (*model.Exercise, error)
	ListByPresentation(ctx context.Context, presentationID string) ([]*model.Exercise, error)
	Save(ctx context.Context, exercise *model.Exercise) error
	UpdateSettings(ctx context.Context, exerciseID string, s model.Settings) error
}

type exerciseRepo struct {
	collection *mongo.Collection
	validator  *settings.Validator
}

// NewExerciseRepo creates a new exercise repository
func NewExerciseRepo(db *mongo.Database, validator *settings.Validator) ExerciseRepo {
	return &exerciseRepo{
		collection: db.Collection("exercises"),
		validator:  validator,
	}
}

func (r *exerciseRepo) Create(ctx context.Context, exercise *model.Exercise) error {
	if err := checkSettings(r.validator, exercise.Settings); err != nil {
		return err
	}

	now := time.Now().UTC()
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = now
	}
	exercise.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, exercise); err != nil {
		return fmt.Errorf("insert exercise %s: %w", exercise.ID, err)
	}
	return nil
}

func (r *exerciseRepo) GetByID(ctx context.Context, id string) (*model.Exercise, error) {
	var exercise model.Exercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (r *exerciseRepo) ListByPresentation(ctx context.Context, presentationID string) ([]*model.Exercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"presentation": presentationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []*model.Exercise
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// Save replaces the stored document. The exercise must already exist.
func (r *exerciseRepo) Save(ctx context.Context, exercise *model.Exercise) error {
	if err := checkSettings(r.validator, exercise.Settings); err != nil {
		return err
	}
	exercise.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": exercise.ID}, exercise)
	if err != nil {
		return fmt.Errorf("save exercise %s: %w", exercise.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("exercise %s: %w", exercise.ID, model.ErrNotFound)
	}
	return nil
}

// UpdateSettings validates s and replaces the exercise's settings. Value
// violations come back as *model.SettingError.
func (r *exerciseRepo) UpdateSettings(ctx context.Context, exerciseID string, s model.Settings) error {
	if err := checkSettings(r.validator, s); err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"settings":  s,
		"updatedAt": time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": exerciseID}, update)
	if err != nil {
		return fmt.Errorf("update settings of exercise %s: %w", exerciseID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("exercise %s: %w", exerciseID, model.ErrNotFound)
	}
	return nil
}

// checkSettings is the write-side schema check shared by every store
func checkSettings(v *settings.Validator, s model.Settings) error {
	seen := make(map[string]bool, len(s))
	for _, entry := range s {
		if entry.Key == "" || seen[entry.Key] {
			return &model.SettingError{
				Key:  entry.Key,
				Kind: model.RejectUnknownKey,
				Err:  errors.New("setting keys must be unique and non-empty"),
			}
		}
		seen[entry.Key] = true
	}
	if v == nil {
		return nil
	}
	return v.ValidateAll(s)
}
