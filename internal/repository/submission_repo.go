package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"exercisehub/internal/model"
)

// SubmissionRepo is the append-only submission log and its projections
type SubmissionRepo interface {
	Create(ctx context.Context, submission *model.Submission) error
	Count(ctx context.Context, sessionID, exerciseID, answereeID string) (int64, error)
	Progress(ctx context.Context, sessionID, exerciseID string) (*model.ExerciseSubmissions, error)
	PresenterSnapshot(ctx context.Context, sessionID string) ([]model.ExerciseSubmissions, error)
	ViewerSnapshot(ctx context.Context, sessionID, answereeID string) ([]model.ViewerExercise, error)
	EnsureIndexes(ctx context.Context) error
}

type submissionRepo struct {
	collection *mongo.Collection
}

// NewSubmissionRepo creates a new submission repository
func NewSubmissionRepo(db *mongo.Database) SubmissionRepo {
	return &submissionRepo{
		collection: db.Collection("submissions"),
	}
}

// Create appends a submission. Prior submissions are never touched.
func (r *submissionRepo) Create(ctx context.Context, submission *model.Submission) error {
	prepareSubmission(submission)
	if _, err := r.collection.InsertOne(ctx, submission); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *submissionRepo) Count(ctx context.Context, sessionID, exerciseID, answereeID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"session":  sessionID,
		"exercise": exerciseID,
		"answeree": answereeID,
	})
}

func (r *submissionRepo) Progress(ctx context.Context, sessionID, exerciseID string) (*model.ExerciseSubmissions, error) {
	cursor, err := r.collection.Aggregate(ctx, progressPipeline(sessionID, exerciseID))
	if err != nil {
		return nil, fmt.Errorf("aggregate progress: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Answeree string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	progress := &model.ExerciseSubmissions{UID: exerciseID, Submissions: make([]string, 0, len(rows))}
	for _, row := range rows {
		progress.Submissions = append(progress.Submissions, row.Answeree)
	}
	return progress, nil
}

func (r *submissionRepo) PresenterSnapshot(ctx context.Context, sessionID string) ([]model.ExerciseSubmissions, error) {
	cursor, err := r.collection.Aggregate(ctx, presenterPipeline(sessionID))
	if err != nil {
		return nil, fmt.Errorf("aggregate presenter snapshot: %w", err)
	}
	defer cursor.Close(ctx)

	exercises := []model.ExerciseSubmissions{}
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (r *submissionRepo) ViewerSnapshot(ctx context.Context, sessionID, answereeID string) ([]model.ViewerExercise, error) {
	cursor, err := r.collection.Aggregate(ctx, viewerPipeline(sessionID, answereeID))
	if err != nil {
		return nil, fmt.Errorf("aggregate viewer snapshot: %w", err)
	}
	defer cursor.Close(ctx)

	exercises := []model.ViewerExercise{}
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// EnsureIndexes creates the indexes the projections match on
func (r *submissionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "session", Value: 1},
				{Key: "exercise", Value: 1},
				{Key: "answeree", Value: 1},
				{Key: "submitDate", Value: -1},
			},
			Options: options.Index().SetName("session_exercise_answeree_submitDate"),
		},
		{
			Keys: bson.D{
				{Key: "session", Value: 1},
				{Key: "answeree", Value: 1},
			},
			Options: options.Index().SetName("session_answeree"),
		},
	})
	return err
}

func prepareSubmission(submission *model.Submission) {
	if submission.ID == "" {
		submission.ID = primitive.NewObjectID().Hex()
	}
	if submission.SubmitDate.IsZero() {
		submission.SubmitDate = time.Now().UTC()
	}
}
