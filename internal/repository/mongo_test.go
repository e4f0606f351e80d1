package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"exercisehub/internal/model"
	"exercisehub/internal/settings"
)

func TestMongoSubmissionProjections(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("presenter snapshot", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".submissions"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "uid", Value: "examA"}, {Key: "submissions", Value: bson.A{"alice", "bob"}}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		got, err := NewSubmissionRepo(mt.DB).PresenterSnapshot(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, []model.ExerciseSubmissions{{UID: "examA", Submissions: []string{"alice", "bob"}}}, got)
	})

	mt.Run("viewer snapshot", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".submissions"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "uid", Value: "examA"}, {Key: "submissionNum", Value: int32(2)}, {Key: "confidence", Value: 4.0}},
				bson.D{{Key: "uid", Value: "examB"}, {Key: "submissionNum", Value: int32(1)}, {Key: "confidence", Value: nil}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		got, err := NewSubmissionRepo(mt.DB).ViewerSnapshot(context.Background(), "s1", "alice")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2, got[0].SubmissionNum)
		require.NotNil(t, got[0].Confidence)
		assert.Equal(t, 4.0, *got[0].Confidence)
		assert.Nil(t, got[1].Confidence)
	})

	mt.Run("progress", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".submissions"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "alice"}},
				bson.D{{Key: "_id", Value: "bob"}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		got, err := NewSubmissionRepo(mt.DB).Progress(context.Background(), "s1", "examA")
		require.NoError(t, err)
		assert.Equal(t, &model.ExerciseSubmissions{UID: "examA", Submissions: []string{"alice", "bob"}}, got)
	})

	mt.Run("create assigns id and date", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		sub := &model.Submission{SessionID: "s1", ExerciseID: "examA", AnswereeID: "alice"}
		require.NoError(t, NewSubmissionRepo(mt.DB).Create(context.Background(), sub))
		assert.Len(t, sub.ID, 24)
		assert.False(t, sub.SubmitDate.IsZero())
	})
}

func TestMongoExerciseRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".exercises", mtest.FirstBatch))

		got, err := NewExerciseRepo(mt.DB, settings.NewValidator()).GetByID(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	mt.Run("get", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, mt.DB.Name()+".exercises", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "ex-1"},
			{Key: "stem", Value: "Pick one"},
			{Key: "questions", Value: bson.A{bson.D{{Key: "id", Value: "q-1"}}}},
			{Key: "settings", Value: bson.A{bson.D{
				{Key: "key", Value: "maxNumSubmissions"},
				{Key: "value", Value: 3.0},
				{Key: "kind", Value: "number"},
			}}},
		}))

		got, err := NewExerciseRepo(mt.DB, settings.NewValidator()).GetByID(context.Background(), "ex-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []string{"q-1"}, got.QuestionIDs())
		assert.Equal(t, 3.0, got.Settings[0].Value)
	})

	mt.Run("update settings rejects before writing", func(mt *mtest.T) {
		err := NewExerciseRepo(mt.DB, settings.NewValidator()).UpdateSettings(context.Background(), "ex-1", model.Settings{
			{Key: "maxNumSubmissions", Value: "many", Kind: model.SettingNumber},
		})
		rejection, ok := model.AsSettingError(err)
		require.True(t, ok)
		assert.Equal(t, "maxNumSubmissions", rejection.Key)
	})

	mt.Run("update settings of missing exercise", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := NewExerciseRepo(mt.DB, settings.NewValidator()).UpdateSettings(context.Background(), "ex-1", model.Settings{
			{Key: "maxNumSubmissions", Value: 2.0, Kind: model.SettingNumber},
		})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	mt.Run("update settings", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := NewExerciseRepo(mt.DB, settings.NewValidator()).UpdateSettings(context.Background(), "ex-1", model.Settings{
			{Key: "maxNumSubmissions", Value: 2.0, Kind: model.SettingNumber},
		})
		assert.NoError(t, err)
	})
}

func TestPipelinesMatchOnSession(t *testing.T) {
	stage := func(p []bson.D, i int) bson.E { return p[i][0] }

	progress := progressPipeline("s1", "examA")
	assert.Equal(t, "$match", stage(progress, 0).Key)
	assert.Equal(t, bson.D{{Key: "session", Value: "s1"}, {Key: "exercise", Value: "examA"}}, stage(progress, 0).Value)

	presenter := presenterPipeline("s1")
	assert.Equal(t, bson.D{{Key: "session", Value: "s1"}}, stage(presenter, 0).Value)
	assert.Equal(t, "$project", stage(presenter, len(presenter)-1).Key)

	viewer := viewerPipeline("s1", "alice")
	assert.Equal(t, bson.D{{Key: "session", Value: "s1"}, {Key: "answeree", Value: "alice"}}, stage(viewer, 0).Value)
	assert.Equal(t, "$sort", stage(viewer, 1).Key)
}
