package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exercisehub/internal/model"
	"exercisehub/internal/settings"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func conf(v float64) *float64 { return &v }

func seedLog(t *testing.T, repo SubmissionRepo, subs ...model.Submission) {
	t.Helper()
	for i := range subs {
		require.NoError(t, repo.Create(context.Background(), &subs[i]))
	}
}

func TestSnapshotsDeduplicateAnswerees(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore(nil).Submissions()
	seedLog(t, repo,
		model.Submission{SessionID: "s1", ExerciseID: "examA", AnswereeID: "alice", SubmitDate: t0.Add(1 * time.Second), Confidence: conf(2)},
		model.Submission{SessionID: "s1", ExerciseID: "examA", AnswereeID: "bob", SubmitDate: t0.Add(2 * time.Second)},
		model.Submission{SessionID: "s1", ExerciseID: "examA", AnswereeID: "alice", SubmitDate: t0.Add(3 * time.Second), Confidence: conf(4)},
		model.Submission{SessionID: "other", ExerciseID: "examA", AnswereeID: "carol", SubmitDate: t0},
	)

	presenter, err := repo.PresenterSnapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []model.ExerciseSubmissions{{UID: "examA", Submissions: []string{"alice", "bob"}}}, presenter)

	viewer, err := repo.ViewerSnapshot(ctx, "s1", "alice")
	require.NoError(t, err)
	require.Len(t, viewer, 1)
	assert.Equal(t, "examA", viewer[0].UID)
	assert.Equal(t, 2, viewer[0].SubmissionNum)
	require.NotNil(t, viewer[0].Confidence)
	assert.Equal(t, 4.0, *viewer[0].Confidence)

	progress, err := repo.Progress(ctx, "s1", "examA")
	require.NoError(t, err)
	assert.Equal(t, &model.ExerciseSubmissions{UID: "examA", Submissions: []string{"alice", "bob"}}, progress)
}

func TestSnapshotsOrderExercisesByFirstSubmission(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore(nil).Submissions()
	seedLog(t, repo,
		model.Submission{SessionID: "s1", ExerciseID: "second", AnswereeID: "bob", SubmitDate: t0.Add(time.Minute)},
		model.Submission{SessionID: "s1", ExerciseID: "first", AnswereeID: "bob", SubmitDate: t0},
		model.Submission{SessionID: "s1", ExerciseID: "first", AnswereeID: "alice", SubmitDate: t0.Add(2 * time.Minute)},
	)

	presenter, err := repo.PresenterSnapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []model.ExerciseSubmissions{
		{UID: "first", Submissions: []string{"bob", "alice"}},
		{UID: "second", Submissions: []string{"bob"}},
	}, presenter)

	viewer, err := repo.ViewerSnapshot(ctx, "s1", "bob")
	require.NoError(t, err)
	assert.Equal(t, []model.ViewerExercise{
		{UID: "first", SubmissionNum: 1},
		{UID: "second", SubmissionNum: 1},
	}, viewer)
}

func TestEmptySnapshots(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore(nil).Submissions()

	presenter, err := repo.PresenterSnapshot(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, presenter)
	assert.Empty(t, presenter)

	progress, err := repo.Progress(ctx, "nobody", "examA")
	require.NoError(t, err)
	assert.Equal(t, "examA", progress.UID)
	assert.Empty(t, progress.Submissions)
}

func TestSubmissionLogIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore(nil).Submissions()

	const n = 5
	ids := map[string]bool{}
	for i := 0; i < n; i++ {
		sub := &model.Submission{SessionID: "s1", ExerciseID: "examA", AnswereeID: "alice", Answers: []any{i}}
		require.NoError(t, repo.Create(ctx, sub))
		assert.NotEmpty(t, sub.ID)
		assert.False(t, sub.SubmitDate.IsZero())
		ids[sub.ID] = true
	}

	count, err := repo.Count(ctx, "s1", "examA", "alice")
	require.NoError(t, err)
	assert.EqualValues(t, n, count)
	assert.Len(t, ids, n)
}

func TestMemoryExerciseSettings(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore(settings.NewValidator()).Exercises()

	exercise := &model.Exercise{
		ID: "ex-1",
		Settings: model.Settings{
			{Key: "confidence", Value: false, Kind: model.SettingBoolean},
		},
	}
	require.NoError(t, repo.Create(ctx, exercise))
	assert.Error(t, repo.Create(ctx, exercise))

	err := repo.UpdateSettings(ctx, "ex-1", model.Settings{{Key: "confidence", Value: "yes", Kind: model.SettingBoolean}})
	rejection, ok := model.AsSettingError(err)
	require.True(t, ok)
	assert.Equal(t, model.RejectInvalidValue, rejection.Kind)

	err = repo.UpdateSettings(ctx, "ex-1", model.Settings{
		{Key: "confidence", Value: true, Kind: model.SettingBoolean},
		{Key: "confidence", Value: true, Kind: model.SettingBoolean},
	})
	rejection, ok = model.AsSettingError(err)
	require.True(t, ok)
	assert.Equal(t, model.RejectUnknownKey, rejection.Kind)

	require.NoError(t, repo.UpdateSettings(ctx, "ex-1", model.Settings{{Key: "confidence", Value: true, Kind: model.SettingBoolean}}))
	stored, err := repo.GetByID(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, true, stored.Settings[0].Value)

	err = repo.UpdateSettings(ctx, "missing", nil)
	assert.ErrorIs(t, err, model.ErrNotFound)

	missing, err := repo.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	require.NoError(t, store.Presentations().Upsert(ctx, &model.Presentation{
		ID:       "p1",
		Settings: model.Settings{{Key: "maxNumSubmissions", Value: 3.0, Kind: model.SettingNumber}},
	}))

	got, err := store.Presentations().GetByID(ctx, "p1")
	require.NoError(t, err)
	got.Settings[0].Value = 9.0

	again, err := store.Presentations().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, again.Settings[0].Value)
}
