package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"exercisehub/internal/model"
	"exercisehub/internal/settings"
)

// MemoryStore keeps exercises, presentations and the submission log in
// process memory. It backs STORE_DRIVER=memory and the service tests, and
// computes the same projections as the aggregation pipelines.
type MemoryStore struct {
	mu            sync.RWMutex
	validator     *settings.Validator
	exercises     map[string]model.Exercise
	presentations map[string]model.Presentation
	submissions   []model.Submission
}

// NewMemoryStore creates an empty store validating settings with validator
func NewMemoryStore(validator *settings.Validator) *MemoryStore {
	return &MemoryStore{
		validator:     validator,
		exercises:     map[string]model.Exercise{},
		presentations: map[string]model.Presentation{},
	}
}

// Exercises returns the store's ExerciseRepo view
func (s *MemoryStore) Exercises() ExerciseRepo { return memExercises{s} }

// Presentations returns the store's PresentationRepo view
func (s *MemoryStore) Presentations() PresentationRepo { return memPresentations{s} }

// Submissions returns the store's SubmissionRepo view
func (s *MemoryStore) Submissions() SubmissionRepo { return memSubmissions{s} }

type memExercises struct{ s *MemoryStore }

func (m memExercises) Create(_ context.Context, exercise *model.Exercise) error {
	if err := checkSettings(m.s.validator, exercise.Settings); err != nil {
		return err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, exists := m.s.exercises[exercise.ID]; exists {
		return fmt.Errorf("insert exercise %s: duplicate key", exercise.ID)
	}
	now := time.Now().UTC()
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = now
	}
	exercise.UpdatedAt = now
	m.s.exercises[exercise.ID] = cloneExercise(*exercise)
	return nil
}

func (m memExercises) GetByID(_ context.Context, id string) (*model.Exercise, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	exercise, ok := m.s.exercises[id]
	if !ok {
		return nil, nil
	}
	out := cloneExercise(exercise)
	return &out, nil
}

func (m memExercises) ListByPresentation(_ context.Context, presentationID string) ([]*model.Exercise, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []*model.Exercise
	for _, exercise := range m.s.exercises {
		if exercise.PresentationID != presentationID {
			continue
		}
		c := cloneExercise(exercise)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m memExercises) Save(_ context.Context, exercise *model.Exercise) error {
	if err := checkSettings(m.s.validator, exercise.Settings); err != nil {
		return err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.exercises[exercise.ID]; !ok {
		return fmt.Errorf("exercise %s: %w", exercise.ID, model.ErrNotFound)
	}
	exercise.UpdatedAt = time.Now().UTC()
	m.s.exercises[exercise.ID] = cloneExercise(*exercise)
	return nil
}

func (m memExercises) UpdateSettings(_ context.Context, exerciseID string, s model.Settings) error {
	if err := checkSettings(m.s.validator, s); err != nil {
		return err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	exercise, ok := m.s.exercises[exerciseID]
	if !ok {
		return fmt.Errorf("exercise %s: %w", exerciseID, model.ErrNotFound)
	}
	exercise.Settings = s.Clone()
	exercise.UpdatedAt = time.Now().UTC()
	m.s.exercises[exerciseID] = exercise
	return nil
}

type memPresentations struct{ s *MemoryStore }

func (m memPresentations) GetByID(_ context.Context, id string) (*model.Presentation, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	presentation, ok := m.s.presentations[id]
	if !ok {
		return nil, nil
	}
	presentation.Settings = presentation.Settings.Clone()
	return &presentation, nil
}

func (m memPresentations) Upsert(_ context.Context, presentation *model.Presentation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	now := time.Now().UTC()
	if presentation.CreatedAt.IsZero() {
		presentation.CreatedAt = now
	}
	presentation.UpdatedAt = now

	stored := *presentation
	stored.Settings = presentation.Settings.Clone()
	m.s.presentations[presentation.ID] = stored
	return nil
}

type memSubmissions struct{ s *MemoryStore }

func (m memSubmissions) Create(_ context.Context, submission *model.Submission) error {
	prepareSubmission(submission)

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.submissions = append(m.s.submissions, *submission)
	return nil
}

func (m memSubmissions) Count(_ context.Context, sessionID, exerciseID, answereeID string) (int64, error) {
	var n int64
	m.each(func(sub model.Submission) {
		if sub.SessionID == sessionID && sub.ExerciseID == exerciseID && sub.AnswereeID == answereeID {
			n++
		}
	})
	return n, nil
}

func (m memSubmissions) Progress(_ context.Context, sessionID, exerciseID string) (*model.ExerciseSubmissions, error) {
	var matched []model.Submission
	m.each(func(sub model.Submission) {
		if sub.SessionID == sessionID && sub.ExerciseID == exerciseID {
			matched = append(matched, sub)
		}
	})
	return &model.ExerciseSubmissions{UID: exerciseID, Submissions: distinctAnswerees(matched)}, nil
}

func (m memSubmissions) PresenterSnapshot(_ context.Context, sessionID string) ([]model.ExerciseSubmissions, error) {
	byExercise := map[string][]model.Submission{}
	m.each(func(sub model.Submission) {
		if sub.SessionID == sessionID {
			byExercise[sub.ExerciseID] = append(byExercise[sub.ExerciseID], sub)
		}
	})

	out := []model.ExerciseSubmissions{}
	for _, id := range exercisesByFirstSubmission(byExercise) {
		out = append(out, model.ExerciseSubmissions{UID: id, Submissions: distinctAnswerees(byExercise[id])})
	}
	return out, nil
}

func (m memSubmissions) ViewerSnapshot(_ context.Context, sessionID, answereeID string) ([]model.ViewerExercise, error) {
	byExercise := map[string][]model.Submission{}
	m.each(func(sub model.Submission) {
		if sub.SessionID == sessionID && sub.AnswereeID == answereeID {
			byExercise[sub.ExerciseID] = append(byExercise[sub.ExerciseID], sub)
		}
	})

	out := []model.ViewerExercise{}
	for _, id := range exercisesByFirstSubmission(byExercise) {
		subs := byExercise[id]
		latest := subs[0]
		for _, sub := range subs[1:] {
			// log order breaks ties between equal submit dates
			if !sub.SubmitDate.Before(latest.SubmitDate) {
				latest = sub
			}
		}
		out = append(out, model.ViewerExercise{
			UID:           id,
			SubmissionNum: len(subs),
			Confidence:    latest.Confidence,
		})
	}
	return out, nil
}

func (m memSubmissions) EnsureIndexes(context.Context) error { return nil }

// each visits the log in append order under the read lock
func (m memSubmissions) each(fn func(model.Submission)) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, sub := range m.s.submissions {
		fn(sub)
	}
}

// distinctAnswerees lists each answeree once, ordered by first submission
func distinctAnswerees(subs []model.Submission) []string {
	first := map[string]time.Time{}
	order := []string{}
	for _, sub := range subs {
		t, seen := first[sub.AnswereeID]
		if !seen {
			order = append(order, sub.AnswereeID)
			first[sub.AnswereeID] = sub.SubmitDate
			continue
		}
		if sub.SubmitDate.Before(t) {
			first[sub.AnswereeID] = sub.SubmitDate
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		ti, tj := first[order[i]], first[order[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return order[i] < order[j]
	})
	return order
}

func exercisesByFirstSubmission(byExercise map[string][]model.Submission) []string {
	first := make(map[string]time.Time, len(byExercise))
	ids := make([]string, 0, len(byExercise))
	for id, subs := range byExercise {
		ids = append(ids, id)
		earliest := subs[0].SubmitDate
		for _, sub := range subs[1:] {
			if sub.SubmitDate.Before(earliest) {
				earliest = sub.SubmitDate
			}
		}
		first[id] = earliest
	}
	sort.Slice(ids, func(i, j int) bool {
		if !first[ids[i]].Equal(first[ids[j]]) {
			return first[ids[i]].Before(first[ids[j]])
		}
		return ids[i] < ids[j]
	})
	return ids
}

func cloneExercise(e model.Exercise) model.Exercise {
	e.Settings = e.Settings.Clone()
	if e.Questions != nil {
		e.Questions = append([]model.QuestionRef{}, e.Questions...)
	}
	if e.AssessmentTypes != nil {
		e.AssessmentTypes = append([]model.AssessmentType{}, e.AssessmentTypes...)
	}
	return e
}
