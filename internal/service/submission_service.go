package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"exercisehub/internal/model"
	"exercisehub/internal/repository"
)

// progressTimeout bounds the detached progress broadcast
const progressTimeout = 10 * time.Second

// SubmissionRequest is one participant's answer to an exercise
type SubmissionRequest struct {
	ExerciseID string   `json:"exerciseId"`
	SessionID  string   `json:"sessionId"`
	AnswereeID string   `json:"answereeId"`
	Answers    any      `json:"answers"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// SubmissionService records submissions and projects the log into the
// progress, presenter and viewer views
type SubmissionService struct {
	submissions repository.SubmissionRepo
	exercises   repository.ExerciseRepo
	emitter     Emitter
	role        string

	inflight sync.WaitGroup
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(submissions repository.SubmissionRepo, exercises repository.ExerciseRepo) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		exercises:   exercises,
		role:        model.RoleController,
	}
}

// SetEmitter sets the emitter for progress events
func (s *SubmissionService) SetEmitter(e Emitter) {
	s.emitter = e
}

// SetControllerRole sets the role that receives progress events
func (s *SubmissionService) SetControllerRole(role string) {
	if role != "" {
		s.role = role
	}
}

// Record appends a submission and starts a progress broadcast for its
// exercise. The write is awaited, the broadcast is not.
func (s *SubmissionService) Record(ctx context.Context, req SubmissionRequest) (*model.Submission, error) {
	if req.ExerciseID == "" || req.SessionID == "" || req.AnswereeID == "" {
		return nil, model.ErrInvalidSubmission
	}

	exercise, err := s.exercises.GetByID(ctx, req.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("load exercise %s: %w", req.ExerciseID, err)
	}
	if exercise == nil {
		return nil, fmt.Errorf("exercise %s: %w", req.ExerciseID, model.ErrNotFound)
	}

	submission := &model.Submission{
		ExerciseID: req.ExerciseID,
		SessionID:  req.SessionID,
		AnswereeID: req.AnswereeID,
		Answers:    req.Answers,
		Confidence: req.Confidence,
		SubmitDate: time.Now().UTC(),
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), progressTimeout)
		defer cancel()
		if err := s.BroadcastProgress(bctx, submission.SessionID, submission.ExerciseID); err != nil {
			log.Printf("Warning: progress broadcast for exercise %s in session %s failed: %v",
				submission.ExerciseID, submission.SessionID, err)
		}
	}()

	return submission, nil
}

// Wait blocks until every started progress broadcast has finished
func (s *SubmissionService) Wait() {
	s.inflight.Wait()
}

// BroadcastProgress recomputes the progress of one exercise and pushes it
// to the controller role of the session
func (s *SubmissionService) BroadcastProgress(ctx context.Context, sessionID, exerciseID string) error {
	progress, err := s.Progress(ctx, sessionID, exerciseID)
	if err != nil {
		return err
	}
	if s.emitter == nil {
		return nil
	}
	s.emitter.EmitToRole(sessionID, s.role, model.QuestionTypeEventName, model.QuestionTypeEvent{
		QuestionType: model.ExerciseTag,
		Type:         model.EventProgress,
		Exercise:     progress,
	})
	return nil
}

// Progress returns the distinct answerees of an exercise in a session
func (s *SubmissionService) Progress(ctx context.Context, sessionID, exerciseID string) (*model.ExerciseSubmissions, error) {
	progress, err := s.submissions.Progress(ctx, sessionID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("progress of exercise %s: %w", exerciseID, err)
	}
	return progress, nil
}

// PresenterSnapshot rebuilds the presenter view of a session from the log
func (s *SubmissionService) PresenterSnapshot(ctx context.Context, sessionID string) ([]model.ExerciseSubmissions, error) {
	exercises, err := s.submissions.PresenterSnapshot(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("presenter snapshot of session %s: %w", sessionID, err)
	}
	return exercises, nil
}

// ViewerSnapshot rebuilds one participant's view of a session from the log
func (s *SubmissionService) ViewerSnapshot(ctx context.Context, sessionID, answereeID string) ([]model.ViewerExercise, error) {
	exercises, err := s.submissions.ViewerSnapshot(ctx, sessionID, answereeID)
	if err != nil {
		return nil, fmt.Errorf("viewer snapshot of %s in session %s: %w", answereeID, sessionID, err)
	}
	return exercises, nil
}
