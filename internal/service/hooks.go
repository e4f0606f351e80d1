package service

import (
	"context"
	"fmt"

	"exercisehub/internal/model"
)

// ExerciseHooks is the lifecycle surface of the exercise component: one
// method per event the host raises.
type ExerciseHooks interface {
	DocumentParsed(ctx context.Context, req ParseRequest) (*ParseResult, error)
	SubmissionReceived(ctx context.Context, req SubmissionRequest) (*model.Submission, error)
	SettingsUpdateRequested(ctx context.Context, req SettingsUpdateRequest) (*SettingsUpdateResult, error)
	ParticipantConnected(ctx context.Context, info ConnectInfo) error
}

var _ ExerciseHooks = (*ExerciseService)(nil)

// ConnectInfo describes a socket that joined a session
type ConnectInfo struct {
	SessionID  string
	SocketID   string
	Role       string
	AnswereeID string
}

// ExerciseService implements ExerciseHooks on top of the synchronizer and
// the submission log
type ExerciseService struct {
	sync        *SyncService
	submissions *SubmissionService
	emitter     Emitter
	ctrlRole    string
}

// NewExerciseService creates the hook implementation
func NewExerciseService(sync *SyncService, submissions *SubmissionService) *ExerciseService {
	return &ExerciseService{
		sync:        sync,
		submissions: submissions,
		ctrlRole:    model.RoleController,
	}
}

// SetEmitter sets the emitter used for restore and progress events
func (s *ExerciseService) SetEmitter(e Emitter) {
	s.emitter = e
	s.submissions.SetEmitter(e)
}

// SetControllerRole sets the presenter role name
func (s *ExerciseService) SetControllerRole(role string) {
	if role != "" {
		s.ctrlRole = role
		s.submissions.SetControllerRole(role)
	}
}

func (s *ExerciseService) DocumentParsed(ctx context.Context, req ParseRequest) (*ParseResult, error) {
	return s.sync.ParseDocument(ctx, req)
}

func (s *ExerciseService) SubmissionReceived(ctx context.Context, req SubmissionRequest) (*model.Submission, error) {
	return s.submissions.Record(ctx, req)
}

func (s *ExerciseService) SettingsUpdateRequested(ctx context.Context, req SettingsUpdateRequest) (*SettingsUpdateResult, error) {
	return s.sync.UpdateExerciseSettings(ctx, req)
}

// ParticipantConnected replays the log to the new socket. A presenter gets
// the presenter snapshot; a viewer gets its own snapshot and the presenters
// of the session get a fresh presenter snapshot.
func (s *ExerciseService) ParticipantConnected(ctx context.Context, info ConnectInfo) error {
	if info.SessionID == "" || s.emitter == nil {
		return nil
	}

	if info.Role == s.ctrlRole {
		exercises, err := s.submissions.PresenterSnapshot(ctx, info.SessionID)
		if err != nil {
			return err
		}
		s.emitter.EmitToSocket(info.SocketID, model.QuestionTypeEventName, restoreEvent(model.EventRestorePresenter, exercises))
		return nil
	}

	viewer, err := s.submissions.ViewerSnapshot(ctx, info.SessionID, info.AnswereeID)
	if err != nil {
		return err
	}
	s.emitter.EmitToSocket(info.SocketID, model.QuestionTypeEventName, restoreEvent(model.EventRestoreViewer, viewer))

	presenter, err := s.submissions.PresenterSnapshot(ctx, info.SessionID)
	if err != nil {
		return fmt.Errorf("refresh presenters: %w", err)
	}
	s.emitter.EmitToRole(info.SessionID, s.ctrlRole, model.QuestionTypeEventName, restoreEvent(model.EventRestorePresenter, presenter))
	return nil
}

func restoreEvent(t model.EventType, exercises any) model.QuestionTypeEvent {
	return model.QuestionTypeEvent{
		QuestionType: model.ExerciseTag,
		Type:         t,
		Exercises:    exercises,
	}
}
