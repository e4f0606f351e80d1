package model

// QuestionTypeEventName is the transport event every exercise payload travels under
const QuestionTypeEventName = "asq:question_type"

// ExerciseTag is the markup tag and question type of exercises
const ExerciseTag = "asq-exercise"

// Participant roles
const (
	RoleController = "ctrl"
	RoleViewer     = "viewer"
)

// EventType distinguishes question-type payloads
type EventType string

const (
	EventRestorePresenter EventType = "restorePresenter"
	EventRestoreViewer    EventType = "restoreViewer"
	EventProgress         EventType = "progress"
)

// QuestionTypeEvent is the payload pushed to connected participants
type QuestionTypeEvent struct {
	QuestionType string               `json:"questionType"`
	Type         EventType            `json:"type"`
	Exercises    any                  `json:"exercises,omitempty"` // restore payloads
	Exercise     *ExerciseSubmissions `json:"exercise,omitempty"`  // progress payload
}
