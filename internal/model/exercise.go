package model

import "time"

// AssessmentType is one of the grading modes an exercise supports
type AssessmentType string

const (
	AssessmentSelf AssessmentType = "self"
	AssessmentPeer AssessmentType = "peer"
	AssessmentAuto AssessmentType = "auto"
)

// Valid reports whether t is a known assessment tag
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentSelf, AssessmentPeer, AssessmentAuto:
		return true
	}
	return false
}

// QuestionRef points at a question element nested in an exercise
type QuestionRef struct {
	ID string `json:"id" bson:"id"`
}

// Exercise is a gradable unit embedded in a presentation
type Exercise struct {
	ID              string           `json:"uid" bson:"_id"`
	PresentationID  string           `json:"presentationId,omitempty" bson:"presentation,omitempty"`
	Stem            string           `json:"stem" bson:"stem"` // inner HTML of asq-stem, may be empty
	Questions       []QuestionRef    `json:"questions" bson:"questions"`
	AssessmentTypes []AssessmentType `json:"assessmentTypes" bson:"assessmentTypes"`
	Settings        Settings         `json:"settings" bson:"settings"`
	CreatedAt       time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// QuestionIDs returns the question identities in document order
func (e *Exercise) QuestionIDs() []string {
	ids := make([]string, len(e.Questions))
	for i, q := range e.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Presentation owns exercises and supplies presentation-level settings
type Presentation struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Settings  Settings  `json:"settings" bson:"settings"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
