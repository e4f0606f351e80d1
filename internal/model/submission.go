package model

import "time"

// Submission is one immutable entry of the submission log
type Submission struct {
	ID         string    `json:"id" bson:"_id"`
	ExerciseID string    `json:"exerciseId" bson:"exercise"`
	SessionID  string    `json:"sessionId" bson:"session"`
	AnswereeID string    `json:"answereeId" bson:"answeree"`
	Answers    any       `json:"answers" bson:"answers"` // opaque, question-type specific
	Confidence *float64  `json:"confidence,omitempty" bson:"confidence,omitempty"`
	SubmitDate time.Time `json:"submitDate" bson:"submitDate"` // assigned on acceptance
}

// ExerciseSubmissions lists the distinct answerees that submitted to an exercise
type ExerciseSubmissions struct {
	UID         string   `json:"uid" bson:"uid"`
	Submissions []string `json:"submissions" bson:"submissions"`
}

// ViewerExercise summarizes one participant's history on an exercise
type ViewerExercise struct {
	UID           string   `json:"uid" bson:"uid"`
	SubmissionNum int      `json:"submissionNum" bson:"submissionNum"`
	Confidence    *float64 `json:"confidence" bson:"confidence"` // most recent
}
