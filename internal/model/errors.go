package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateIdentity   = errors.New("an exercise cannot have two questions with the same uid")
	ErrMalformedAttributes = errors.New("expected attributes to be object-like")
	ErrInvalidSubmission   = errors.New("submission requires exercise, session and answeree ids")
)

// RejectionKind classifies why the store refused a setting
type RejectionKind int

const (
	RejectInvalidValue RejectionKind = iota + 1 // value violates kind/params, recoverable
	RejectUnknownKey                            // key is not part of the collection
	RejectStorage                               // write failed for a non-validation reason
)

func (k RejectionKind) String() string {
	switch k {
	case RejectInvalidValue:
		return "invalid_value"
	case RejectUnknownKey:
		return "unknown_key"
	case RejectStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// SettingError is returned by the persistence layer when it rejects a setting
type SettingError struct {
	Key  string
	Kind RejectionKind
	Err  error
}

func (e *SettingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("setting %q rejected (%s): %v", e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("setting %q rejected (%s)", e.Key, e.Kind)
}

func (e *SettingError) Unwrap() error { return e.Err }

// AsSettingError unwraps err into a *SettingError
func AsSettingError(err error) (*SettingError, bool) {
	var se *SettingError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
