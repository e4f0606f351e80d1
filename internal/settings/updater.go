package settings

import (
	"context"
	"fmt"
	"log"

	"exercisehub/internal/model"
)

// MaxAttempts bounds the conflict retry of a settings update
const MaxAttempts = 2

// State is a step of the settings update protocol
type State string

const (
	StatePending    State = "pending"
	StateValidating State = "validating"
	StateCorrected  State = "corrected"
	StateApplied    State = "applied"
	StateFailed     State = "failed"
)

// Status is the caller-facing outcome of an update
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Store persists the complete setting collection of an exercise. A value
// violation is reported as a *model.SettingError.
type Store interface {
	UpdateSettings(ctx context.Context, exerciseID string, settings model.Settings) error
}

// FallbackPolicy supplies the replacement for a rejected setting value
type FallbackPolicy interface {
	Fallback(rejected model.Setting) (any, bool)
}

// FallbackFunc adapts a function to FallbackPolicy
type FallbackFunc func(rejected model.Setting) (any, bool)

func (f FallbackFunc) Fallback(rejected model.Setting) (any, bool) { return f(rejected) }

// PresentationFallback replaces a rejected value with the presentation value
func PresentationFallback(presentation model.Settings) FallbackPolicy {
	flat := presentation.Values()
	return FallbackFunc(func(rejected model.Setting) (any, bool) {
		v, ok := flat[rejected.Key]
		return v, ok
	})
}

// TemplateFallback replaces a rejected value with the template default
func TemplateFallback(t Template) FallbackPolicy {
	return FallbackFunc(func(rejected model.Setting) (any, bool) {
		return t.Default(rejected.Key)
	})
}

// ChainFallback asks each policy in turn
func ChainFallback(policies ...FallbackPolicy) FallbackPolicy {
	return FallbackFunc(func(rejected model.Setting) (any, bool) {
		for _, p := range policies {
			if p == nil {
				continue
			}
			if v, ok := p.Fallback(rejected); ok {
				return v, true
			}
		}
		return nil, false
	})
}

// Correction records one value replaced between attempts
type Correction struct {
	Key         string `json:"key"`
	Rejected    any    `json:"rejected"`
	Replacement any    `json:"replacement"`
}

// Result is the outcome of Apply. Settings holds the last attempted
// collection, whether or not it was persisted.
type Result struct {
	ExerciseID  string         `json:"exerciseId"`
	Settings    model.Settings `json:"settings"`
	Status      Status         `json:"status"`
	State       State          `json:"-"`
	Attempts    int            `json:"-"`
	Transitions []State        `json:"-"`
	Corrections []Correction   `json:"-"`
	Err         error          `json:"-"`
}

func (r *Result) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}

func (r *Result) fail(err error) {
	r.Err = err
	r.Status = StatusFailed
	r.enter(StateFailed)
}

// Updater applies proposed settings through a Store, correcting an invalid
// value once from the fallback policy before giving up.
type Updater struct {
	store Store
}

// NewUpdater creates an updater persisting through store
func NewUpdater(store Store) *Updater {
	return &Updater{store: store}
}

// Apply attempts to persist proposed for exerciseID. A rejection that is not
// a value violation ends the update at once. An error is returned only when
// the store fails with something other than a *model.SettingError; every
// other outcome is described by the result.
func (u *Updater) Apply(ctx context.Context, exerciseID string, proposed model.Settings, fallback FallbackPolicy) (*Result, error) {
	res := &Result{
		ExerciseID: exerciseID,
		Settings:   proposed.Clone(),
	}
	res.enter(StatePending)

	for {
		res.enter(StateValidating)
		res.Attempts++

		err := u.store.UpdateSettings(ctx, exerciseID, res.Settings)
		if err == nil {
			res.Status = StatusSuccess
			res.enter(StateApplied)
			return res, nil
		}

		rejection, ok := model.AsSettingError(err)
		if !ok {
			res.fail(err)
			return res, err
		}
		if rejection.Kind != model.RejectInvalidValue {
			res.fail(rejection)
			return res, nil
		}
		if res.Attempts >= MaxAttempts {
			log.Printf("Warning: settings for exercise %s rejected after %d attempts: %v", exerciseID, res.Attempts, rejection)
			res.fail(rejection)
			return res, nil
		}

		i := res.Settings.Index(rejection.Key)
		if i < 0 {
			res.fail(fmt.Errorf("rejected key %q is not part of the update: %w", rejection.Key, rejection))
			return res, nil
		}
		var (
			replacement any
			found       bool
		)
		if fallback != nil {
			replacement, found = fallback.Fallback(res.Settings[i])
		}
		if !found {
			res.fail(fmt.Errorf("no fallback for %q: %w", rejection.Key, rejection))
			return res, nil
		}

		res.Corrections = append(res.Corrections, Correction{
			Key:         rejection.Key,
			Rejected:    res.Settings[i].Value,
			Replacement: replacement,
		})
		res.Settings[i].Value = normalize(res.Settings[i].Kind, replacement)
		res.enter(StateCorrected)
	}
}
