// Package identity guarantees that exercise and question elements carry a
// unique, stable uid attribute.
package identity

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"exercisehub/internal/markup"
	"exercisehub/internal/model"
)

// Attr is the identity attribute written on elements
const Attr = "uid"

// Generator mints new globally-unique identifiers
type Generator interface {
	NewID() string
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func() string

func (f GeneratorFunc) NewID() string { return f() }

// ObjectIDGenerator mints 24-char hex ObjectIDs, the same ids the store uses
var ObjectIDGenerator Generator = GeneratorFunc(func() string {
	return primitive.NewObjectID().Hex()
})

// Assigner assigns identities to elements
type Assigner struct {
	gen Generator
}

// NewAssigner creates an assigner; a nil generator falls back to ObjectIDGenerator
func NewAssigner(gen Generator) *Assigner {
	if gen == nil {
		gen = ObjectIDGenerator
	}
	return &Assigner{gen: gen}
}

// Ensure returns the element's uid when present and non-blank, otherwise
// writes a freshly generated one onto the element and returns it.
func (a *Assigner) Ensure(el markup.Element) string {
	if uid, ok := el.Attr(Attr); ok && strings.TrimSpace(uid) != "" {
		return uid
	}
	uid := a.gen.NewID()
	el.SetAttr(Attr, uid)
	return uid
}

// Tree holds the identities of an exercise and its questions
type Tree struct {
	ExerciseID  string
	QuestionIDs []string // document order
}

// AssignTree identifies the exercise element and every descendant whose tag
// is in questionTags. It stops at the first duplicate question uid.
func (a *Assigner) AssignTree(exercise markup.Element, questionTags []string) (Tree, error) {
	tree := Tree{ExerciseID: a.Ensure(exercise)}

	allowed := make(map[string]struct{}, len(questionTags))
	for _, tag := range questionTags {
		allowed[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	if len(allowed) == 0 {
		return tree, nil
	}

	seen := make(map[string]struct{})
	for _, el := range exercise.FindAll(markup.AnyTag) {
		if _, ok := allowed[el.Tag()]; !ok {
			continue
		}
		uid := a.Ensure(el)
		if _, dup := seen[uid]; dup {
			return Tree{}, fmt.Errorf("exercise %s: %w: %s", tree.ExerciseID, model.ErrDuplicateIdentity, uid)
		}
		seen[uid] = struct{}{}
		tree.QuestionIDs = append(tree.QuestionIDs, uid)
	}
	return tree, nil
}
