package identity

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exercisehub/internal/markup"
	"exercisehub/internal/model"
)

var questionTags = []string{"asq-multi-choice", "asq-highlight", "asq-code-input", "asq-js-function-body"}

func sequence(prefix string) Generator {
	n := 0
	return GeneratorFunc(func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	})
}

func firstExercise(t *testing.T, src string) (*markup.Document, markup.Element) {
	t.Helper()
	doc, err := markup.Parse(src)
	require.NoError(t, err)
	els := doc.FindAll(model.ExerciseTag)
	require.NotEmpty(t, els)
	return doc, els[0]
}

func TestEnsureAssignsAndIsIdempotent(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no uid", `<asq-exercise></asq-exercise>`, "gen-1"},
		{"blank uid", `<asq-exercise uid="   "></asq-exercise>`, "gen-1"},
		{"existing uid", `<asq-exercise uid="a-uid"></asq-exercise>`, "a-uid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, el := firstExercise(t, tt.src)
			a := NewAssigner(sequence("gen"))

			first := a.Ensure(el)
			assert.Equal(t, tt.want, first)

			second := a.Ensure(el)
			assert.Equal(t, first, second)

			v, ok := el.Attr(Attr)
			require.True(t, ok)
			assert.Equal(t, first, v)
		})
	}
}

func TestObjectIDGenerator(t *testing.T) {
	id := ObjectIDGenerator.NewID()
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{24}$`), id)
	assert.NotEqual(t, id, ObjectIDGenerator.NewID())
}

func TestAssignTreeQuestions(t *testing.T) {
	doc, el := firstExercise(t, `<asq-exercise uid="ex"><asq-multi-choice></asq-multi-choice><div><asq-highlight></asq-highlight></div><asq-code-input uid="uid-1"></asq-code-input><p uid="ignored"></p></asq-exercise>`)

	tree, err := NewAssigner(sequence("q")).AssignTree(el, questionTags)
	require.NoError(t, err)

	assert.Equal(t, "ex", tree.ExerciseID)
	assert.Equal(t, []string{"q-1", "q-2", "uid-1"}, tree.QuestionIDs)

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, out, `<asq-multi-choice uid="q-1">`)
	assert.Contains(t, out, `<asq-highlight uid="q-2">`)
}

func TestAssignTreeDuplicateQuestion(t *testing.T) {
	_, el := firstExercise(t, `<asq-exercise uid="ex"><asq-code-input uid="same"></asq-code-input><asq-js-function-body uid="same"></asq-js-function-body><asq-highlight></asq-highlight></asq-exercise>`)

	gen := sequence("q")
	tree, err := NewAssigner(gen).AssignTree(el, questionTags)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)
	assert.Empty(t, tree.ExerciseID)

	// processing stopped before the highlight element
	_, ok := el.FindAll("asq-highlight")[0].Attr(Attr)
	assert.False(t, ok)
}

func TestAssignTreeWithoutQuestionTags(t *testing.T) {
	_, el := firstExercise(t, `<asq-exercise><asq-code-input></asq-code-input></asq-exercise>`)

	tree, err := NewAssigner(sequence("x")).AssignTree(el, nil)
	require.NoError(t, err)
	assert.Equal(t, "x-1", tree.ExerciseID)
	assert.Empty(t, tree.QuestionIDs)
}
