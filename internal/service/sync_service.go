package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"exercisehub/internal/codec"
	"exercisehub/internal/identity"
	"exercisehub/internal/markup"
	"exercisehub/internal/model"
	"exercisehub/internal/repository"
	"exercisehub/internal/settings"
)

// assessmentAttr carries both the assessment select setting and the
// comma separated list of assessment types
const assessmentAttr = "assessment"

// FallbackFactory builds the conflict-retry fallback for one presentation
type FallbackFactory func(presentation model.Settings) settings.FallbackPolicy

// SyncOptions configures which markup the synchronizer treats as exercises
type SyncOptions struct {
	ExerciseTag  string
	QuestionTags []string
}

// ParseRequest is a full document to synchronize
type ParseRequest struct {
	HTML           string   `json:"html"`
	PresentationID string   `json:"presentationId"`
	QuestionTags   []string `json:"questionTags,omitempty"` // overrides the configured allow-list
}

// ExerciseOutcome reports how one exercise of a parsed document was settled
type ExerciseOutcome struct {
	ExerciseID string          `json:"uid"`
	Created    bool            `json:"created"`
	Status     settings.Status `json:"status"`
	Attempts   int             `json:"attempts"`
}

// ParseResult is the rewritten document
type ParseResult struct {
	HTML      string            `json:"html"`
	Exercises []ExerciseOutcome `json:"exercises"`
}

// SettingsUpdateRequest is a partial settings update for one exercise
type SettingsUpdateRequest struct {
	ExerciseID string         `json:"exerciseId"`
	HTML       string         `json:"html"`
	Settings   map[string]any `json:"settings"`
}

// SettingsUpdateResult carries the document and the settings attempted
type SettingsUpdateResult struct {
	ExerciseID string          `json:"exerciseId"`
	HTML       string          `json:"html"`
	Settings   model.Settings  `json:"settings"`
	Status     settings.Status `json:"status"`
	Ignored    []string        `json:"ignored,omitempty"`
}

// SyncService keeps exercise markup and stored exercises consistent
type SyncService struct {
	exercises     repository.ExerciseRepo
	presentations repository.PresentationRepo
	assigner      *identity.Assigner
	template      settings.Template
	updater       *settings.Updater
	opts          SyncOptions
	fallback      FallbackFactory
}

// NewSyncService creates a new document synchronizer
func NewSyncService(
	exercises repository.ExerciseRepo,
	presentations repository.PresentationRepo,
	assigner *identity.Assigner,
	template settings.Template,
	opts SyncOptions,
) *SyncService {
	if opts.ExerciseTag == "" {
		opts.ExerciseTag = model.ExerciseTag
	}
	s := &SyncService{
		exercises:     exercises,
		presentations: presentations,
		assigner:      assigner,
		template:      template,
		updater:       settings.NewUpdater(exercises),
		opts:          opts,
	}
	s.fallback = func(presentation model.Settings) settings.FallbackPolicy {
		return settings.ChainFallback(
			settings.PresentationFallback(presentation),
			settings.TemplateFallback(s.template),
		)
	}
	return s
}

// SetFallbackFactory replaces the conflict-retry fallback policy
func (s *SyncService) SetFallbackFactory(f FallbackFactory) {
	if f != nil {
		s.fallback = f
	}
}

// extracted is an exercise read from markup, before any persistence
type extracted struct {
	el       markup.Element
	tree     identity.Tree
	stem     string
	types    []model.AssessmentType
	declared map[string]any
}

// ParseDocument assigns identities, persists every exercise in document
// order and writes the resolved settings back onto each exercise element.
// Extraction finishes for the whole document before anything is persisted,
// so an identity conflict leaves the store untouched.
func (s *SyncService) ParseDocument(ctx context.Context, req ParseRequest) (*ParseResult, error) {
	doc, err := markup.Parse(req.HTML)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	tags := req.QuestionTags
	if len(tags) == 0 {
		tags = s.opts.QuestionTags
	}

	defaults := s.template.Settings()
	var found []extracted
	for _, el := range doc.FindAll(s.opts.ExerciseTag) {
		ex, err := s.extract(el, tags, defaults)
		if err != nil {
			return nil, err
		}
		found = append(found, ex)
	}

	presentation, err := s.presentationSettings(ctx, req.PresentationID, true)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Exercises: make([]ExerciseOutcome, 0, len(found))}
	patches := make([]markup.AttrPatch, 0, len(found))
	for _, ex := range found {
		outcome, final, err := s.persist(ctx, req.PresentationID, ex, presentation)
		if err != nil {
			return nil, err
		}
		result.Exercises = append(result.Exercises, outcome)

		set, remove := codec.Encode(final)
		if len(ex.types) > 0 {
			set, remove = keepAssessment(set, remove)
		}
		patches = append(patches, markup.AttrPatch{Target: ex.el, Set: set, Remove: remove})
	}

	doc.Apply(patches...)
	if result.HTML, err = doc.Render(); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return result, nil
}

func (s *SyncService) extract(el markup.Element, tags []string, defaults model.Settings) (extracted, error) {
	tree, err := s.assigner.AssignTree(el, tags)
	if err != nil {
		return extracted{}, err
	}

	rec, err := codec.Decode(el.AttrMap())
	if err != nil {
		return extracted{}, fmt.Errorf("exercise %s: %w", tree.ExerciseID, err)
	}

	var stem string
	if st, ok := el.First("asq-stem"); ok {
		if stem, err = st.InnerHTML(); err != nil {
			return extracted{}, fmt.Errorf("exercise %s stem: %w", tree.ExerciseID, err)
		}
	}
	assessment, _ := el.Attr(assessmentAttr)
	declared := codec.Typed(rec, defaults)
	if strings.Contains(assessment, ",") {
		// a type list is not a single select value; the setting resolves from the lower tiers
		delete(declared, assessmentAttr)
	}

	return extracted{
		el:       el,
		tree:     tree,
		stem:     stem,
		types:    codec.ParseAssessmentTypes(assessment),
		declared: declared,
	}, nil
}

// keepAssessment drops the assessment attribute from a write-back so a
// declared type list survives the next parse unchanged.
func keepAssessment(set []markup.Attr, remove []string) ([]markup.Attr, []string) {
	keptSet := set[:0:0]
	for _, a := range set {
		if a.Key != assessmentAttr {
			keptSet = append(keptSet, a)
		}
	}
	keptRemove := remove[:0:0]
	for _, key := range remove {
		if key != assessmentAttr {
			keptRemove = append(keptRemove, key)
		}
	}
	return keptSet, keptRemove
}

// persist creates or refreshes one exercise and applies its resolved
// settings. It returns the settings to write back onto the element.
func (s *SyncService) persist(ctx context.Context, presentationID string, ex extracted, presentation model.Settings) (ExerciseOutcome, model.Settings, error) {
	id := ex.tree.ExerciseID
	outcome := ExerciseOutcome{ExerciseID: id}

	questions := make([]model.QuestionRef, len(ex.tree.QuestionIDs))
	for i, qid := range ex.tree.QuestionIDs {
		questions[i] = model.QuestionRef{ID: qid}
	}

	exercise, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return outcome, nil, fmt.Errorf("load exercise %s: %w", id, err)
	}
	if exercise == nil {
		exercise = &model.Exercise{
			ID:              id,
			PresentationID:  presentationID,
			Stem:            ex.stem,
			Questions:       questions,
			AssessmentTypes: ex.types,
			Settings:        s.template.Settings(),
		}
		if err := s.exercises.Create(ctx, exercise); err != nil {
			return outcome, nil, err
		}
		outcome.Created = true
	} else {
		exercise.Stem = ex.stem
		exercise.Questions = questions
		exercise.AssessmentTypes = ex.types
		if presentationID != "" {
			exercise.PresentationID = presentationID
		}
		if err := s.exercises.Save(ctx, exercise); err != nil {
			return outcome, nil, err
		}
	}

	resolved := settings.Resolve(ex.declared, presentation, s.template)
	res, err := s.updater.Apply(ctx, id, resolved, s.fallback(presentation))
	if err != nil {
		return outcome, nil, err
	}
	outcome.Status = res.Status
	outcome.Attempts = res.Attempts

	if res.Status != settings.StatusSuccess {
		log.Printf("Warning: exercise %s keeps its stored settings: %v", id, res.Err)
		return outcome, exercise.Settings, nil
	}
	return outcome, res.Settings, nil
}

// UpdateExerciseSettings merges a partial update into the stored settings
// of one exercise and rewrites only that exercise's element. A failed
// update returns the document unchanged.
func (s *SyncService) UpdateExerciseSettings(ctx context.Context, req SettingsUpdateRequest) (*SettingsUpdateResult, error) {
	exercise, err := s.exercises.GetByID(ctx, req.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("load exercise %s: %w", req.ExerciseID, err)
	}
	if exercise == nil {
		return nil, fmt.Errorf("exercise %s: %w", req.ExerciseID, model.ErrNotFound)
	}

	presentation, err := s.presentationSettings(ctx, exercise.PresentationID, false)
	if err != nil {
		return nil, err
	}

	merged, ignored := settings.Merge(exercise.Settings, req.Settings)
	if len(ignored) > 0 {
		log.Printf("Ignoring unknown settings for exercise %s: %s", exercise.ID, strings.Join(ignored, ", "))
	}

	res, err := s.updater.Apply(ctx, exercise.ID, merged, s.fallback(presentation))
	if err != nil {
		return nil, err
	}

	result := &SettingsUpdateResult{
		ExerciseID: exercise.ID,
		HTML:       req.HTML,
		Settings:   res.Settings,
		Status:     res.Status,
		Ignored:    ignored,
	}
	if res.Status != settings.StatusSuccess {
		log.Printf("Warning: settings update for exercise %s failed: %v", exercise.ID, res.Err)
		return result, nil
	}

	html, err := s.rewriteElement(req.HTML, exercise.ID, res.Settings)
	if err != nil {
		log.Printf("Warning: could not rewrite markup of exercise %s: %v", exercise.ID, err)
		result.Status = settings.StatusFailed
		return result, nil
	}
	result.HTML = html
	return result, nil
}

// rewriteElement patches the attributes of the exercise element carrying
// exerciseID and leaves the rest of the document as it was.
func (s *SyncService) rewriteElement(src, exerciseID string, applied model.Settings) (string, error) {
	if src == "" {
		return src, nil
	}
	doc, err := markup.Parse(src)
	if err != nil {
		return "", err
	}
	els := doc.Query(s.opts.ExerciseTag, identity.Attr, exerciseID)
	if len(els) == 0 {
		return src, nil
	}

	set, remove := codec.Encode(applied)
	patches := make([]markup.AttrPatch, len(els))
	for i, el := range els {
		patches[i] = markup.AttrPatch{Target: el, Set: set, Remove: remove}
	}
	doc.Apply(patches...)
	return doc.Render()
}

// presentationSettings loads the presentation tier. An empty id means the
// document has no presentation; required turns a missing one into an error.
func (s *SyncService) presentationSettings(ctx context.Context, presentationID string, required bool) (model.Settings, error) {
	if presentationID == "" {
		return nil, nil
	}
	presentation, err := s.presentations.GetByID(ctx, presentationID)
	if err != nil {
		return nil, fmt.Errorf("load presentation %s: %w", presentationID, err)
	}
	if presentation == nil {
		if required {
			return nil, fmt.Errorf("presentation %s: %w", presentationID, model.ErrNotFound)
		}
		log.Printf("Warning: presentation %s not found, resolving without it", presentationID)
		return nil, nil
	}
	return presentation.Settings, nil
}
