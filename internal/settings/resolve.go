// Package settings resolves the effective configuration of an exercise from
// its three tiers and applies updates under the bounded conflict-retry
// protocol.
package settings

import "exercisehub/internal/model"

// Template is the default setting collection of a new exercise. It is
// never handed out directly; every caller receives its own deep copy.
type Template struct {
	settings model.Settings
}

// NewTemplate snapshots defaults into a template
func NewTemplate(defaults model.Settings) Template {
	out := defaults.Clone()
	for i := range out {
		if v, ok := model.NormalizeValue(out[i].Kind, out[i].Value); ok {
			out[i].Value = v
		}
	}
	return Template{settings: out}
}

// Settings returns a deep copy of the template entries
func (t Template) Settings() model.Settings {
	return t.settings.Clone()
}

// Default returns the template value for key
func (t Template) Default(key string) (any, bool) {
	s, ok := t.settings.Get(key)
	if !ok {
		return nil, false
	}
	return s.Value, true
}

// Len returns the number of template entries
func (t Template) Len() int { return len(t.settings) }

// Resolve computes the effective settings of an exercise. Priority, highest
// first: exercise-declared, presentation, template default. The result keeps
// the template order and kind/params metadata; only values are overridden.
func Resolve(declared map[string]any, presentation model.Settings, template Template) model.Settings {
	out := template.Settings()
	flat := presentation.Values()

	for i := range out {
		key := out[i].Key
		if v, ok := declared[key]; ok {
			out[i].Value = normalize(out[i].Kind, v)
			continue
		}
		if v, ok := flat[key]; ok {
			out[i].Value = normalize(out[i].Kind, v)
		}
	}
	return out
}

// Merge overlays a partial update onto a copy of current. Keys current does
// not hold are returned as ignored.
func Merge(current model.Settings, update map[string]any) (merged model.Settings, ignored []string) {
	merged = current.Clone()
	for key, v := range update {
		i := merged.Index(key)
		if i < 0 {
			ignored = append(ignored, key)
			continue
		}
		merged[i].Value = normalize(merged[i].Kind, v)
	}
	return merged, ignored
}

func normalize(kind model.SettingKind, v any) any {
	if n, ok := model.NormalizeValue(kind, v); ok {
		return n
	}
	return v
}
