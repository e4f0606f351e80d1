package model

// SettingKind defines the declared type of a setting value
type SettingKind string

const (
	SettingNumber  SettingKind = "number"
	SettingBoolean SettingKind = "boolean"
	SettingSelect  SettingKind = "select"
)

// SettingLevel labels the tier a setting template entry belongs to
type SettingLevel string

const (
	LevelExercise     SettingLevel = "exercise"
	LevelPresentation SettingLevel = "presentation"
)

// SettingParams constrains the allowed values of a setting
type SettingParams struct {
	Options []string `json:"options,omitempty" bson:"options,omitempty" yaml:"options,omitempty"` // select only, ordered
	Min     *float64 `json:"min,omitempty" bson:"min,omitempty" yaml:"min,omitempty"`             // number only
	Max     *float64 `json:"max,omitempty" bson:"max,omitempty" yaml:"max,omitempty"`             // number only
	Rule    string   `json:"rule,omitempty" bson:"rule,omitempty" yaml:"rule,omitempty"`          // boolean expression over `value`
}

// Setting is a typed, named configuration value
type Setting struct {
	Key    string         `json:"key" bson:"key" yaml:"key"`
	Value  any            `json:"value" bson:"value" yaml:"value"`
	Kind   SettingKind    `json:"kind" bson:"kind" yaml:"kind"`
	Params *SettingParams `json:"params,omitempty" bson:"params,omitempty" yaml:"params,omitempty"`
	Level  SettingLevel   `json:"level,omitempty" bson:"level,omitempty" yaml:"level,omitempty"`
}

// Settings is an ordered setting collection addressed by key
type Settings []Setting

// Index returns the position of key, or -1
func (s Settings) Index(key string) int {
	for i := range s {
		if s[i].Key == key {
			return i
		}
	}
	return -1
}

// Get returns the setting stored under key
func (s Settings) Get(key string) (Setting, bool) {
	if i := s.Index(key); i >= 0 {
		return s[i], true
	}
	return Setting{}, false
}

// Set overrides the value stored under key. It reports false when key is absent.
func (s Settings) Set(key string, value any) bool {
	i := s.Index(key)
	if i < 0 {
		return false
	}
	s[i].Value = value
	return true
}

// Values flattens the collection into a key -> value map
func (s Settings) Values() map[string]any {
	out := make(map[string]any, len(s))
	for _, setting := range s {
		out[setting.Key] = setting.Value
	}
	return out
}

// Clone returns a deep copy, params included
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for i, setting := range s {
		out[i] = setting.Clone()
	}
	return out
}

// Clone returns a deep copy of the setting
func (s Setting) Clone() Setting {
	out := s
	if s.Params != nil {
		p := *s.Params
		if s.Params.Options != nil {
			p.Options = append([]string(nil), s.Params.Options...)
		}
		if s.Params.Min != nil {
			v := *s.Params.Min
			p.Min = &v
		}
		if s.Params.Max != nil {
			v := *s.Params.Max
			p.Max = &v
		}
		out.Params = &p
	}
	return out
}

// Options returns the allowed select tags, if any
func (s Setting) Options() []string {
	if s.Params == nil {
		return nil
	}
	return s.Params.Options
}

// NormalizeValue converts value to the canonical Go type for kind:
// float64 for numbers, bool for booleans, string for select tags.
// It reports false when value does not conform to kind.
func NormalizeValue(kind SettingKind, value any) (any, bool) {
	switch kind {
	case SettingNumber:
		switch v := value.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int32:
			return float64(v), true
		case int64:
			return float64(v), true
		case uint:
			return float64(v), true
		case uint32:
			return float64(v), true
		case uint64:
			return float64(v), true
		}
	case SettingBoolean:
		if v, ok := value.(bool); ok {
			return v, true
		}
	case SettingSelect:
		if v, ok := value.(string); ok {
			return v, true
		}
	}
	return nil, false
}
