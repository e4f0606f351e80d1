// Package codec translates between markup attributes (dash-case keys, HTML
// boolean-attribute convention) and typed setting records (camelCase keys).
package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"exercisehub/internal/markup"
	"exercisehub/internal/model"
)

// BooleanKeys are always decoded with the boolean-attribute rule, because an
// empty-valued boolean attribute otherwise reads as an empty string.
var BooleanKeys = []string{"disabled", "confidence"}

// Record is a camelCase keyed view of an element's attributes
type Record map[string]any

var (
	dashedLetter = regexp.MustCompile(`-([a-z])`)
	upperLetter  = regexp.MustCompile(`([A-Z])`)
)

// DashToCamel converts "max-num-submissions" into "maxNumSubmissions"
func DashToCamel(key string) string {
	return dashedLetter.ReplaceAllStringFunc(key, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

// CamelToDash converts "maxNumSubmissions" into "max-num-submissions"
func CamelToDash(key string) string {
	return upperLetter.ReplaceAllStringFunc(key, func(m string) string {
		return "-" + strings.ToLower(m)
	})
}

// BoolAttr applies the HTML boolean-attribute rule to a present attribute
func BoolAttr(name, value string) bool {
	return value == "" || value == name
}

// Decode converts attrs into a camelCase record. Values stay strings except
// the BooleanKeys, which become true or false.
func Decode(attrs map[string]string) (Record, error) {
	if attrs == nil {
		return nil, model.ErrMalformedAttributes
	}

	rec := make(Record, len(attrs))
	for key, val := range attrs {
		rec[DashToCamel(key)] = val
	}
	for _, key := range BooleanKeys {
		if val, ok := attrs[key]; ok {
			rec[DashToCamel(key)] = BoolAttr(key, val)
		}
	}
	return rec, nil
}

// Typed returns the declared subset of rec, with values coerced to the kind
// the template declares for each key. Values that cannot be read as their
// kind are kept as the raw string so that validation rejects them.
func Typed(rec Record, template model.Settings) Record {
	out := make(Record)
	for _, setting := range template {
		raw, ok := rec[setting.Key]
		if !ok {
			continue
		}
		out[setting.Key] = coerce(setting.Key, setting.Kind, raw)
	}
	return out
}

// DecodeSettings projects attrs onto the template: present attributes give
// typed values, absent booleans decode to false, other absent keys keep the
// template value.
func DecodeSettings(attrs map[string]string, template model.Settings) (model.Settings, error) {
	rec, err := Decode(attrs)
	if err != nil {
		return nil, err
	}
	typed := Typed(rec, template)

	out := template.Clone()
	for i := range out {
		if v, ok := typed[out[i].Key]; ok {
			out[i].Value = v
			continue
		}
		if out[i].Kind == model.SettingBoolean {
			out[i].Value = false
		}
	}
	return out, nil
}

// Encode converts settings into attribute writes and removals. A false
// boolean is a removal, a true boolean is written with its own name.
func Encode(settings model.Settings) (set []markup.Attr, remove []string) {
	for _, s := range settings {
		key := CamelToDash(s.Key)
		val, present := EncodeValue(key, s.Kind, s.Value)
		if !present {
			remove = append(remove, key)
			continue
		}
		set = append(set, markup.Attr{Key: key, Val: val})
	}
	return set, remove
}

// EncodeValue renders a single value for the attribute name. It reports
// false when the attribute must be absent. An empty kind infers from the
// value's Go type.
func EncodeValue(name string, kind model.SettingKind, value any) (string, bool) {
	if kind == "" {
		kind = inferKind(value)
	}
	if v, ok := model.NormalizeValue(kind, value); ok {
		value = v
	}

	switch v := value.(type) {
	case bool:
		if !v {
			return "", false
		}
		return name, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case string:
		return v, true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

// ParseAssessmentTypes reads a comma separated assessment attribute
func ParseAssessmentTypes(attr string) []model.AssessmentType {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, attr)

	types := []model.AssessmentType{}
	if compact == "" {
		return types
	}
	for _, part := range strings.Split(compact, ",") {
		t := model.AssessmentType(part)
		if t.Valid() {
			types = append(types, t)
		}
	}
	return types
}

func coerce(key string, kind model.SettingKind, raw any) any {
	s, isString := raw.(string)
	if !isString {
		return raw
	}
	switch kind {
	case model.SettingNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	case model.SettingBoolean:
		return BoolAttr(CamelToDash(key), s)
	}
	return s
}

func inferKind(value any) model.SettingKind {
	switch value.(type) {
	case bool:
		return model.SettingBoolean
	case string:
		return model.SettingSelect
	default:
		return model.SettingNumber
	}
}
