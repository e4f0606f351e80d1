package settings

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"exercisehub/internal/model"
)

// Validator checks setting values against their kind and params. Compiled
// schemas and rules are cached by definition.
type Validator struct {
	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
	rules   map[string]*vm.Program
}

// NewValidator creates an empty validator
func NewValidator() *Validator {
	return &Validator{
		schemas: make(map[string]*jsonschema.Schema),
		rules:   make(map[string]*vm.Program),
	}
}

// ValidateAll returns the first rejection in collection order
func (v *Validator) ValidateAll(settings model.Settings) error {
	for _, s := range settings {
		if err := v.Validate(s); err != nil {
			return err
		}
	}
	return nil
}

// Validate returns a *model.SettingError when s.Value violates its kind or params
func (v *Validator) Validate(s model.Setting) error {
	value, ok := model.NormalizeValue(s.Kind, s.Value)
	if !ok {
		return invalid(s.Key, fmt.Errorf("value %v (%T) is not a %s", s.Value, s.Value, kindLabel(s.Kind)))
	}

	schema, err := v.schemaFor(s)
	if err != nil {
		return invalid(s.Key, err)
	}
	if err := schema.Validate(value); err != nil {
		return invalid(s.Key, err)
	}

	if s.Params != nil && s.Params.Rule != "" {
		program, err := v.ruleFor(s.Kind, s.Params.Rule, value)
		if err != nil {
			return invalid(s.Key, err)
		}
		out, err := expr.Run(program, map[string]any{"value": value})
		if err != nil {
			return invalid(s.Key, fmt.Errorf("rule %q: %w", s.Params.Rule, err))
		}
		if pass, _ := out.(bool); !pass {
			return invalid(s.Key, fmt.Errorf("rule %q not satisfied by %v", s.Params.Rule, value))
		}
	}
	return nil
}

// schemaDefinition builds the JSON schema a setting value must satisfy
func schemaDefinition(s model.Setting) (map[string]any, error) {
	switch s.Kind {
	case model.SettingNumber:
		def := map[string]any{"type": "number"}
		if s.Params != nil && s.Params.Min != nil {
			def["minimum"] = *s.Params.Min
		}
		if s.Params != nil && s.Params.Max != nil {
			def["maximum"] = *s.Params.Max
		}
		return def, nil
	case model.SettingBoolean:
		return map[string]any{"type": "boolean"}, nil
	case model.SettingSelect:
		def := map[string]any{"type": "string"}
		if opts := s.Options(); len(opts) > 0 {
			enum := make([]any, len(opts))
			for i, o := range opts {
				enum[i] = o
			}
			def["enum"] = enum
		}
		return def, nil
	default:
		return nil, fmt.Errorf("unknown setting kind %q", s.Kind)
	}
}

func (v *Validator) schemaFor(s model.Setting) (*jsonschema.Schema, error) {
	def, err := schemaDefinition(s)
	if err != nil {
		return nil, err
	}

	// The compiler wants a parsed JSON value, not Go-typed maps.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	sum := sha256.Sum256(defBytes)
	cacheKey := hex.EncodeToString(sum[:8])

	v.mu.Lock()
	defer v.mu.Unlock()
	if cached, ok := v.schemas[cacheKey]; ok {
		return cached, nil
	}

	var parsed any
	if err := json.Unmarshal(defBytes, &parsed); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://settings/%s.json", cacheKey)
	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	v.schemas[cacheKey] = compiled
	return compiled, nil
}

func (v *Validator) ruleFor(kind model.SettingKind, rule string, sample any) (*vm.Program, error) {
	cacheKey := string(kind) + "\x00" + rule

	v.mu.Lock()
	defer v.mu.Unlock()
	if cached, ok := v.rules[cacheKey]; ok {
		return cached, nil
	}

	program, err := expr.Compile(rule,
		expr.Env(map[string]any{"value": sample}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile rule %q: %w", rule, err)
	}
	v.rules[cacheKey] = program
	return program, nil
}

func invalid(key string, err error) error {
	return &model.SettingError{Key: key, Kind: model.RejectInvalidValue, Err: err}
}

func kindLabel(kind model.SettingKind) string {
	if kind == "" {
		return "typed value"
	}
	return string(kind)
}
