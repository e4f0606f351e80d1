package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exercisehub/internal/model"
	"exercisehub/internal/settings"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, DriverMongo, cfg.StoreDriver)
		assert.Equal(t, "asq-exercise", cfg.ExerciseTag)
		assert.Equal(t, "ctrl", cfg.ControllerRole)
		assert.Contains(t, cfg.QuestionTags, "asq-multi-choice-q")
		assert.Equal(t, "GET, POST, PUT, OPTIONS", cfg.AllowedMethods)
		assert.Equal(t, "Content-Type", cfg.AllowedHeaders)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "redis://cache:6379")
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("QUESTION_TAGS", "asq-a, ,asq-b")
		t.Setenv("CORS_ALLOWED_HEADERS", "Content-Type, X-Session")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "cache:6379", cfg.RedisAddr)
		assert.Equal(t, DriverMemory, cfg.StoreDriver)
		assert.Equal(t, []string{"asq-a", "asq-b"}, cfg.QuestionTags)
		assert.Equal(t, "Content-Type, X-Session", cfg.AllowedHeaders)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "postgres")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadTemplateEmbedded(t *testing.T) {
	template, err := LoadTemplate("", settings.NewValidator())
	require.NoError(t, err)

	got := template.Settings()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"maxNumSubmissions", "assessment", "confidence"},
		[]string{got[0].Key, got[1].Key, got[2].Key})

	v, ok := template.Default("maxNumSubmissions")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)

	assessment, _ := got.Get("assessment")
	assert.Equal(t, model.SettingSelect, assessment.Kind)
	assert.Equal(t, []string{"none", "self", "peer", "auto"}, assessment.Options())
	assert.Equal(t, model.LevelExercise, assessment.Level)
}

func TestLoadTemplateFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", "settings:\n  - key: confidence\n    kind: boolean\n    value: true\n", false},
		{"empty", "settings: []\n", true},
		{"duplicate key", "settings:\n  - {key: a, kind: boolean, value: true}\n  - {key: a, kind: boolean, value: false}\n", true},
		{"default outside options", "settings:\n  - key: assessment\n    kind: select\n    value: peer\n    params:\n      options: [none]\n", true},
		{"not yaml", "settings: [", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTemplate(write(tt.name+".yaml", tt.body), settings.NewValidator())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}

	_, err := LoadTemplate(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}
