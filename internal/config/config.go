package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store drivers
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config is the server and CLI configuration, read from the environment
type Config struct {
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"exercisehub"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Port          string `env:"PORT" envDefault:"8080"`
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"mongo"`

	// empty means the embedded default template
	SettingsTemplatePath string `env:"SETTINGS_TEMPLATE_PATH"`

	QuestionTags   []string `env:"QUESTION_TAGS" envSeparator:"," envDefault:"asq-multi-choice-q,asq-highlight-q,asq-code-q,asq-js-function-body-q,asq-css-select-q"`
	ExerciseTag    string   `env:"EXERCISE_TAG" envDefault:"asq-exercise"`
	ControllerRole string   `env:"CONTROLLER_ROLE" envDefault:"ctrl"`
	AllowedOrigins string   `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	AllowedMethods string   `env:"CORS_ALLOWED_METHODS" envDefault:"GET, POST, PUT, OPTIONS"`
	AllowedHeaders string   `env:"CORS_ALLOWED_HEADERS" envDefault:"Content-Type"`
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Remove redis:// prefix if present
	cfg.RedisAddr = strings.TrimPrefix(cfg.RedisAddr, "redis://")

	tags := cfg.QuestionTags[:0]
	for _, tag := range cfg.QuestionTags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	cfg.QuestionTags = tags

	switch cfg.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return &cfg, nil
}
