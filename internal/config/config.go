package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from the environment at startup (a local .env file is
// loaded first when present).
type Config struct {
	Addr   string `envconfig:"ADDR" default:":8080"`
	DBPath string `envconfig:"DB_PATH" default:"forumhelper.db"`

	// Writing assistant. Assist stays disabled without an API key; the
	// AI arm then surfaces a retryable error instead of crashing.
	OpenAIKey     string        `envconfig:"OPENAI_API_KEY"`
	AssistModel   string        `envconfig:"ASSIST_MODEL" default:"gpt-4o-mini"`
	AssistTimeout time.Duration `envconfig:"ASSIST_TIMEOUT" default:"45s"`

	// Quiet period before a typing burst settles into one log entry.
	EditDebounce time.Duration `envconfig:"EDIT_DEBOUNCE" default:"500ms"`

	LogPretty bool `envconfig:"LOG_PRETTY" default:"true"`
}

func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
