package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"donotts-server-go/internal/platform/errors"
)

// DefaultPath is consulted when no explicit config path is given and the
// DONOTTS_CONFIG environment variable is unset.
const DefaultPath = "config.yaml"

// Loader reads the YAML configuration, layering it over DefaultConfig and
// expanding ${VAR} references from the environment.
type Loader struct {
	path      string
	useDotEnv bool
}

func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithPath overrides the configuration file path (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load reads the configuration file, creating it from defaults when missing.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using process environment")
		}
	}

	path := l.path
	if path == "" {
		path = os.Getenv("DONOTTS_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.KindConfig, "config.read", "failed to read config file", err)
		}
		if writeErr := l.writeDefault(path, cfg); writeErr != nil {
			return nil, writeErr
		}
	} else {
		expanded := os.ExpandEnv(string(raw))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "config.parse", "failed to parse config file", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) writeDefault(path string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.KindConfig, "config.marshal", "failed to marshal default config", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrap(errors.KindConfig, "config.write", "failed to write default config", err)
	}
	fmt.Printf("config file not found, created default: %s\n", path)
	return nil
}

// Validate enforces the structural invariants the rest of the server relies
// on; it runs once at load time so components can trust their slice of the
// config.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("invalid server port: %d", cfg.Server.Port))
	}
	if cfg.Database.Path == "" {
		return errors.New(errors.KindConfig, "config.validate", "database path cannot be empty")
	}
	if cfg.Cache.Backend != "sqlite" && cfg.Cache.Backend != "redis" {
		return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("unknown cache backend: %s", cfg.Cache.Backend))
	}
	if cfg.Queue.MaxMessageLength <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "queue.max_message_length must be positive")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("invalid sample rate: %d", cfg.Audio.SampleRate))
	}
	if cfg.Audio.MaxSilenceRatio < 0 || cfg.Audio.MaxSilenceRatio > 1 {
		return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("max_silence_ratio out of range: %f", cfg.Audio.MaxSilenceRatio))
	}
	if cfg.TTS.MaxRetries <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "tts.max_retries must be positive")
	}
	if cfg.TTS.AttemptTimeoutSeconds <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "tts.attempt_timeout_seconds must be positive")
	}
	if len(cfg.TTS.FallbackOrder) == 0 {
		return errors.New(errors.KindConfig, "config.validate", "tts.fallback_order cannot be empty")
	}
	for name, sel := range cfg.TTS.Tiers {
		if sel.Provider == "" {
			return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("tier %q has no provider", name))
		}
		if _, ok := cfg.TTS.Providers[sel.Provider]; !ok {
			return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("tier %q references unknown provider %q", name, sel.Provider))
		}
	}
	for user, sel := range cfg.TTS.UserOverrides {
		if _, ok := cfg.TTS.Providers[sel.Provider]; !ok {
			return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("override for %q references unknown provider %q", user, sel.Provider))
		}
	}
	for _, id := range cfg.TTS.FallbackOrder {
		if _, ok := cfg.TTS.Providers[id]; !ok {
			return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("fallback_order references unknown provider %q", id))
		}
	}
	return nil
}
