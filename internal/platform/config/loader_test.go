package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_Load(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	configContent := `
server:
  ip: "127.0.0.1"
  port: 5001
log:
  log_level: "DEBUG"
tts:
  max_retries: 2
  fallback_order: ["edge", "gtts"]
queue:
  max_message_length: 100
`

	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	result, err := NewLoader().WithDotEnv(false).WithPath(configFile).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg := result.Config

	if cfg.Server.IP != "127.0.0.1" {
		t.Errorf("expected server IP 127.0.0.1, got %s", cfg.Server.IP)
	}
	if cfg.Server.Port != 5001 {
		t.Errorf("expected server port 5001, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "DEBUG" {
		t.Errorf("expected log level DEBUG, got %s", cfg.Log.Level)
	}
	if cfg.TTS.MaxRetries != 2 {
		t.Errorf("expected max_retries 2, got %d", cfg.TTS.MaxRetries)
	}
	if cfg.Queue.MaxMessageLength != 100 {
		t.Errorf("expected max_message_length 100, got %d", cfg.Queue.MaxMessageLength)
	}
	// Values absent from the file keep their defaults.
	if cfg.Audio.SampleRate != 24000 {
		t.Errorf("expected default sample rate 24000, got %d", cfg.Audio.SampleRate)
	}
}

func TestLoader_CreatesDefaultWhenMissing(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	result, err := NewLoader().WithDotEnv(false).WithPath(configFile).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if result.Path != configFile {
		t.Errorf("expected path %s, got %s", configFile, result.Path)
	}
	if _, err := os.Stat(configFile); err != nil {
		t.Errorf("default config file was not created: %v", err)
	}
}

func TestLoader_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_ELEVEN_KEY", "secret-key")

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
tts:
  providers:
    elevenlabs:
      enabled: true
      voice: "EXAVITQu4vr4xnSDxMaL"
      api_key: "${TEST_ELEVEN_KEY}"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	result, err := NewLoader().WithDotEnv(false).WithPath(configFile).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	got := result.Config.TTS.Providers["elevenlabs"].APIKey
	if got != "secret-key" {
		t.Errorf("expected api key expanded from env, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}, wantErr: false},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: true,
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *Config) { c.Cache.Backend = "memcached" },
			wantErr: true,
		},
		{
			name:    "zero retries",
			mutate:  func(c *Config) { c.TTS.MaxRetries = 0 },
			wantErr: true,
		},
		{
			name:    "empty fallback order",
			mutate:  func(c *Config) { c.TTS.FallbackOrder = nil },
			wantErr: true,
		},
		{
			name: "tier references unknown provider",
			mutate: func(c *Config) {
				c.TTS.Tiers["vip"] = VoiceSelection{Provider: "nonexistent", Voice: "x"}
			},
			wantErr: true,
		},
		{
			name: "override references unknown provider",
			mutate: func(c *Config) {
				c.TTS.UserOverrides["StreamerName"] = VoiceSelection{Provider: "nope", Voice: "x"}
			},
			wantErr: true,
		},
		{
			name:    "silence ratio out of range",
			mutate:  func(c *Config) { c.Audio.MaxSilenceRatio = 1.5 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
