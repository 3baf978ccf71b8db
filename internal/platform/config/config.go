package config

// Config is the full server configuration. It is loaded once at startup and
// passed by value into the components that need it; nothing mutates it after
// bootstrap.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Queue    QueueConfig    `yaml:"queue"`
	Audio    AudioConfig    `yaml:"audio"`
	TTS      TTSConfig      `yaml:"tts"`
	Playback PlaybackConfig `yaml:"playback"`
	Overlay  OverlayConfig  `yaml:"overlay"`
	Discord  DiscordConfig  `yaml:"discord"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig selects the synthesis-cache backend. "sqlite" stores artifacts
// in the queue database; "redis" stores them in a Redis instance.
type CacheConfig struct {
	Backend string           `yaml:"backend"`
	Redis   RedisCacheConfig `yaml:"redis"`
}

type RedisCacheConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type QueueConfig struct {
	// MaxMessageLength caps donation messages in runes. Longer messages are
	// truncated, not rejected.
	MaxMessageLength int `yaml:"max_message_length"`
}

// AudioConfig is the audio-quality profile used by the validator and the
// playback device.
type AudioConfig struct {
	SampleRate int  `yaml:"sample_rate"`
	Channels   int  `yaml:"channels"`
	BitDepth   int  `yaml:"bit_depth"`
	Normalize  bool `yaml:"normalize"`

	MinDurationMS    int     `yaml:"min_duration_ms"`
	MaxSilenceRatio  float64 `yaml:"max_silence_ratio"`
	SilenceAmplitude int     `yaml:"silence_amplitude"`
	StaticThreshold  float64 `yaml:"static_threshold"`
}

type TTSConfig struct {
	// MaxRetries is the number of synthesis attempts against one candidate
	// before the pipeline moves to the next fallback candidate.
	MaxRetries            int  `yaml:"max_retries"`
	RetryOnStatic         bool `yaml:"retry_on_static"`
	AttemptTimeoutSeconds int  `yaml:"attempt_timeout_seconds"`

	// FallbackOrder is the global provider priority list consulted after the
	// primary candidate fails.
	FallbackOrder []string `yaml:"fallback_order"`

	Providers map[string]ProviderConfig `yaml:"providers"`
	Tiers     map[string]VoiceSelection `yaml:"tiers"`

	// UserOverrides maps a username to a voice selection that takes
	// precedence over the user's tier.
	UserOverrides map[string]VoiceSelection `yaml:"user_overrides"`
}

type ProviderConfig struct {
	Enabled bool              `yaml:"enabled"`
	Voice   string            `yaml:"voice"`
	Options map[string]string `yaml:"options,omitempty"`
	APIKey  string            `yaml:"api_key,omitempty"`
	Region  string            `yaml:"region,omitempty"`
	BaseURL string            `yaml:"url,omitempty"`
}

// VoiceSelection names a concrete (provider, voice, options) triple, used
// both for tier mappings and per-user overrides.
type VoiceSelection struct {
	Provider string            `yaml:"provider"`
	Voice    string            `yaml:"voice"`
	Options  map[string]string `yaml:"options,omitempty"`
}

type PlaybackConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
}

type OverlayConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Password   string `yaml:"password,omitempty"`
	TextSource string `yaml:"text_source"`
}

type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}
