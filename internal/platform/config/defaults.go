package config

// DefaultConfig returns the configuration used when no config file exists.
// Only edge and gtts are enabled out of the box since they need no
// credentials; the rest stay configured but disabled until keys are provided.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 5000,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Database: DatabaseConfig{
			Path: "data/donotts.db",
		},
		Cache: CacheConfig{
			Backend: "sqlite",
			Redis: RedisCacheConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "donotts:cache:",
			},
		},
		Queue: QueueConfig{
			MaxMessageLength: 280,
		},
		Audio: AudioConfig{
			SampleRate:       24000,
			Channels:         1,
			BitDepth:         16,
			Normalize:        true,
			MinDurationMS:    400,
			MaxSilenceRatio:  0.9,
			SilenceAmplitude: 250,
			StaticThreshold:  0.35,
		},
		TTS: TTSConfig{
			MaxRetries:            3,
			RetryOnStatic:         true,
			AttemptTimeoutSeconds: 15,
			FallbackOrder:         []string{"edge", "azure", "elevenlabs", "polly", "coqui", "gtts"},
			Providers: map[string]ProviderConfig{
				"edge": {
					Enabled: true,
					Voice:   "en-US-AriaNeural",
					Options: map[string]string{"rate": "+0%", "pitch": "+0Hz"},
				},
				"azure": {
					Enabled: false,
					Voice:   "en-US-JennyNeural",
					Region:  "eastus",
					APIKey:  "${AZURE_SPEECH_KEY}",
				},
				"elevenlabs": {
					Enabled: false,
					Voice:   "EXAVITQu4vr4xnSDxMaL",
					APIKey:  "${ELEVENLABS_API_KEY}",
					Options: map[string]string{"stability": "0.5", "similarity_boost": "0.75"},
				},
				"polly": {
					Enabled: true,
					Voice:   "Brian",
					BaseURL: "https://api.streamelements.com/kappa/v2/speech",
				},
				"coqui": {
					Enabled: false,
					Voice:   "p225",
					BaseURL: "http://127.0.0.1:5002",
				},
				"gtts": {
					Enabled: true,
					Voice:   "en",
				},
			},
			Tiers: map[string]VoiceSelection{
				"default": {Provider: "edge", Voice: "en-US-AriaNeural"},
				"premium": {Provider: "azure", Voice: "en-US-JennyNeural"},
				"vip":     {Provider: "elevenlabs", Voice: "EXAVITQu4vr4xnSDxMaL"},
			},
			UserOverrides: map[string]VoiceSelection{},
		},
		Playback: PlaybackConfig{
			Enabled: true,
			Volume:  0.8,
		},
		Overlay: OverlayConfig{
			Enabled:    false,
			Host:       "localhost",
			Port:       4455,
			TextSource: "TTS Queue Counter",
		},
		Discord: DiscordConfig{
			Enabled:    false,
			WebhookURL: "${DISCORD_WEBHOOK_URL}",
		},
	}
}
