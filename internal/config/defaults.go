package config

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: "~/.cache/colorforge/masks",
			LogDir:   "~/.local/share/colorforge/logs",
			APIBind:  "127.0.0.1:7443",
		},
		Storage: Storage{
			Region:       "us-east-1",
			MaskPrefix:   "masks/",
			OutputPrefix: "generated/",
		},
		Render: Render{
			DefaultWidth: 720,
		},
		Batch: Batch{
			BatchSize:   100,
			MaxParallel: 100,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
