package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePort(t *testing.T) {
	testCases := []struct {
		name      string
		port      string
		fieldName string
		expectErr bool
		errString string
	}{
		{
			name:      "valid port",
			port:      ":8000",
			fieldName: "ListenPort",
			expectErr: false,
		},
		{
			name:      "empty port",
			port:      "",
			fieldName: "ListenPort",
			expectErr: true,
			errString: "ListenPort: port cannot be empty",
		},
		{
			name:      "no colon",
			port:      "8000",
			fieldName: "ListenPort",
			expectErr: true,
			errString: "ListenPort: port must be in format ':PORT' where PORT is numeric (current value: 8000)",
		},
		{
			name:      "non-numeric",
			port:      ":abcd",
			fieldName: "ListenPort",
			expectErr: true,
			errString: "ListenPort: port must be in format ':PORT' where PORT is numeric (current value: :abcd)",
		},
		{
			name:      "port out of range (low)",
			port:      ":0",
			fieldName: "ListenPort",
			expectErr: true,
			errString: "ListenPort: port must be between 1 and 65535 (current value: 0)",
		},
		{
			name:      "port out of range (high)",
			port:      ":65536",
			fieldName: "ListenPort",
			expectErr: true,
			errString: "ListenPort: port must be between 1 and 65535 (current value: 65536)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePort(tc.port, tc.fieldName)
			if tc.expectErr {
				if err == nil {
					t.Errorf("expected an error, but got nil")
				} else if err.Error() != tc.errString {
					t.Errorf("expected error string '%s', but got '%s'", tc.errString, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error, but got: %v", err)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	newDefaultConfig := func() *Config {
		return DefaultConfig()
	}

	testCases := []struct {
		name      string
		config    *Config
		expectErr bool
		errString string
	}{
		{
			name:      "valid default config",
			config:    newDefaultConfig(),
			expectErr: false,
		},
		{
			name: "invalid listen port",
			config: func() *Config {
				c := newDefaultConfig()
				c.ListenPort = "invalid"
				return c
			}(),
			expectErr: true,
			errString: "ListenPort: port must be in format ':PORT' where PORT is numeric (current value: invalid)",
		},
		{
			name: "unknown producer",
			config: func() *Config {
				c := newDefaultConfig()
				c.Producers = []string{"pattern", "spacy"}
				return c
			}(),
			expectErr: true,
			errString: `Producers: unknown producer "spacy"`,
		},
		{
			name: "unsupported audit driver",
			config: func() *Config {
				c := newDefaultConfig()
				c.Audit.Driver = "mysql"
				return c
			}(),
			expectErr: true,
			errString: "Audit.Driver: must be one of memory, sqlite, postgres (current value: mysql)",
		},
		{
			name: "postgres without host",
			config: func() *Config {
				c := newDefaultConfig()
				c.Audit.Driver = "postgres"
				c.Audit.Host = ""
				return c
			}(),
			expectErr: true,
			errString: "Audit.Host: host cannot be empty for the postgres driver",
		},
		{
			name: "non-positive session ttl",
			config: func() *Config {
				c := newDefaultConfig()
				c.Session.TTLSeconds = 0
				return c
			}(),
			expectErr: true,
			errString: "Session.TTLSeconds: must be positive (current value: 0)",
		},
		{
			name: "rate limit without burst",
			config: func() *Config {
				c := newDefaultConfig()
				c.RateLimit.Burst = 0
				return c
			}(),
			expectErr: true,
			errString: "RateLimit.Burst: must be at least 1 when limiting is enabled (current value: 0)",
		},
		{
			name: "multiple errors",
			config: func() *Config {
				c := newDefaultConfig()
				c.ListenPort = "invalid"
				c.Audit.Driver = "mysql"
				return c
			}(),
			expectErr: true,
			errString: "ListenPort: port must be in format ':PORT' where PORT is numeric (current value: invalid); Audit.Driver: must be one of memory, sqlite, postgres (current value: mysql)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.ValidateConfig()
			if tc.expectErr {
				if err == nil {
					t.Errorf("expected an error, but got nil")
				} else if err.Error() != tc.errString {
					t.Errorf("expected error string '%s', but got '%s'", tc.errString, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error, but got: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"listen_port": ":9090", "audit": {"driver": "sqlite"}, "weights": {"PERSON": 20}}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadFromFile(path, cfg); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.ListenPort != ":9090" || cfg.Audit.Driver != "sqlite" || cfg.Weights["PERSON"] != 20 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	// untouched fields keep their defaults
	if cfg.Session.TTLSeconds != 3600 || cfg.Audit.MaxEntries != 5000 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"), cfg); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := LoadFromFile(path, cfg); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IRONGATE_PORT", "9000")
	t.Setenv("IRONGATE_PRODUCERS", "pattern, legal")
	t.Setenv("IRONGATE_REALISTIC", "true")
	t.Setenv("SESSION_TTL_SECONDS", "60")
	t.Setenv("AUDIT_DRIVER", "SQLite")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SENTRY_DSN", "https://key@example.com/1")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.ListenPort != ":9000" {
		t.Errorf("expected :9000, got %s", cfg.ListenPort)
	}
	if len(cfg.Producers) != 2 || cfg.Producers[1] != "legal" {
		t.Errorf("unexpected producers: %v", cfg.Producers)
	}
	if !cfg.Generator.Realistic || cfg.Session.TTLSeconds != 60 || cfg.Audit.Driver != "sqlite" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.Audit.Port != 5432 {
		t.Errorf("invalid DB_PORT should be ignored, got %d", cfg.Audit.Port)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 || cfg.SentryDSN == "" {
		t.Errorf("unexpected rate limit or dsn: %+v", cfg)
	}
	if err := cfg.ValidateConfig(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestProducerEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Producers = []string{"pattern"}
	if !cfg.ProducerEnabled("pattern") || cfg.ProducerEnabled("onnx_ner") {
		t.Errorf("unexpected ProducerEnabled results for %v", cfg.Producers)
	}
}

func TestXDGDirs(t *testing.T) {
	if filepath.Base(XDGDataDir()) != AppName || filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("expected XDG dirs to end in %s: %s, %s", AppName, XDGDataDir(), XDGConfigDir())
	}
}
