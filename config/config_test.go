package config

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestBaseConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := BaseConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := BaseConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if !cfg.IsProduction() {
			t.Error("expected IsProduction")
		}
	})
}

func TestBaseConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BaseConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", BaseConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid production", BaseConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", BaseConfig{Environment: "production"}, true, "name: is required"},
		{"name with separator", BaseConfig{Name: "a/b", Environment: "staging"}, true, "name: is invalid"},
		{"invalid environment", BaseConfig{Name: "svc", Environment: "invalid"}, true, "environment: must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	KV            struct {
		Backend string `mapstructure:"backend"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"kv"`
}

func TestLoadConfigFromMemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	yamlContent := `
name: test-service
environment: staging
logging:
  level: warn
kv:
  backend: file
  path: /var/kv.json
`
	if err := afero.WriteFile(fs, "config.yml", []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("test-service", &cfg, WithFs(fs), WithEnvPrefix("CFGTEST")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "test-service" {
		t.Errorf("expected name 'test-service', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected logging level 'warn', got %q", cfg.Logging.Level)
	}
	if cfg.KV.Backend != "file" || cfg.KV.Path != "/var/kv.json" {
		t.Errorf("unexpected kv section %+v", cfg.KV)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "config.yml", []byte("kv:\n  backend: file\n"), 0o644)
	t.Setenv("CFGTEST_KV_BACKEND", "redis")

	var cfg testConfig
	if err := LoadConfig("svc", &cfg, WithFs(fs), WithEnvPrefix("CFGTEST")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.KV.Backend != "redis" {
		t.Errorf("expected env to override file, got %q", cfg.KV.Backend)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, ".env", []byte("CFGTEST_KV_PATH=/from/dotenv\nCFGTEST_KV_BACKEND=file\n"), 0o644)
	t.Setenv("CFGTEST_KV_BACKEND", "memory")
	t.Cleanup(func() { _ = os.Unsetenv("CFGTEST_KV_PATH") })

	var cfg testConfig
	if err := LoadConfig("svc", &cfg, WithFs(fs), WithEnvPrefix("CFGTEST")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.KV.Path != "/from/dotenv" {
		t.Errorf("expected .env value, got %q", cfg.KV.Path)
	}
	if cfg.KV.Backend != "memory" {
		t.Errorf("expected existing env to win over .env, got %q", cfg.KV.Backend)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithFs(afero.NewMemMapFs()), WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestResolveFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "cmd/my-svc/config.yml", []byte("name: x"), 0o644)
	_ = afero.WriteFile(fs, ".env", []byte(""), 0o644)

	files := ResolveFiles(fs, "my-svc", LoaderConfig{})
	if files.ConfigFile != "cmd/my-svc/config.yml" {
		t.Errorf("expected cmd/my-svc/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected .env, got %q", files.EnvFile)
	}

	explicit := ResolveFiles(fs, "my-svc", LoaderConfig{ConfigFile: "/etc/x.yml"})
	if explicit.ConfigFile != "/etc/x.yml" {
		t.Errorf("expected explicit path to win, got %q", explicit.ConfigFile)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("KV_REDIS_ADDR")
	want := map[string]bool{"kv_redis_addr": true, "kv.redis.addr": true, "kv.redis_addr": true, "kv_redis.addr": true}
	for _, v := range got {
		delete(want, v)
	}
	if len(want) != 0 {
		t.Errorf("missing variants %v in %v", want, got)
	}
}

func TestServiceConfigDebugRaisesLevel(t *testing.T) {
	cfg := ServiceConfig{BaseConfig: BaseConfig{Name: "svc"}}
	cfg.ApplyDefaults()
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level in development, got %q", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
