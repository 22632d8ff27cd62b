package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/goplatform/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New().Required("name", "  ")
	if !v.HasErrors() {
		t.Fatal("expected error for blank value")
	}
	if v.Errors()[0].Field != "name" {
		t.Errorf("expected field 'name', got %q", v.Errors()[0].Field)
	}
	if New().Required("name", "cat").HasErrors() {
		t.Error("expected no error for non-empty value")
	}
}

func TestValidatorNoNUL(t *testing.T) {
	if !New().NoNUL("arg", "a\x00b").HasErrors() {
		t.Error("expected error for NUL byte")
	}
	if New().NoNUL("arg", "ab").HasErrors() {
		t.Error("expected no error")
	}
}

func TestValidatorEnvName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"PATH", ""},
		{"", "is required"},
		{"A=B", "must not contain '='"},
		{"A\x00", "must not contain NUL bytes"},
	}
	for _, tc := range tests {
		v := New().EnvName("env", tc.name)
		if tc.want == "" {
			if v.HasErrors() {
				t.Errorf("EnvName(%q): unexpected %v", tc.name, v.Errors())
			}
			continue
		}
		if !v.HasErrors() || v.Errors()[0].Message != tc.want {
			t.Errorf("EnvName(%q) = %v, want %q", tc.name, v.Errors(), tc.want)
		}
	}
}

func TestValidatorErr(t *testing.T) {
	if err := New().Required("name", "cat").Err(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}

	err := New().Required("name", "").Custom(false, "dir", "must be absolute").Err()
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "name") || !strings.Contains(appErr.Message, "dir") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
}

type redisSection struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

type kvSection struct {
	Backend string       `mapstructure:"backend" validate:"oneof=memory file redis"`
	Redis   redisSection `mapstructure:"redis"`
}

type rootConfig struct {
	KV kvSection `mapstructure:"kv"`
}

func TestStructValidateValid(t *testing.T) {
	cfg := rootConfig{KV: kvSection{Backend: "redis", Redis: redisSection{Addr: "localhost:6379"}}}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateReportsMapstructurePath(t *testing.T) {
	cfg := rootConfig{KV: kvSection{Backend: "disk", Redis: redisSection{Addr: "nope"}}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "kv.backend: must be one of") {
		t.Errorf("expected kv.backend path, got %q", msg)
	}
	if !strings.Contains(msg, "kv.redis.addr") {
		t.Errorf("expected kv.redis.addr path, got %q", msg)
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("GracePeriod"); got != "grace_period" {
		t.Errorf("expected grace_period, got %q", got)
	}
}
