package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "platformctl.yml")
	yaml := "logging:\n  level: error\nkv:\n  backend: file\n  path: " + filepath.Join(dir, "kv.json") + "\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestKVCommands(t *testing.T) {
	cfg := writeConfig(t)

	if _, err := execute(t, "--config", cfg, "kv", "set", "greeting", "hello"); err != nil {
		t.Fatalf("kv set: %v", err)
	}
	out, err := execute(t, "--config", cfg, "kv", "get", "greeting")
	if err != nil || strings.TrimSpace(out) != "hello" {
		t.Fatalf("kv get = %q, %v", out, err)
	}
	out, err = execute(t, "--config", cfg, "kv", "size")
	if err != nil || strings.TrimSpace(out) != "1" {
		t.Fatalf("kv size = %q, %v", out, err)
	}
	if _, err := execute(t, "--config", cfg, "kv", "rm", "greeting"); err != nil {
		t.Fatalf("kv rm: %v", err)
	}
	if _, err := execute(t, "--config", cfg, "kv", "get", "greeting"); err == nil {
		t.Fatal("kv get of removed key succeeded")
	}
}

func TestShout(t *testing.T) {
	var got []string
	err := shout(context.Background(), "hello  small world", func(s string) error {
		got = append(got, s)
		return nil
	})
	if err != nil || strings.Join(got, ",") != "HELLO,SMALL,WORLD" {
		t.Fatalf("shout = %v, %v", got, err)
	}
}

func TestExecRejectsCompoundCommands(t *testing.T) {
	if _, err := execute(t, "--config", writeConfig(t), "exec", "true && false"); err == nil {
		t.Fatal("expected parse error for &&")
	}
}
