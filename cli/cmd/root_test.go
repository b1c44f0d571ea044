package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// captureStdout captures stdout output from fn.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestExecute_Version(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"pathway", "version"}

	out := captureStdout(t, func() {
		if err := Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	})
	if out != "pathway-core v0.1.0\n" {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestExecute_NoArgsPrintsUsage(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"pathway"}

	out := captureStdout(t, func() {
		if err := Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	})
	if out == "" {
		t.Fatalf("expected usage text, got empty output")
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"pathway", "nonexistent"}

	if err := Execute(); err == nil {
		t.Fatalf("expected an error for an unknown command")
	}
}

func TestExecute_ConfigShow(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"pathway", "config", "show"}

	out := captureStdout(t, func() {
		if err := Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	})
	if out == "" {
		t.Fatalf("expected config output, got empty string")
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty", "", "(not set)"},
		{"short", "abc123", "****"},
		{"long", "sk-test-1234567890", "sk-t...7890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskAPIKey(tt.key); got != tt.want {
				t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLoadConfig_AppliesDefault(t *testing.T) {
	cfg := loadConfig()
	if cfg.DBPath == "" {
		t.Fatalf("expected loadConfig to apply a default db_path")
	}
}
