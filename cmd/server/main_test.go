package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("loadDotEnv() err = %v, want nil", err)
		}
	})

	t.Run("file is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("QUIZBENCH_DOTENV_TEST=loaded\n"), 0o600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Setenv("QUIZBENCH_DOTENV_TEST", "")
		if err := os.Unsetenv("QUIZBENCH_DOTENV_TEST"); err != nil {
			t.Fatalf("failed to unset env: %v", err)
		}

		if err := loadDotEnv(path); err != nil {
			t.Fatalf("loadDotEnv() err = %v", err)
		}
		if got, want := os.Getenv("QUIZBENCH_DOTENV_TEST"), "loaded"; got != want {
			t.Errorf("QUIZBENCH_DOTENV_TEST = %q, want %q", got, want)
		}
	})

	t.Run("environment wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("QUIZBENCH_DOTENV_TEST=file\n"), 0o600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Setenv("QUIZBENCH_DOTENV_TEST", "env")

		if err := loadDotEnv(path); err != nil {
			t.Fatalf("loadDotEnv() err = %v", err)
		}
		if got, want := os.Getenv("QUIZBENCH_DOTENV_TEST"), "env"; got != want {
			t.Errorf("QUIZBENCH_DOTENV_TEST = %q, want %q", got, want)
		}
	})
}
