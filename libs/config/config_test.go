package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPort(t *testing.T) {
	t.Setenv("TEST_PORT", "8080")
	if p, err := Port("TEST_PORT", "1"); err != nil || p != "8080" {
		t.Fatalf("Port() = %q, %v", p, err)
	}
	t.Setenv("TEST_PORT", "70000")
	if _, err := Port("TEST_PORT", "1"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestTypedHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_DUR", "90s")
	t.Setenv("TEST_BOOL", "Yes")
	t.Setenv("TEST_LIST", " sunday, ,monday ")

	if n, err := Int("TEST_INT", 1); err != nil || n != 42 {
		t.Fatalf("Int() = %d, %v", n, err)
	}
	if d, err := Duration("TEST_DUR", time.Second); err != nil || d != 90*time.Second {
		t.Fatalf("Duration() = %s, %v", d, err)
	}
	if !Bool("TEST_BOOL", false) {
		t.Fatal("Bool() = false, want true")
	}
	if !Bool("TEST_BOOL_MISSING", true) {
		t.Fatal("Bool() should fall back when unset")
	}
	list := List("TEST_LIST", nil)
	if len(list) != 2 || list[0] != "sunday" || list[1] != "monday" {
		t.Fatalf("List() = %#v", list)
	}

	t.Setenv("TEST_INT", "many")
	if _, err := Int("TEST_INT", 1); err == nil {
		t.Fatal("expected error for non-numeric int")
	}
}

func TestLoadDotenvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DOTENV_A=from-file\nDOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("DOTENV_A", "from-env")
	t.Setenv("DOTENV_B", "")
	os.Unsetenv("DOTENV_B")
	t.Cleanup(func() { os.Unsetenv("DOTENV_B") })

	if err := LoadDotenv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotenv failed: %v", err)
	}
	if got := os.Getenv("DOTENV_A"); got != "from-env" {
		t.Fatalf("DOTENV_A = %q, want from-env", got)
	}
	if got := os.Getenv("DOTENV_B"); got != "from-file" {
		t.Fatalf("DOTENV_B = %q, want from-file", got)
	}
}
