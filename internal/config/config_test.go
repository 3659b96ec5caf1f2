package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Default()
	if cfg.Port != want.Port || cfg.ImageConcurrency != want.ImageConcurrency || cfg.RateLimitBurst != want.RateLimitBurst {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
	if cfg.Development() {
		t.Fatalf("expected production by default")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("IMAGE_CONCURRENCY", "-3")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,,")
	t.Setenv("SEED_CARDS", "false")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ADMIN_SUBJECTS", "auth0|admin")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port override, got %q", cfg.Port)
	}
	if cfg.ImageConcurrency != Default().ImageConcurrency {
		t.Fatalf("expected invalid concurrency to fall back, got %d", cfg.ImageConcurrency)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %#v", cfg.CORSOrigins)
	}
	if cfg.SeedCards {
		t.Fatalf("expected seed cards disabled")
	}
	if len(cfg.AdminSubjects) != 1 || cfg.AdminSubjects[0] != "auth0|admin" {
		t.Fatalf("unexpected admin subjects: %#v", cfg.AdminSubjects)
	}
	if !cfg.Development() {
		t.Fatalf("expected development mode")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "log_level: debug\nopenai_image_size: 512x512\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.OpenAIImageSize != "512x512" {
		t.Fatalf("expected file values, got %#v", cfg)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CZAR_TEST_VALUE=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CZAR_TEST_VALUE", "from-env")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("CZAR_TEST_VALUE"); got != "from-env" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
}

func TestLoadDotEnvEarlierFileWins(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	if err := os.WriteFile(local, []byte("CZAR_TEST_LAYER=local\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	if err := os.WriteFile(shared, []byte("CZAR_TEST_LAYER=shared\nCZAR_TEST_SHARED=yes\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CZAR_TEST_LAYER", "")
	t.Setenv("CZAR_TEST_SHARED", "")
	os.Unsetenv("CZAR_TEST_LAYER")
	os.Unsetenv("CZAR_TEST_SHARED")

	if err := LoadDotEnv(local, filepath.Join(dir, "missing"), shared); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("CZAR_TEST_LAYER"); got != "local" {
		t.Fatalf("expected first file to win, got %q", got)
	}
	if got := os.Getenv("CZAR_TEST_SHARED"); got != "yes" {
		t.Fatalf("expected later file to fill gaps, got %q", got)
	}
}

func TestLoadDotEnvRejectsDirectory(t *testing.T) {
	if err := LoadDotEnv(t.TempDir()); err == nil {
		t.Fatalf("expected a directory path to fail")
	}
}
