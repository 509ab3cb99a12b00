package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.MaxConcurrentThumbnails != 6 {
		t.Errorf("MaxConcurrentThumbnails = %d, want 6", settings.MaxConcurrentThumbnails)
	}
	if err := settings.Validate(); err != nil {
		t.Errorf("default settings should be valid: %v", err)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"language": "de", "max_concurrent_downloads": 4}`), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Language != "de" || settings.MaxConcurrentDownloads != 4 {
		t.Errorf("file values not applied: %+v", settings)
	}
	if settings.ThumbnailWidth != 80 {
		t.Errorf("ThumbnailWidth = %d, want default 80", settings.ThumbnailWidth)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	settings := DefaultSettings()
	settings.Language = "ja"

	if err := settings.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Language != "ja" {
		t.Errorf("Language = %q, want ja", loaded.Language)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLanguage, "fr")
	t.Setenv(EnvMaxConcurrentThumbnails, "3")
	t.Setenv(EnvMaxBytesPerSecond, "65536")
	t.Setenv(EnvGadgetsDir, "/tmp/gadgets")

	settings := DefaultSettings()
	if err := settings.ApplyEnv(""); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if settings.Language != "fr" {
		t.Errorf("Language = %q, want fr", settings.Language)
	}
	if settings.MaxConcurrentThumbnails != 3 {
		t.Errorf("MaxConcurrentThumbnails = %d, want 3", settings.MaxConcurrentThumbnails)
	}
	if settings.MaxBytesPerSecond != 65536 {
		t.Errorf("MaxBytesPerSecond = %d, want 65536", settings.MaxBytesPerSecond)
	}
	if settings.GadgetsDir != "/tmp/gadgets" {
		t.Errorf("GadgetsDir = %q", settings.GadgetsDir)
	}
}

func TestApplyEnv_File(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "GADGET_URL_PREFIX=http://mirror.example.com\nGADGET_MAX_CONCURRENT_DOWNLOADS=5\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv(EnvURLPrefix)
		os.Unsetenv(EnvMaxConcurrentDownloads)
	})

	settings := DefaultSettings()
	if err := settings.ApplyEnv(envFile); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if settings.URLPrefix != "http://mirror.example.com" {
		t.Errorf("URLPrefix = %q", settings.URLPrefix)
	}
	if settings.MaxConcurrentDownloads != 5 {
		t.Errorf("MaxConcurrentDownloads = %d, want 5", settings.MaxConcurrentDownloads)
	}
}

func TestApplyEnv_MissingFileIgnored(t *testing.T) {
	settings := DefaultSettings()
	if err := settings.ApplyEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestApplyEnv_InvalidNumber(t *testing.T) {
	t.Setenv(EnvMaxConcurrentDownloads, "many")

	if err := DefaultSettings().ApplyEnv(""); err == nil {
		t.Error("expected error for non-numeric value")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"no catalog", func(s *Settings) { s.CatalogURL, s.CatalogPath = "", "" }},
		{"zero downloads", func(s *Settings) { s.MaxConcurrentDownloads = 0 }},
		{"zero thumbnails", func(s *Settings) { s.MaxConcurrentThumbnails = 0 }},
		{"bad thumbnail size", func(s *Settings) { s.ThumbnailHeight = 0 }},
		{"no gadgets dir", func(s *Settings) { s.GadgetsDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.modify(settings)
			if err := settings.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	if got := filepath.Base(DefaultPath()); got != "settings.json" {
		t.Errorf("DefaultPath() base = %q, want settings.json", got)
	}
	if filepath.Dir(DefaultPath()) != filepath.Dir(DefaultSettings().CatalogPath) {
		t.Error("settings and catalog should share the base directory")
	}
}
