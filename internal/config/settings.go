package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Settings holds all configuration options.
type Settings struct {
	// Catalog settings
	CatalogURL         string  `json:"catalog_url"`
	URLPrefix          string  `json:"url_prefix"`
	CatalogPath        string  `json:"catalog_path"`
	CatalogMaxAgeHours float64 `json:"catalog_max_age_hours"`
	Language           string  `json:"language"`

	// Download settings
	GadgetsDir              string `json:"gadgets_dir"`
	MaxConcurrentDownloads  int    `json:"max_concurrent_downloads"`
	MaxConcurrentThumbnails int    `json:"max_concurrent_thumbnails"`
	MaxBytesPerSecond       int64  `json:"max_bytes_per_second"`

	// Thumbnail settings
	ThumbnailCacheDir string `json:"thumbnail_cache_dir"`
	ThumbnailResize   bool   `json:"thumbnail_resize"`
	ThumbnailWidth    int    `json:"thumbnail_width"`
	ThumbnailHeight   int    `json:"thumbnail_height"`
}

func baseDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".gadget-browser")
}

// DefaultPath is where the front ends look for settings.json when no
// config file is given.
func DefaultPath() string {
	return filepath.Join(baseDir(), "settings.json")
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	base := baseDir()
	return &Settings{
		CatalogURL:         "http://desktop2.google.com/desktop/plugins.xml?platform=linux&cv=5.7.0.0",
		URLPrefix:          "http://desktop.google.com",
		CatalogPath:        filepath.Join(base, "plugins.xml"),
		CatalogMaxAgeHours: 24 * 7,
		Language:           "en",

		GadgetsDir:              filepath.Join(base, "gadgets"),
		MaxConcurrentDownloads:  2,
		MaxConcurrentThumbnails: 6,
		MaxBytesPerSecond:       0,

		ThumbnailCacheDir: filepath.Join(base, "thumbnails"),
		ThumbnailResize:   true,
		ThumbnailWidth:    80,
		ThumbnailHeight:   60,
	}
}

// Load reads settings from a JSON file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Environment variables read by ApplyEnv.
const (
	EnvCatalogURL              = "GADGET_CATALOG_URL"
	EnvURLPrefix               = "GADGET_URL_PREFIX"
	EnvLanguage                = "GADGET_LANGUAGE"
	EnvGadgetsDir              = "GADGET_GADGETS_DIR"
	EnvThumbnailCacheDir       = "GADGET_THUMBNAIL_CACHE_DIR"
	EnvMaxConcurrentDownloads  = "GADGET_MAX_CONCURRENT_DOWNLOADS"
	EnvMaxConcurrentThumbnails = "GADGET_MAX_CONCURRENT_THUMBNAILS"
	EnvMaxBytesPerSecond       = "GADGET_MAX_BYTES_PER_SECOND"
)

// ApplyEnv overrides settings from GADGET_* environment variables.
//
// If envFile is not empty and exists, it is loaded first with godotenv;
// variables already present in the environment win over the file.
func (s *Settings) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	stringVars := map[string]*string{
		EnvCatalogURL:        &s.CatalogURL,
		EnvURLPrefix:         &s.URLPrefix,
		EnvLanguage:          &s.Language,
		EnvGadgetsDir:        &s.GadgetsDir,
		EnvThumbnailCacheDir: &s.ThumbnailCacheDir,
	}
	for key, field := range stringVars {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			*field = value
		}
	}

	intVars := map[string]*int{
		EnvMaxConcurrentDownloads:  &s.MaxConcurrentDownloads,
		EnvMaxConcurrentThumbnails: &s.MaxConcurrentThumbnails,
	}
	for key, field := range intVars {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*field = n
	}

	if value, ok := os.LookupEnv(EnvMaxBytesPerSecond); ok && value != "" {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxBytesPerSecond, err)
		}
		s.MaxBytesPerSecond = n
	}

	return nil
}

// Validate reports the first setting that cannot work.
func (s *Settings) Validate() error {
	switch {
	case s.CatalogURL == "" && s.CatalogPath == "":
		return errors.New("either catalog_url or catalog_path must be set")
	case s.MaxConcurrentDownloads < 1:
		return fmt.Errorf("max_concurrent_downloads must be at least 1, got %d", s.MaxConcurrentDownloads)
	case s.MaxConcurrentThumbnails < 1:
		return fmt.Errorf("max_concurrent_thumbnails must be at least 1, got %d", s.MaxConcurrentThumbnails)
	case s.ThumbnailWidth < 1 || s.ThumbnailHeight < 1:
		return fmt.Errorf("thumbnail size %dx%d is invalid", s.ThumbnailWidth, s.ThumbnailHeight)
	case s.GadgetsDir == "":
		return errors.New("gadgets_dir must be set")
	}
	return nil
}
