// Package config provides configuration management for the gadget browser.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Overrides from GADGET_* environment variables and .env files
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Catalog cached in ~/.gadget-browser/plugins.xml
//	// Packages saved to ~/.gadget-browser/gadgets
//	// Six concurrent thumbnail fetches, two package downloads
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Environment
//
//	// GADGET_LANGUAGE=de GADGET_MAX_CONCURRENT_THUMBNAILS=3
//	err := settings.ApplyEnv(".env")
package config
