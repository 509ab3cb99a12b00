package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/handiism/gadget-browser/internal/catalog"
	"github.com/handiism/gadget-browser/internal/config"
	"github.com/handiism/gadget-browser/internal/download"
	"github.com/handiism/gadget-browser/internal/model"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup happens before exiting.
func run() int {
	// Command line flags
	var (
		configFlag     = flag.String("config", "", "Path to config file")
		envFlag        = flag.String("env", ".env", "Path to an optional .env file with GADGET_* overrides")
		langFlag       = flag.String("lang", "", "Catalog language (overrides config)")
		categoryFlag   = flag.String("category", catalog.CategoryAll, "Category to list")
		searchFlag     = flag.String("search", "", "Search terms")
		downloadFlag   = flag.String("download", "", "Plugin IDs to download (comma-separated)")
		updateFlag     = flag.Bool("update", false, "Report downloads as updates of installed gadgets")
		thumbnailsFlag = flag.Bool("thumbnails", false, "Fetch thumbnails of the listed plugins")
		refreshFlag    = flag.Bool("refresh", false, "Download the catalog even if the cached copy is fresh")
		listFlag       = flag.Bool("list", false, "List languages and categories and exit")
		verboseFlag    = flag.Bool("verbose", false, "Show verbose output")
	)

	flag.Parse()

	// Load config
	settings, err := config.Load(configPath(*configFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if err := settings.ApplyEnv(*envFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading environment: %v\n", err)
		return 1
	}

	// Apply flags
	if *langFlag != "" {
		settings.Language = *langFlag
	}
	if !catalog.IsSupportedLanguage(settings.Language) {
		fmt.Fprintf(os.Stderr, "Warning: %q is not a supported language\n", settings.Language)
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		return 1
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	// Create manager with progress callback
	manager := download.NewManager(settings, func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := ""
		switch event.Level {
		case download.LevelError:
			prefix = "❌ "
		case download.LevelWarning:
			prefix = "⚠️  "
		case download.LevelSuccess:
			prefix = "✅ "
		case download.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	})
	defer manager.Close()

	if err := manager.LoadCatalog(ctx, *refreshFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		return 1
	}

	if *listFlag {
		c := manager.Catalog()
		fmt.Printf("Languages:  %s\n", strings.Join(c.Languages(), ", "))
		fmt.Printf("Categories: %s\n", strings.Join(c.Categories(settings.Language), ", "))
		return 0
	}

	var plugins []*model.Plugin
	if *searchFlag != "" {
		plugins, err = manager.Search(*searchFlag)
	} else {
		plugins, err = manager.Plugins(*categoryFlag)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ids := splitIDs(*downloadFlag)
	if len(ids) == 0 {
		printPlugins(plugins, settings.Language)
	}

	if *thumbnailsFlag {
		manager.FetchThumbnails(plugins)
	}

	for _, id := range ids {
		if err := manager.DownloadPlugin(id, *updateFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := manager.Wait(ctx); err != nil {
		fmt.Println("\nDownload cancelled.")
		return 130
	}

	failed := countFailed(manager, ids)
	if *thumbnailsFlag {
		fmt.Printf("Thumbnails cached in %s\n", settings.ThumbnailCacheDir)
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d downloads failed\n", failed, len(ids))
		return 1
	}
	return 0
}

type statusSource interface {
	Status(id string) model.DownloadStatus
}

// countFailed counts the requested plugins that did not end up Added. A
// plugin rejected by DownloadPlugin counts once, like any other failure.
func countFailed(manager statusSource, ids []string) int {
	failed := 0
	for _, id := range ids {
		if manager.Status(id) != model.DownloadAdded {
			failed++
		}
	}
	return failed
}

func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return config.DefaultPath()
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func printPlugins(plugins []*model.Plugin, lang string) {
	for _, p := range plugins {
		fmt.Printf("%-40s %s\n", p.ID, p.Title(lang))
		if summary := p.Summary(); summary != "" {
			fmt.Printf("%-40s %s\n", "", summary)
		}
	}
	fmt.Printf("\n%d plugins\n", len(plugins))
}
