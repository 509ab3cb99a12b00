package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/gadget-browser/internal/config"
	"github.com/handiism/gadget-browser/internal/tui"
)

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to config file")
		envFlag     = flag.String("env", ".env", "Path to an optional .env file with GADGET_* overrides")
		refreshFlag = flag.Bool("refresh", false, "Download the catalog even if the cached copy is fresh")
	)
	flag.Parse()

	path := *configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.Load(path)
	if err == nil {
		err = settings.ApplyEnv(*envFlag)
	}
	if err == nil {
		err = settings.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings, *refreshFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
