package main

import (
	"fmt"
	"os"

	"github.com/coralwatch/coralwatch-go/cmd"
	"github.com/coralwatch/coralwatch-go/internal/conf"
	"github.com/coralwatch/coralwatch-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(settings.Debug)

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
