// CLAUDE:SUMMARY planforge CLI entry point: cobra root wiring the pipeline subcommands.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	setupLogging()

	root := &cobra.Command{
		Use:   "planforge",
		Short: "Electrical plan training-data toolchain",
		Long: "planforge turns raw electrical plans (PDF, DWG, DXF, raster scans)\n" +
			"into a training-ready image dataset: routing, conversion, train/val\n" +
			"splitting, class sidecar sync, and an HTTP intake service.",
	}

	root.AddCommand(
		convertCmd(),
		organizeCmd(),
		syncClassesCmd(),
		routeCmd(),
		serveCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() {
	var lvl slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
