package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mosaicfw/mosaic/internal/host"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mosaic",
	Short: "A modular plugin host",
	Long: `Mosaic hosts a suite of plugins behind a capability registry.

Plugins are discovered from the configured search paths, ordered by
their declared dependencies, and driven through a managed lifecycle:
  Discover → Load → Initialize → Start → Stop → Unload`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: mosaic.toml next to the binary)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves and loads the host configuration.
func loadConfig() (host.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
	}
	return host.LoadConfig(path)
}

func defaultConfigPath() string {
	return filepath.Join(host.SDKRoot(), "mosaic.toml")
}

// newLogger builds the process logger honoring the verbose flag.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
