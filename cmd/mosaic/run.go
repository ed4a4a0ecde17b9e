package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mosaicfw/mosaic/internal/host"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the host and its plugins",
	Long: `Run discovers and starts every enabled plugin, then serves until
interrupted. Plugins that fail are reported and skipped; the host comes
up with whatever subset started cleanly.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		h, err := host.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := h.Close(); err != nil {
				logger.Warn("host teardown", "error", err)
			}
		}()

		if err := h.Start(ctx); err != nil {
			return err
		}

		started := h.Manager().StartOrder()
		fmt.Printf("mosaic up: %d plugin(s) running\n", len(started))
		for _, id := range started {
			fmt.Printf("  %s\n", id)
		}
		for _, record := range h.Manager().Errors() {
			fmt.Fprintf(os.Stderr, "  failed: %s\n", record)
		}

		<-ctx.Done()
		fmt.Println("shutting down")
		return nil
	},
}
