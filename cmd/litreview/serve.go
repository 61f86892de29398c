// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/archive"
	"github.com/pdiddy/litreview/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the research pipeline over WebSocket",
	Long: `Serve starts an HTTP server whose /ws/research endpoint accepts
WebSocket connections. Each JSON message {"query": "..."} starts a
pipeline run; stage events stream back to the client as they happen.
Completed runs are archived when archiving is enabled.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := buildLogger(verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	var store *archive.Store
	if cfg.Archive.Enabled {
		store, err = archive.Open(cfg.Archive)
		if err != nil {
			// The archive is best-effort; a broken archive should not keep
			// the service down.
			logger.Warn("archive unavailable", zap.Error(err))
		} else {
			defer store.Close()
		}
	}

	var archiver server.Archiver
	if store != nil {
		archiver = store
	}
	srv := server.New(p, archiver, cfg.Server, logger)

	fmt.Fprintf(os.Stderr, "Listening on %s\n", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, srv.Handler())
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	serveCmd.Flags().Bool("verbose", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
}
