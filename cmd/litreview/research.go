// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/archive"
	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/internal/report"
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run one literature review from the command line",
	Long: `Research runs the full pipeline once for the given query and prints
the final document to stdout. Stage progress goes to stderr, or to stdout
as JSON event lines with --json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	jsonEvents, _ := cmd.Flags().GetBool("json")
	cslPath, _ := cmd.Flags().GetString("csl")
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

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	emit := func(ev pipeline.StageEvent) error {
		if jsonEvents {
			return json.NewEncoder(os.Stdout).Encode(ev)
		}
		fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Stage, ev.Status)
		return nil
	}

	st, err := p.Run(ctx, query, emit)
	if err != nil {
		return fmt.Errorf("research run failed: %w", err)
	}

	if !jsonEvents {
		fmt.Println(st.FinalDocument)
	}

	if cslPath != "" {
		f, err := os.Create(cslPath)
		if err != nil {
			return fmt.Errorf("creating CSL file: %w", err)
		}
		defer f.Close()
		if err := report.FormatCSL(st.FilteredPapers, f); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote CSL bibliography to %s\n", cslPath)
	}

	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive)
		if err != nil {
			logger.Warn("archive unavailable", zap.Error(err))
			return nil
		}
		defer store.Close()
		if err := store.Save(ctx, st.UserQuery, st.FinalDocument, st.FilteredPapers); err != nil {
			logger.Warn("archiving run failed", zap.Error(err))
		}
	}

	return nil
}

func init() {
	researchCmd.Flags().Bool("json", false, "print stage events as JSON lines instead of the document")
	researchCmd.Flags().String("csl", "", "also write a CSL-YAML bibliography to this file")
	researchCmd.Flags().Bool("verbose", false, "enable debug logging")

	rootCmd.AddCommand(researchCmd)
}
