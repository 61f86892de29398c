// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/archive"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List and export archived research runs",
	Long: `Runs inspects the local run archive. Use subcommands to list recent
runs, print a past document, or export the run listing as YAML.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent archived runs",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-19s  %-6s  %s\n", "ID", "Created", "Papers", "Query")
	for _, r := range runs {
		query := r.Query
		if len(query) > 60 {
			query = query[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-19s  %-6d  %s\n",
			r.ID, r.CreatedAt.Format(time.DateTime), r.PaperCount, query)
	}
	return nil
}

var runsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print the document of an archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Println(run.Document)
	return nil
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run listing as YAML",
	RunE:  runRunsExport,
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.ExportYAML(context.Background(), os.Stdout, limit)
}

func openArchive() (*archive.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return archive.Open(cfg.Archive)
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "maximum runs to list")
	runsExportCmd.Flags().Int("limit", 0, "maximum runs to export (0 = default)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)

	rootCmd.AddCommand(runsCmd)
}
