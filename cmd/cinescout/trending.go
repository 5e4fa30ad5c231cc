package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/amaumene/cinescout/internal/controllers"
	"github.com/amaumene/cinescout/internal/models"
	"github.com/amaumene/cinescout/internal/output"
	"github.com/spf13/cobra"
)

func newTrendingCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Print the most searched terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrending(cmd.Context(), limit, jsonOutput, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (default TRENDING_LIMIT)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runTrending(ctx context.Context, limit int, jsonOutput bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if limit <= 0 {
		limit = a.cfg.TrendingLimit
	}

	state := controllers.NewTrendingController(a.store, limit, a.logger).LoadTrending(ctx)

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	if state.Phase == models.PhaseError {
		return fmt.Errorf("%s", state.Error)
	}
	return printTrending(out, state.Results)
}

func printTrending(out io.Writer, entries []models.TrendingEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No searches recorded yet.")
		return nil
	}

	table := output.NewTableWithWriter(out, []string{"#", "term", "searches", "movie", "poster"})
	for _, entry := range entries {
		table.AddRow(
			strconv.Itoa(entry.Rank),
			entry.Term,
			strconv.FormatInt(entry.Count, 10),
			orDash(entry.Title),
			orDash(entry.PosterURL),
		)
	}
	return table.Render()
}
