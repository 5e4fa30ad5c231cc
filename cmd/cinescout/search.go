package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/cinescout/internal/controllers"
	"github.com/amaumene/cinescout/internal/debounce"
	"github.com/amaumene/cinescout/internal/models"
	"github.com/amaumene/cinescout/internal/output"
	"github.com/amaumene/cinescout/internal/services/tmdb"
	"github.com/amaumene/cinescout/internal/telemetry"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog once and record the search in trending",
		Long: `Run the search pipeline once. Without a query the most popular movies
are listed. A successful search with results counts towards trending.

Examples:
  cinescout search             # Popular movies
  cinescout search the batman  # Search and count "the batman"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), strings.Join(args, " "), jsonOutput, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runSearch(ctx context.Context, query string, jsonOutput bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	shutdownTracing, err := telemetry.Init(ctx, "cinescout", a.cfg.OTLPEndpoint, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	catalog, err := tmdb.NewClient(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDB client: %w", err)
	}

	search := controllers.NewSearchController(catalog, a.store, a.keyer, a.blocklist, a.logger)

	state := search.RunSearch(ctx, settleQuery(a.cfg.SearchDebounce, query))
	search.Wait()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	if state.Phase == models.PhaseError {
		return fmt.Errorf("%s", state.Error)
	}
	return printMovies(out, state.Results, catalog)
}

// settleQuery runs a fully typed query through a debouncer without waiting
// out the quiet period. The debouncer only holds the value; the search runs
// after Flush returns so the fetch never executes under its lock.
func settleQuery(quiet time.Duration, query string) string {
	debouncer := debounce.New(quiet, nil)
	defer debouncer.Stop()

	debouncer.Set(strings.TrimSpace(query))
	debouncer.Flush()
	return debouncer.Value()
}

type posterURLer interface {
	PosterURL(posterPath string) string
}

func printMovies(out io.Writer, movies []models.MovieSummary, posters posterURLer) error {
	if len(movies) == 0 {
		fmt.Fprintln(out, "No movies found.")
		return nil
	}

	table := output.NewTableWithWriter(out, []string{"id", "title", "released", "rating", "poster"})
	for _, movie := range movies {
		table.AddRow(
			strconv.FormatInt(movie.ID, 10),
			movie.Title,
			orDash(movie.ReleaseDate),
			strconv.FormatFloat(movie.VoteAverage, 'f', 1, 64),
			orDash(posters.PosterURL(movie.PosterPath)),
		)
	}
	return table.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
