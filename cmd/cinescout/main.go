package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cinescout",
		Short: "Movie search with debounced queries and a trending board",
		Long: `cinescout searches the TMDB movie catalog and keeps a persistent count
of successful searches, served back as a trending list.

Example usage:
  cinescout serve              # Run the HTTP API
  cinescout search dune        # One-shot search, counted in trending
  cinescout trending -n 10     # Print the top 10 searches`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newSearchCmd(), newTrendingCmd())
	return root
}
