package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/amaumene/cinescout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type posterOnly struct{}

func (posterOnly) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w500" + posterPath
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "search", "trending"}, names)

	trending, _, err := root.Find([]string{"trending"})
	require.NoError(t, err)
	assert.NotNil(t, trending.Flags().Lookup("limit"))
}

func TestPrintTrending(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printTrending(&out, nil))
	assert.Equal(t, "No searches recorded yet.\n", out.String())

	out.Reset()
	require.NoError(t, printTrending(&out, []models.TrendingEntry{
		{Rank: 1, Term: "dune", Count: 3, Title: "Dune", PosterURL: "https://img/dune.jpg"},
		{Rank: 2, Term: "heat", Count: 1},
	}))
	table := out.String()
	assert.Contains(t, table, "TERM")
	assert.Contains(t, table, "SEARCHES")
	assert.NotContains(t, table, "+-")

	var dune, heat string
	for _, line := range strings.Split(table, "\n") {
		switch {
		case strings.Contains(line, "dune"):
			dune = line
		case strings.Contains(line, "heat"):
			heat = line
		}
	}
	assert.Contains(t, dune, "https://img/dune.jpg")
	assert.Contains(t, dune, "Dune")
	assert.Contains(t, heat, "-")
}

func TestPrintMovies(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printMovies(&out, []models.MovieSummary{
		{ID: 693134, Title: "Dune: Part Two", ReleaseDate: "2024-02-27", VoteAverage: 8.2, PosterPath: "/d2.jpg"},
	}, posterOnly{}))

	assert.Contains(t, out.String(), "Dune: Part Two")
	assert.Contains(t, out.String(), "8.2")
	assert.Contains(t, out.String(), "https://image.tmdb.org/t/p/w500/d2.jpg")
	assert.Contains(t, out.String(), "RELEASED")

	out.Reset()
	require.NoError(t, printMovies(&out, nil, posterOnly{}))
	assert.Equal(t, "No movies found.\n", out.String())
}

func TestSettleQuerySkipsQuietPeriod(t *testing.T) {
	start := time.Now()
	assert.Equal(t, "the batman", settleQuery(time.Minute, "  the batman "))
	assert.Equal(t, "", settleQuery(time.Minute, ""))
	assert.Less(t, time.Since(start), time.Second)
}
