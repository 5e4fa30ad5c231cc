package tmdb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amaumene/cinescout/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.Config)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		TMDBAPIKey:       "test-token",
		TMDBBaseURL:      server.URL + "/3",
		TMDBImageBaseURL: "https://image.tmdb.org/t/p/w500",
		RequestTimeout:   2 * time.Second,
	}
	for _, m := range mutate {
		m(cfg)
	}

	client, err := NewClient(cfg, newTestLogger())
	require.NoError(t, err)
	return client
}

func TestSearchMoviesRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		assert.Equal(t, "star wars & co", r.URL.Query().Get("query"))
		assert.Contains(t, r.URL.RawQuery, "query=star+wars+%26+co")
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("accept"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"page":1,"results":[{"id":11,"title":"Star Wars","poster_path":"/sw.jpg","popularity":88.5}],"total_pages":1,"total_results":1}`)
	})

	resp, err := client.SearchMovies(context.Background(), "star wars & co")
	require.NoError(t, err)
	assert.False(t, resp.Failed())
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(11), resp.Results[0].ID)
	assert.Equal(t, "Star Wars", resp.Results[0].Title)
	assert.Equal(t, "/sw.jpg", resp.Results[0].PosterPath)
}

func TestDiscoverMoviesRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/discover/movie", r.URL.Path)
		assert.Equal(t, "popularity.desc", r.URL.Query().Get("sort_by"))
		assert.Empty(t, r.URL.Query().Get("query"))
		io.WriteString(w, `{"page":1,"results":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}`)
	})

	resp, err := client.DiscoverMovies(context.Background())
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestExplicitFailureFlag(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"Response":"False","Error":"Invalid API key"}`)
	})

	resp, err := client.SearchMovies(context.Background(), "dune")
	require.NoError(t, err)
	assert.True(t, resp.Failed())
	assert.Equal(t, "Invalid API key", resp.Message())
	assert.Empty(t, resp.Results)
}

func TestTMDBErrorBodyIsDomainFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key.","success":false}`)
	})

	resp, err := client.DiscoverMovies(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.Failed())
	assert.Equal(t, "Invalid API key: You must be granted a valid key.", resp.Message())
}

func TestTransportFailures(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"results": [`)
		})
		_, err := client.SearchMovies(context.Background(), "dune")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode response")
	})

	t.Run("server error without body is retried then returned", func(t *testing.T) {
		var hits int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusBadGateway)
		}, func(cfg *config.Config) {
			cfg.TMDBMaxRetries = 1
		})

		_, err := client.SearchMovies(context.Background(), "dune")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})

	t.Run("client error without TMDB body is not retried", func(t *testing.T) {
		var hits int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, "not here")
		}, func(cfg *config.Config) {
			cfg.TMDBMaxRetries = 3
		})

		_, err := client.SearchMovies(context.Background(), "dune")
		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		baseURL := server.URL
		server.Close()

		client, err := NewClient(&config.Config{
			TMDBAPIKey:     "token",
			TMDBBaseURL:    baseURL,
			RequestTimeout: time.Second,
		}, newTestLogger())
		require.NoError(t, err)

		_, err = client.DiscoverMovies(context.Background())
		require.Error(t, err)
	})
}

func TestCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		io.WriteString(w, `{"results":[]}`)
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchMovies(ctx, "dune")
	require.ErrorIs(t, err, context.Canceled)
}

func TestResponseCache(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		io.WriteString(w, `{"results":[{"id":7,"title":"Se7en"}]}`)
	}, func(cfg *config.Config) {
		cfg.CatalogCacheTTL = time.Minute
	})

	first, err := client.SearchMovies(context.Background(), "se7en")
	require.NoError(t, err)
	first.Results[0].Title = "mutated"

	second, err := client.SearchMovies(context.Background(), "se7en")
	require.NoError(t, err)
	assert.Equal(t, "Se7en", second.Results[0].Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestConcurrentIdenticalRequestsShareOneRoundTrip(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"results":[{"id":438631,"title":"Dune"}]}`)
	})

	const callers = 5
	var wg sync.WaitGroup
	responses := make([]*Response, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = client.SearchMovies(context.Background(), "dune")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, responses[i].Results, 1)
		assert.Equal(t, "Dune", responses[i].Results[0].Title)
	}

	// every caller gets its own copy
	responses[0].Results[0].Title = "mutated"
	assert.Equal(t, "Dune", responses[1].Results[0].Title)
}

func TestSharedRequestSurvivesOneCallerCancelling(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"results":[{"id":1,"title":"Heat"}]}`)
	})

	cancelled, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := client.SearchMovies(cancelled, "heat")
		first <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	resp, err := client.SearchMovies(context.Background(), "heat")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRateLimiter(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		io.WriteString(w, `{"results":[]}`)
	}, func(cfg *config.Config) {
		cfg.TMDBRateLimit = 2
	})

	// a burst of 2, then one token every 500ms
	start := time.Now()
	for _, query := range []string{"a", "b", "c", "d"} {
		_, err := client.SearchMovies(context.Background(), query)
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestNoRateLimitWhenDisabled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"results":[]}`)
	})
	assert.Nil(t, client.limiter)

	start := time.Now()
	for _, query := range []string{"a", "b", "c", "d"} {
		_, err := client.SearchMovies(context.Background(), query)
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestPosterURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", client.PosterURL("/abc.jpg"))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", client.PosterURL("abc.jpg"))
	assert.Equal(t, "", client.PosterURL(""))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(&config.Config{}, newTestLogger())
	require.Error(t, err)
}
