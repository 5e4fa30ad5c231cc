package tmdb

import (
	"context"
	"net/url"

	"github.com/amaumene/cinescout/internal/models"
	"github.com/sirupsen/logrus"
)

// Response is the body of a TMDB movie list endpoint.
// Failure is signalled either by the legacy "Response": "False" flag with
// an "Error" message, or by TMDB's "success": false with "status_message".
type Response struct {
	Page         int                   `json:"page"`
	Results      []models.MovieSummary `json:"results"`
	TotalPages   int                   `json:"total_pages"`
	TotalResults int                   `json:"total_results"`

	// Explicit failure indicators
	Response      string `json:"Response,omitempty"`
	Error         string `json:"Error,omitempty"`
	Success       *bool  `json:"success,omitempty"`
	StatusCode    int    `json:"status_code,omitempty"`
	StatusMessage string `json:"status_message,omitempty"`
}

// Failed reports whether the API explicitly flagged the request as failed
func (r *Response) Failed() bool {
	if r.Response == "False" {
		return true
	}
	return r.Success != nil && !*r.Success
}

// Message returns the failure message carried by the response, if any
func (r *Response) Message() string {
	if r.Error != "" {
		return r.Error
	}
	return r.StatusMessage
}

// clone copies the response so callers sharing a cached value cannot alias its results
func (r *Response) clone() *Response {
	out := *r
	if r.Results != nil {
		out.Results = make([]models.MovieSummary, len(r.Results))
		copy(out.Results, r.Results)
	}
	return &out
}

// SearchMovies searches movies by free-text query (GET /search/movie)
func (c *Client) SearchMovies(ctx context.Context, query string) (*Response, error) {
	c.logger.WithField("query", query).Debug("Searching TMDB movies")

	params := url.Values{}
	params.Set("query", query)

	return c.get(ctx, "search", "/search/movie", params)
}

// DiscoverMovies lists movies by descending popularity (GET /discover/movie)
func (c *Client) DiscoverMovies(ctx context.Context) (*Response, error) {
	c.logger.WithFields(logrus.Fields{
		"sort_by": "popularity.desc",
	}).Debug("Discovering TMDB movies")

	params := url.Values{}
	params.Set("sort_by", "popularity.desc")

	return c.get(ctx, "discover", "/discover/movie", params)
}
