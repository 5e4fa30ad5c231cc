package models

// MovieSummary represents a movie as returned by the catalog.
// The pipeline passes it through untouched; only ID is relied upon.
type MovieSummary struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	PosterPath       string  `json:"poster_path,omitempty"`
	BackdropPath     string  `json:"backdrop_path,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Adult            bool    `json:"adult"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
}
