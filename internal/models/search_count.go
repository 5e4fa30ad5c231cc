package models

import "time"

// SearchCount is the persisted counter for one search term, with a
// snapshot of the first movie the term returned
type SearchCount struct {
	Term  string `boltholdKey:"Term" gorm:"primaryKey"`
	Count int64  `gorm:"not null;default:0;index"`

	// Representative movie (first result of the search that created the record)
	MovieID   int64
	Title     string
	PosterURL string

	// Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrendingEntry is a read-only ranked projection of a SearchCount
type TrendingEntry struct {
	Rank      int    `json:"rank"`
	Term      string `json:"term"`
	Count     int64  `json:"count"`
	MovieID   int64  `json:"movie_id"`
	Title     string `json:"title"`
	PosterURL string `json:"poster_url"`
}

// Entry projects the record into a trending entry at the given rank
func (c *SearchCount) Entry(rank int) TrendingEntry {
	return TrendingEntry{
		Rank:      rank,
		Term:      c.Term,
		Count:     c.Count,
		MovieID:   c.MovieID,
		Title:     c.Title,
		PosterURL: c.PosterURL,
	}
}

// StoreStats summarizes the contents of a trending store
type StoreStats struct {
	Terms    int   `json:"terms"`
	Searches int64 `json:"searches"`
}

// Representative is the movie snapshot recorded when a term is first counted
type Representative struct {
	MovieID   int64
	Title     string
	PosterURL string
}

// NewSearchCount creates the first record for a term
func NewSearchCount(term string, rep Representative, now time.Time) *SearchCount {
	return &SearchCount{
		Term:      term,
		Count:     1,
		MovieID:   rep.MovieID,
		Title:     rep.Title,
		PosterURL: rep.PosterURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
