package utils

import (
	"bufio"
	"os"
	"strings"
)

// Blocklist holds search terms that must never be counted as trending
type Blocklist struct {
	terms []string
}

// NewBlocklist creates a blocklist from in-memory terms
func NewBlocklist(terms ...string) *Blocklist {
	b := &Blocklist{}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term != "" {
			b.terms = append(b.terms, term)
		}
	}
	return b
}

// LoadBlocklist loads blocklist terms from a file, one per line.
// Empty lines and lines starting with # are ignored.
func LoadBlocklist(path string) (*Blocklist, error) {
	// If file doesn't exist, return empty blocklist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Blocklist{}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var terms []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		if term != "" && !strings.HasPrefix(term, "#") {
			terms = append(terms, term)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Blocklist{terms: terms}, nil
}

// Len returns the number of loaded terms
func (b *Blocklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.terms)
}

// IsBlocked checks if a search term contains any blocklist term.
// Returns (isBlocked, matchedTerm)
func (b *Blocklist) IsBlocked(query string) (bool, string) {
	if b == nil {
		return false, ""
	}

	queryLower := strings.ToLower(query)

	for _, term := range b.terms {
		if strings.Contains(queryLower, strings.ToLower(term)) {
			return true, term
		}
	}

	return false, ""
}
