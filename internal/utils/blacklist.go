package utils

import (
	"bufio"
	"os"
	"strings"
)

// Blacklist holds terms that disqualify an indexer candidate by title
type Blacklist struct {
	terms []string
}

// NewBlacklist builds a blacklist from in-memory terms
func NewBlacklist(terms ...string) *Blacklist {
	b := &Blacklist{}
	for _, term := range terms {
		b.add(term)
	}
	return b
}

// LoadBlacklist loads terms from a file, one per line, "#" starts a comment.
// A missing file yields an empty blacklist.
func LoadBlacklist(path string) (*Blacklist, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewBlacklist(), nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	b := NewBlacklist()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		b.add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Blacklist) add(term string) {
	term = strings.TrimSpace(term)
	if term == "" || strings.HasPrefix(term, "#") {
		return
	}
	b.terms = append(b.terms, strings.ToLower(term))
}

// Len returns the number of active terms
func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.terms)
}

// Match reports the first term contained in title, case-insensitively
func (b *Blacklist) Match(title string) (string, bool) {
	if b == nil {
		return "", false
	}
	lower := strings.ToLower(title)
	for _, term := range b.terms {
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}
