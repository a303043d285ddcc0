package caselaw

import (
	"fmt"
	"strings"

	"github.com/qanoonbuddy/backend/internal/domain"
)

// Index is a read-only keyword index over a fixed catalog.
type Index struct {
	records   []Record
	haystacks []string
}

// NewIndex copies records and precomputes the lower-cased search text of each.
func NewIndex(records []Record) *Index {
	idx := &Index{
		records:   make([]Record, len(records)),
		haystacks: make([]string, len(records)),
	}
	for i, rec := range records {
		rec.Tags = append([]string(nil), rec.Tags...)
		idx.records[i] = rec
		idx.haystacks[i] = haystack(rec)
	}
	return idx
}

// Search returns the records whose title, citation, tags or summary contain
// keyword, ignoring case, in catalog order. No match yields an empty slice.
func (idx *Index) Search(keyword string) ([]Record, error) {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil, fmt.Errorf("search keyword is empty: %w", domain.ErrInvalidInput)
	}

	results := make([]Record, 0, len(idx.records))
	for i, text := range idx.haystacks {
		if strings.Contains(text, needle) {
			results = append(results, idx.records[i])
		}
	}
	return results, nil
}

// List returns the whole catalog in order.
func (idx *Index) List() []Record {
	return append([]Record(nil), idx.records...)
}

// At returns the record at position i of the catalog.
func (idx *Index) At(i int) (Record, error) {
	if i < 0 || i >= len(idx.records) {
		return Record{}, fmt.Errorf("case %d: %w", i, domain.ErrCaseNotFound)
	}
	return idx.records[i], nil
}

// Len reports the catalog size.
func (idx *Index) Len() int {
	return len(idx.records)
}

func haystack(rec Record) string {
	parts := []string{rec.Title, rec.Citation, strings.Join(rec.Tags, " "), rec.Summary}
	return strings.ToLower(strings.Join(parts, " "))
}
