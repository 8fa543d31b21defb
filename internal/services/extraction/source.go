package extraction

import "context"

// DocumentSource provides sequential access to a document's text units
// (pages for PDFs, chunks for plain text). Unit indexes are 0-based.
type DocumentSource interface {
	UnitCount() int
	UnitText(ctx context.Context, index int) (string, error)
	Close() error
}

// TextSource adapts an already-decoded text document to the DocumentSource
// interface by chunking it into fixed-size units, so the density heuristics
// behave the same way they do for paged documents.
type TextSource struct {
	units []string
}

// NewTextSource chunks text into units of roughly expectedCharsPerUnit
func NewTextSource(text string) *TextSource {
	if text == "" {
		return &TextSource{units: []string{""}}
	}

	var units []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += expectedCharsPerUnit {
		end := start + expectedCharsPerUnit
		if end > len(runes) {
			end = len(runes)
		}
		units = append(units, string(runes[start:end]))
	}
	return &TextSource{units: units}
}

func (s *TextSource) UnitCount() int {
	return len(s.units)
}

func (s *TextSource) UnitText(ctx context.Context, index int) (string, error) {
	if index < 0 || index >= len(s.units) {
		return "", nil
	}
	return s.units[index], nil
}

func (s *TextSource) Close() error {
	return nil
}
