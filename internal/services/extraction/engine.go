// -----------------------------------------------------------------------
// Text Extraction Engine - fallback cascade over document text units
// Produces a "sufficient" text string for downstream summarization, or
// ErrInsufficientText when every strategy comes up short.
// -----------------------------------------------------------------------

package extraction

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
)

const (
	// sufficiencyThreshold is the minimum extracted length considered
	// usable by the summarizer.
	sufficiencyThreshold = 500

	// expectedCharsPerUnit is the density baseline for detecting
	// scanned/image documents.
	expectedCharsPerUnit = 2000

	// scannedDensityRatio: below this fraction of the baseline the
	// document is treated as a scan with no real text layer.
	scannedDensityRatio = 0.10

	// Early-unit scan bounds for the abstract and introduction fallbacks.
	headScanUnits = 10
	headScanCap   = 500_000

	// Tail scan bounds for locating a conclusion in the final units.
	tailScanUnits = 5
	tailScanCap   = 200_000

	// globalCharCap bounds total accumulation on very large documents;
	// the progressive-prefix fallback stops at half of it.
	globalCharCap = 5_000_000
)

// ErrInsufficientText signals that no fallback produced enough text.
// Terminal for the item; the pipeline does not retry extraction.
var ErrInsufficientText = errors.New("insufficient extractable text")

// ProgressFunc receives per-unit progress during full extraction
type ProgressFunc func(unit, total int)

// Engine runs the extraction fallback cascade against a DocumentSource
type Engine struct {
	logger arbor.ILogger
}

// NewEngine creates a new extraction engine
func NewEngine(logger arbor.ILogger) *Engine {
	return &Engine{logger: logger}
}

// Extract runs the cascade: full extraction, then abstract, then
// introduction+conclusion, then progressive prefix, then reduced prefix.
// The first result at or above the sufficiency threshold wins.
func (e *Engine) Extract(ctx context.Context, source DocumentSource, progress ProgressFunc) (string, error) {
	total := source.UnitCount()

	// Step 1: full extraction
	full, err := e.extractFull(ctx, source, progress)
	if err != nil {
		return "", err
	}
	if len(full) >= sufficiencyThreshold && !looksScanned(full, total) {
		return full, nil
	}
	e.logger.Debug().
		Int("chars", len(full)).
		Int("units", total).
		Msg("Full extraction insufficient, entering fallback cascade")

	// Steps 2 and 3 share one bounded scan of the early units
	head, err := e.scanUnits(ctx, source, 0, minInt(headScanUnits, total), headScanCap)
	if err != nil {
		return "", err
	}

	// Step 2: abstract section
	if abstract := abstractSection(head); len(abstract) >= sufficiencyThreshold {
		e.logger.Debug().Int("chars", len(abstract)).Msg("Extraction fallback: abstract section")
		return abstract, nil
	}

	// Step 3: introduction + conclusion
	intro := introductionSection(head)
	conclusion := conclusionSection(head)
	if conclusion == "" && total > headScanUnits {
		tailStart := maxInt(total-tailScanUnits, 0)
		tail, err := e.scanUnits(ctx, source, tailStart, total, tailScanCap)
		if err != nil {
			return "", err
		}
		conclusion = conclusionSection(tail)
	}
	if combined := joinSections(intro, conclusion); len(combined) >= sufficiencyThreshold {
		e.logger.Debug().Int("chars", len(combined)).Msg("Extraction fallback: introduction and conclusion")
		return combined, nil
	}

	// Step 4: progressive prefix, stopping at half the global cap
	prefix, err := e.scanUnits(ctx, source, 0, total, globalCharCap/2)
	if err != nil {
		return "", err
	}
	if len(prefix) >= sufficiencyThreshold {
		// Step 5: reduced prefix when the accumulated text is far past the
		// threshold; keeps the summarizer input proportionate.
		if len(prefix) > 2*sufficiencyThreshold {
			if reduced := runeSafePrefix(prefix, len(prefix)/4); len(reduced) >= sufficiencyThreshold {
				e.logger.Debug().Int("chars", len(reduced)).Msg("Extraction fallback: reduced prefix")
				return reduced, nil
			}
		}
		e.logger.Debug().Int("chars", len(prefix)).Msg("Extraction fallback: progressive prefix")
		return prefix, nil
	}

	return "", ErrInsufficientText
}

// extractFull accumulates every unit, reporting per-unit progress and
// honoring cancellation between units. Accumulation stops at the global cap.
func (e *Engine) extractFull(ctx context.Context, source DocumentSource, progress ProgressFunc) (string, error) {
	total := source.UnitCount()
	var builder strings.Builder

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := source.UnitText(ctx, i)
		if err != nil {
			e.logger.Warn().Err(err).Int("unit", i).Msg("Unit extraction failed, skipping")
			continue
		}
		builder.WriteString(text)

		if progress != nil {
			progress(i+1, total)
		}

		if builder.Len() >= globalCharCap {
			break
		}
	}

	return builder.String(), nil
}

// scanUnits accumulates units in [start, end) until charCap is reached
func (e *Engine) scanUnits(ctx context.Context, source DocumentSource, start, end, charCap int) (string, error) {
	var builder strings.Builder

	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := source.UnitText(ctx, i)
		if err != nil {
			e.logger.Warn().Err(err).Int("unit", i).Msg("Unit extraction failed, skipping")
			continue
		}
		builder.WriteString(text)

		if builder.Len() >= charCap {
			break
		}
	}

	return builder.String(), nil
}

// looksScanned reports whether extracted density falls below the
// scanned-document baseline ratio
func looksScanned(text string, unitCount int) bool {
	if unitCount <= 0 {
		return true
	}
	if len(text) == 0 {
		return true
	}
	density := float64(len(text)) / float64(unitCount)
	return density < scannedDensityRatio*expectedCharsPerUnit
}

// runeSafePrefix cuts text at or just below n bytes, never splitting a rune
func runeSafePrefix(text string, n int) string {
	if n >= len(text) {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

func joinSections(intro, conclusion string) string {
	switch {
	case intro == "":
		return conclusion
	case conclusion == "":
		return intro
	default:
		return intro + "\n\n" + conclusion
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
