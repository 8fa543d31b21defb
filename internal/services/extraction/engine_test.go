package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// fakeSource serves canned unit text and records which units were read
type fakeSource struct {
	units  []string
	reads  []int
	errAt  int
	errSet bool
}

func (f *fakeSource) UnitCount() int { return len(f.units) }

func (f *fakeSource) UnitText(ctx context.Context, index int) (string, error) {
	f.reads = append(f.reads, index)
	if f.errSet && index == f.errAt {
		return "", errors.New("damaged page")
	}
	if index < 0 || index >= len(f.units) {
		return "", nil
	}
	return f.units[index], nil
}

func (f *fakeSource) Close() error { return nil }

func testEngine() *Engine {
	return NewEngine(arbor.NewLogger())
}

func denseUnit(n int) string {
	return strings.Repeat("lorem ipsum dolor sit amet ", n)
}

func TestExtractFullTextSufficient(t *testing.T) {
	source := &fakeSource{units: []string{denseUnit(100), denseUnit(100)}}

	text, err := testEngine().Extract(context.Background(), source, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(text), sufficiencyThreshold)
	// Full extraction reads every unit exactly once
	assert.Equal(t, []int{0, 1}, source.reads)
}

func TestExtractReportsPerUnitProgress(t *testing.T) {
	source := &fakeSource{units: []string{denseUnit(100), denseUnit(100), denseUnit(100)}}

	var calls [][2]int
	_, err := testEngine().Extract(context.Background(), source, func(unit, total int) {
		calls = append(calls, [2]int{unit, total})
	})

	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestExtractInsufficientTextAllEmpty(t *testing.T) {
	// Three units with zero extractable text exhaust every fallback
	source := &fakeSource{units: []string{"", "", ""}}

	_, err := testEngine().Extract(context.Background(), source, nil)

	assert.ErrorIs(t, err, ErrInsufficientText)
}

func TestExtractAbstractFallback(t *testing.T) {
	// Sparse density forces the cascade; the abstract section is long
	// enough to win on its own
	abstract := strings.Repeat("This study examines summarization pipelines. ", 15)
	pageOne := "Abstract\n" + abstract + "\n1. Introduction\nshort intro"
	source := &fakeSource{units: append([]string{pageOne}, make([]string, 30)...)}

	text, err := testEngine().Extract(context.Background(), source, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(text), sufficiencyThreshold)
	assert.True(t, strings.HasPrefix(text, "This study examines"))
	assert.NotContains(t, text, "short intro")
}

func TestExtractIntroConclusionFallback(t *testing.T) {
	intro := strings.Repeat("We motivate the problem in depth here. ", 10)
	conclusion := strings.Repeat("We conclude that the cascade works. ", 10)
	pageOne := "Abstract\ntoo short\n1. Introduction\n" + intro + "\n2. Methods\nsparse"
	lastPage := "5. Conclusion\n" + conclusion

	units := make([]string, 40)
	units[0] = pageOne
	units[39] = lastPage
	source := &fakeSource{units: units}

	text, err := testEngine().Extract(context.Background(), source, nil)

	require.NoError(t, err)
	// Introduction first, conclusion appended
	introIdx := strings.Index(text, "We motivate")
	conclIdx := strings.Index(text, "We conclude")
	require.GreaterOrEqual(t, introIdx, 0)
	require.Greater(t, conclIdx, introIdx)
}

func TestExtractProgressivePrefixFallback(t *testing.T) {
	// No recognizable sections, low density overall, but enough raw text
	// spread over units for the prefix strategy. Keep the total under
	// 2x threshold so the reduced-prefix step does not kick in.
	filler := strings.Repeat("x", 30)
	units := make([]string, 30)
	for i := 0; i < 30; i++ {
		units[i] = filler
	}
	source := &fakeSource{units: units}

	text, err := testEngine().Extract(context.Background(), source, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(text), sufficiencyThreshold)
	assert.LessOrEqual(t, len(text), 2*sufficiencyThreshold)
}

func TestExtractReducedPrefix(t *testing.T) {
	// Low density per unit over many units accumulates far past 2x the
	// threshold, so the engine returns the first quarter of the prefix
	filler := strings.Repeat("y", 150)
	units := make([]string, 200)
	for i := range units {
		units[i] = filler
	}
	source := &fakeSource{units: units}

	text, err := testEngine().Extract(context.Background(), source, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(text), sufficiencyThreshold)
	// Quarter of the accumulated prefix, not the whole thing
	assert.Less(t, len(text), 150*200/2)
}

func TestReducedPrefixKeepsValidUTF8(t *testing.T) {
	// Multi-byte text whose accumulated prefix is far past 2x the
	// threshold; the quarter cut must land on a rune boundary. The single
	// ASCII byte up front knocks every later rune off the 3-byte grid so
	// the raw quarter offset falls inside a rune.
	filler := strings.Repeat("研究概要", 12) // 144 bytes per unit
	units := make([]string, 200)
	units[0] = "x"
	for i := 1; i < len(units); i++ {
		units[i] = filler
	}
	source := &fakeSource{units: units}

	text, err := testEngine().Extract(context.Background(), source, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(text), sufficiencyThreshold)
	assert.True(t, utf8.ValidString(text))
}

func TestRuneSafePrefix(t *testing.T) {
	assert.Equal(t, "abc", runeSafePrefix("abcdef", 3))
	assert.Equal(t, "abcdef", runeSafePrefix("abcdef", 10))
	// 5 lands inside the second 3-byte rune, so the cut backs up to it
	assert.Equal(t, "語", runeSafePrefix("語語", 5))
	assert.Equal(t, "", runeSafePrefix("語", 2))
}

func TestExtractCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{units: []string{denseUnit(100)}}
	_, err := testEngine().Extract(ctx, source, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractSkipsFailingUnits(t *testing.T) {
	// A damaged page is skipped, not fatal
	source := &fakeSource{
		units:  []string{denseUnit(100), denseUnit(100), denseUnit(100)},
		errAt:  1,
		errSet: true,
	}

	text, err := testEngine().Extract(context.Background(), source, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(text), sufficiencyThreshold)
}

func TestLooksScanned(t *testing.T) {
	// 10 units at the 2000 chars/unit baseline would be 20000 chars;
	// below 10% of that is a scan
	assert.True(t, looksScanned(strings.Repeat("a", 1000), 10))
	assert.False(t, looksScanned(strings.Repeat("a", 5000), 10))
	assert.True(t, looksScanned("", 3))
}

func TestTextSourceChunking(t *testing.T) {
	text := strings.Repeat("z", expectedCharsPerUnit*2+10)
	source := NewTextSource(text)

	assert.Equal(t, 3, source.UnitCount())

	first, err := source.UnitText(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, first, expectedCharsPerUnit)

	last, err := source.UnitText(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, last, 10)
}
