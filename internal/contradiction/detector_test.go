package contradiction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murdermystery/internal/llm"
)

type scriptedCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (s *scriptedCompleter) CompleteJSONSchema(ctx context.Context, req llm.JSONSchemaCompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.response, s.err
}

const contradictionJSON = `{"is_contradiction": true, "confidence": 0.9, "explanation": "The speaker claims two different locations for the same time."}`

func TestCheckParsesVerdict(t *testing.T) {
	d := NewDetector(&scriptedCompleter{response: contradictionJSON}, nil)

	r := d.Check(context.Background(), "I was in the kitchen at nine", "butler", "I was in the garden at nine", "butler")
	assert.True(t, r.IsContradiction)
	assert.InDelta(t, 0.9, r.Confidence, 0.001)
	assert.NotEmpty(t, r.Explanation)
}

func TestCacheHitSkipsLLM(t *testing.T) {
	mock := &scriptedCompleter{response: contradictionJSON}
	d := NewDetector(mock, nil)

	a, b := "I was in the kitchen", "I was in the garden"
	first := d.Check(context.Background(), a, "butler", b, "butler")
	second := d.Check(context.Background(), a, "butler", b, "butler")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.calls)
	assert.Equal(t, 1, d.CacheSize())
}

func TestCacheIsOrderInsensitive(t *testing.T) {
	mock := &scriptedCompleter{response: contradictionJSON}
	d := NewDetector(mock, nil)

	d.Check(context.Background(), "statement one", "a", "statement two", "b")
	d.Check(context.Background(), "statement two", "b", "statement one", "a")

	assert.Equal(t, 1, mock.calls)
}

func TestCacheNormalizesFormatting(t *testing.T) {
	mock := &scriptedCompleter{response: contradictionJSON}
	d := NewDetector(mock, nil)

	d.Check(context.Background(), "I was HOME", "a", "I was out", "b")
	d.Check(context.Background(), "  i was home ", "a", "i was out", "b")

	assert.Equal(t, 1, mock.calls)
}

func TestFailureDefaultsToNoContradiction(t *testing.T) {
	mock := &scriptedCompleter{err: errors.New("connection refused")}
	d := NewDetector(mock, nil)

	r := d.Check(context.Background(), "a", "x", "b", "y")
	assert.False(t, r.IsContradiction)
	assert.Zero(t, r.Confidence)
	assert.Contains(t, r.Explanation, "connection refused")

	// Failures are not cached; the next call retries.
	d.Check(context.Background(), "a", "x", "b", "y")
	assert.Equal(t, 2, mock.calls)
	assert.Zero(t, d.CacheSize())
}

func TestUnparseableVerdictDefaultsToNoContradiction(t *testing.T) {
	d := NewDetector(&scriptedCompleter{response: "I cannot answer that"}, nil)

	r := d.Check(context.Background(), "a", "x", "b", "y")
	assert.False(t, r.IsContradiction)
	assert.Contains(t, r.Explanation, "unparseable")
}

func TestConfidenceClamped(t *testing.T) {
	d := NewDetector(&scriptedCompleter{response: `{"is_contradiction": true, "confidence": 3.5, "explanation": "x"}`}, nil)

	r := d.Check(context.Background(), "a", "x", "b", "y")
	assert.Equal(t, 1.0, r.Confidence)
}

func TestCheckSync(t *testing.T) {
	d := NewDetector(&scriptedCompleter{response: contradictionJSON}, nil)

	r := d.CheckSync("I left at ten", "wife", "I never left", "wife")
	assert.True(t, r.IsContradiction)
}

func TestCheckAgainstHistory(t *testing.T) {
	d := NewDetector(&scriptedCompleter{response: contradictionJSON}, nil)

	best, found := d.CheckAgainstHistory(context.Background(), "I was in the garden", "butler",
		[]string{"I was in the kitchen all evening", "The soup was excellent"})
	require.True(t, found)
	assert.True(t, best.IsContradiction)

	// Identical statements are never compared against themselves.
	mock := &scriptedCompleter{response: contradictionJSON}
	d2 := NewDetector(mock, nil)
	_, found = d2.CheckAgainstHistory(context.Background(), "I was here", "butler", []string{"i was here"})
	assert.False(t, found)
	assert.Zero(t, mock.calls)
}

func TestClearCache(t *testing.T) {
	mock := &scriptedCompleter{response: contradictionJSON}
	d := NewDetector(mock, nil)

	d.Check(context.Background(), "a", "x", "b", "y")
	require.Equal(t, 1, d.CacheSize())

	d.ClearCache()
	assert.Zero(t, d.CacheSize())

	d.Check(context.Background(), "a", "x", "b", "y")
	assert.Equal(t, 2, mock.calls)
}
