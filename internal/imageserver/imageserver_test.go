package imageserver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murdermystery/internal/llm"
)

func TestCacheKeyIsStableAndPromptSensitive(t *testing.T) {
	key := CacheKey("portrait of the butler")

	assert.Len(t, key, 12)
	assert.Equal(t, key, CacheKey("portrait of the butler"))
	assert.NotEqual(t, key, CacheKey("portrait of the cook"))
}

func TestCacheStoreAndLookup(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	_, ok := cache.Lookup("deadbeef0000")
	assert.False(t, ok)

	path, err := cache.Store("deadbeef0000", []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "deadbeef0000.png"))

	got, ok := cache.Lookup("deadbeef0000")
	assert.True(t, ok)
	assert.Equal(t, path, got)
}

func TestCacheListAndStats(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	_, err = cache.Store("aaaaaaaaaaaa", []byte("first"))
	require.NoError(t, err)
	_, err = cache.Store("bbbbbbbbbbbb", []byte("second image"))
	require.NoError(t, err)

	images, err := cache.List(0)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	limited, err := cache.List(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalImages)
	assert.Greater(t, stats.TotalSizeMB, 0.0)
}

func TestBackendServesCacheHitWithoutAPICall(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	prompt := "portrait of the butler"
	seeded, err := cache.Store(CacheKey(prompt), []byte("cached-png"))
	require.NoError(t, err)

	// The key is empty, so any API call would fail immediately. A
	// cache hit must never reach the client.
	backend := NewBackend("", cache, nil)
	path, err := backend.Generate(context.Background(), prompt)
	require.NoError(t, err)
	assert.Equal(t, seeded, path)
}

type fakeEnhancerLLM struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
}

func (f *fakeEnhancerLLM) CompleteText(_ context.Context, _ llm.TextCompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, f.err
}

func TestEnhancerMemoizesSuccessfulEnhancements(t *testing.T) {
	fake := &fakeEnhancerLLM{response: "A brooding oil portrait of the butler"}
	enhancer := NewEnhancer(fake, "", nil)

	first := enhancer.Enhance(context.Background(), "portrait of the butler", "fallback")
	second := enhancer.Enhance(context.Background(), "portrait of the butler", "fallback")

	assert.Equal(t, first, second)
	assert.Contains(t, first, "A brooding oil portrait")
	assert.Contains(t, first, "film noir")
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, 1, enhancer.CacheSize())
}

func TestEnhancerFallsBackOnFailure(t *testing.T) {
	fake := &fakeEnhancerLLM{err: errors.New("rate limited")}
	enhancer := NewEnhancer(fake, "", nil)

	got := enhancer.Enhance(context.Background(), "portrait of the butler", "the fallback prompt")

	assert.Equal(t, "the fallback prompt", got)
	// Failures are not memoized, so the next call retries.
	enhancer.Enhance(context.Background(), "portrait of the butler", "the fallback prompt")
	assert.Equal(t, 2, fake.calls)
	assert.Equal(t, 0, enhancer.CacheSize())
}

func TestEnhancerWithoutLLMUsesFallback(t *testing.T) {
	enhancer := NewEnhancer(nil, "", nil)
	got := enhancer.Enhance(context.Background(), "anything", "template prompt")
	assert.Equal(t, "template prompt", got)
}

func TestPromptTemplates(t *testing.T) {
	portrait := PortraitPrompt("Edmund Graves", "the butler", "stern and loyal", "", "Ravenscroft Manor")
	assert.Contains(t, portrait, "Edmund Graves")
	assert.Contains(t, portrait, "person")
	assert.Contains(t, portrait, "film noir")

	scene := ScenePrompt("library", "Ravenscroft Manor", "", "Books scattered on the floor.")
	assert.Contains(t, scene, "mysterious")
	assert.Contains(t, scene, "Books scattered")
	assert.Contains(t, scene, "No people visible")

	title := TitleCardPrompt("The Murder of Lord Ravenscroft", "a country estate")
	assert.Contains(t, title, `"The Murder of Lord Ravenscroft"`)
	assert.Contains(t, title, "art deco")
}
