package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhanceForSpeech(t *testing.T) {
	assert.Equal(t, "She SUDDENLY turned and walked SLOWLY away.",
		enhanceForSpeech("She suddenly turned and walked slowly away."))
	assert.Equal(t, "No dramatic words here.", enhanceForSpeech("No dramatic words here."))
	// Word boundaries: no rewriting inside other words.
	assert.Equal(t, "unquietly", enhanceForSpeech("unquietly"))
}

func TestCharactersToWords(t *testing.T) {
	chars := []string{"h", "i", " ", "y", "o", "u"}
	starts := []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5}
	ends := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}

	words := CharactersToWords(chars, starts, ends)
	require.Len(t, words, 2)
	assert.Equal(t, WordTimestamp{Word: "hi", Start: 0.0, End: 0.2}, words[0])
	assert.Equal(t, WordTimestamp{Word: "you", Start: 0.3, End: 0.6}, words[1])
}

func TestCharactersToWordsRejectsMismatch(t *testing.T) {
	assert.Nil(t, CharactersToWords([]string{"a", "b"}, []float64{0}, []float64{0, 1}))
	assert.Nil(t, CharactersToWords(nil, nil, nil))
}

func TestCharactersToWordsCollapsesWhitespace(t *testing.T) {
	chars := []string{"a", " ", " ", "\n", "b"}
	starts := []float64{0, 1, 2, 3, 4}
	ends := []float64{1, 2, 3, 4, 5}

	words := CharactersToWords(chars, starts, ends)
	require.Len(t, words, 2)
	assert.Equal(t, "a", words[0].Word)
	assert.Equal(t, "b", words[1].Word)
}

func TestEstimateTimestamps(t *testing.T) {
	words := EstimateTimestamps("three little words")
	require.Len(t, words, 3)
	assert.Equal(t, 0.0, words[0].Start)
	assert.InDelta(t, 0.70, words[2].Start, 0.001)
	assert.Empty(t, EstimateTimestamps("   "))
}

// fakeVendor simulates the two synthesis endpoints, with per-voice
// failure injection.
type fakeVendor struct {
	failTimestamps bool
	failBasicFor   map[string]bool
	calls          []string
}

func (f *fakeVendor) handler(t *testing.T) http.HandlerFunc {
	audio := strings.Repeat("mp3-bytes!", 20)
	return func(w http.ResponseWriter, r *http.Request) {
		f.calls = append(f.calls, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))

		if strings.HasSuffix(r.URL.Path, "/with-timestamps") {
			if f.failTimestamps {
				http.Error(w, "no timestamps for you", http.StatusBadRequest)
				return
			}
			resp := map[string]interface{}{
				"audio_base64": base64.StdEncoding.EncodeToString([]byte(audio)),
				"alignment": map[string]interface{}{
					"characters":                    []string{"h", "i"},
					"character_start_times_seconds": []float64{0.0, 0.1},
					"character_end_times_seconds":   []float64{0.1, 0.2},
				},
			}
			json.NewEncoder(w).Encode(resp)
			return
		}

		voiceID := strings.TrimPrefix(r.URL.Path, "/text-to-speech/")
		if f.failBasicFor[voiceID] {
			http.Error(w, "unknown voice", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, audio)
	}
}

func newTestService(t *testing.T, vendor *fakeVendor) *Service {
	t.Helper()
	srv := httptest.NewServer(vendor.handler(t))
	t.Cleanup(srv.Close)

	s := NewService(Config{
		APIKey:     "secret",
		NarratorID: "narrator",
		AudioDir:   t.TempDir(),
	}, nil)
	s.baseURL = srv.URL
	return s
}

func TestSpeakPrefersTimestamps(t *testing.T) {
	s := newTestService(t, &fakeVendor{})

	res, err := s.Speak(context.Background(), "hi", "voice-1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AudioPath)
	require.Len(t, res.Words, 1)
	assert.Equal(t, "hi", res.Words[0].Word)
}

func TestSpeakFallsBackToBasic(t *testing.T) {
	vendor := &fakeVendor{failTimestamps: true}
	s := newTestService(t, vendor)

	res, err := s.Speak(context.Background(), "hello there", "voice-1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AudioPath)
	assert.Nil(t, res.Words)
	assert.Contains(t, vendor.calls, "/text-to-speech/voice-1")
}

func TestSpeakRetriesWithNarratorVoice(t *testing.T) {
	vendor := &fakeVendor{
		failTimestamps: true,
		failBasicFor:   map[string]bool{"broken-voice": true},
	}
	s := newTestService(t, vendor)

	res, err := s.Speak(context.Background(), "hello", "broken-voice")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AudioPath)
	assert.Equal(t, "/text-to-speech/narrator", vendor.calls[len(vendor.calls)-1])
}

func TestSpeakRejectsEmptyText(t *testing.T) {
	s := newTestService(t, &fakeVendor{})
	_, err := s.Speak(context.Background(), "   ", "voice-1")
	assert.Error(t, err)
}

func TestSpeakWithoutKey(t *testing.T) {
	s := NewService(Config{}, nil)
	_, err := s.Speak(context.Background(), "hello", "")
	assert.Error(t, err)
}
