// Package tts turns suspect and narrator lines into audio. The
// timestamped endpoint is tried first so captions can highlight word
// by word; the plain endpoint is the reliable fallback, and a failing
// suspect voice falls back to the narrator voice rather than
// producing a silent turn.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"murdermystery/internal/debug"
)

const DefaultBaseURL = "https://api.elevenlabs.io/v1"

// WordTimestamp is one spoken word with its position in the audio.
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is one synthesis outcome. Words is nil when only the plain
// endpoint succeeded.
type Result struct {
	AudioPath string          `json:"audio_path"`
	Words     []WordTimestamp `json:"words,omitempty"`
}

type Service struct {
	apiKey       string
	baseURL      string
	narratorID   string
	modelID      string
	outputFormat string
	audioDir     string
	http         *http.Client
	debug        *debug.Logger
}

type Config struct {
	APIKey       string
	NarratorID   string
	ModelID      string
	OutputFormat string
	AudioDir     string
}

func NewService(cfg Config, dbg *debug.Logger) *Service {
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_flash_v2_5"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "mp3_44100_128"
	}
	if cfg.AudioDir == "" {
		cfg.AudioDir = filepath.Join(os.TempDir(), "murder_mystery_audio")
	}
	return &Service{
		apiKey:       cfg.APIKey,
		baseURL:      DefaultBaseURL,
		narratorID:   cfg.NarratorID,
		modelID:      cfg.ModelID,
		outputFormat: cfg.OutputFormat,
		audioDir:     cfg.AudioDir,
		http:         &http.Client{Timeout: 30 * time.Second},
		debug:        dbg,
	}
}

// AudioDir is where synthesized files land, for the HTTP layer to
// serve them back out.
func (s *Service) AudioDir() string {
	return s.audioDir
}

// Available reports whether synthesis can run. Safe on a nil
// receiver so callers can pass an unconfigured service through.
func (s *Service) Available() bool {
	return s != nil && s.apiKey != ""
}

var dramaticWords = regexp.MustCompile(`(?i)\b(suddenly|immediately|finally|quickly|carefully|silently|slowly|quietly)\b`)

// enhanceForSpeech uppercases dramatic adverbs so the model leans
// into them.
func enhanceForSpeech(text string) string {
	return dramaticWords.ReplaceAllStringFunc(text, strings.ToUpper)
}

// Speak synthesizes a line, preferring voiceID but never failing a
// turn just because a cast voice is broken.
func (s *Service) Speak(ctx context.Context, text, voiceID string) (*Result, error) {
	if !s.Available() {
		return nil, fmt.Errorf("elevenlabs api key not set")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text")
	}
	if voiceID == "" {
		voiceID = s.narratorID
	}

	if res, err := s.speakWithTimestamps(ctx, text, voiceID); err == nil {
		return res, nil
	} else if s.debug != nil {
		s.debug.Printf("Timestamped TTS failed for voice %s: %v", voiceID, err)
	}

	res, err := s.speakBasic(ctx, text, voiceID)
	if err == nil {
		return res, nil
	}

	if voiceID != s.narratorID && s.narratorID != "" {
		if s.debug != nil {
			s.debug.Printf("TTS failed for voice %s, retrying with narrator voice: %v", voiceID, err)
		}
		return s.speakBasic(ctx, text, s.narratorID)
	}
	return nil, err
}

type timestampedResponse struct {
	AudioBase64 string `json:"audio_base64"`
	Alignment   *struct {
		Characters              []string  `json:"characters"`
		CharacterStartTimesSecs []float64 `json:"character_start_times_seconds"`
		CharacterEndTimesSecs   []float64 `json:"character_end_times_seconds"`
	} `json:"alignment"`
}

func (s *Service) speakWithTimestamps(ctx context.Context, text, voiceID string) (*Result, error) {
	body, err := s.post(ctx, fmt.Sprintf("/text-to-speech/%s/with-timestamps", voiceID), text)
	if err != nil {
		return nil, err
	}

	var parsed timestampedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode timestamped response: %w", err)
	}
	if parsed.AudioBase64 == "" {
		return nil, fmt.Errorf("timestamped response carried no audio")
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}
	if len(audio) < 100 {
		return nil, fmt.Errorf("audio payload suspiciously small: %d bytes", len(audio))
	}

	path, err := s.writeAudio(audio)
	if err != nil {
		return nil, err
	}

	result := &Result{AudioPath: path}
	if a := parsed.Alignment; a != nil {
		result.Words = CharactersToWords(a.Characters, a.CharacterStartTimesSecs, a.CharacterEndTimesSecs)
	}
	return result, nil
}

func (s *Service) speakBasic(ctx context.Context, text, voiceID string) (*Result, error) {
	audio, err := s.post(ctx, "/text-to-speech/"+voiceID, text)
	if err != nil {
		return nil, err
	}
	if len(audio) < 100 {
		return nil, fmt.Errorf("audio payload suspiciously small: %d bytes", len(audio))
	}

	path, err := s.writeAudio(audio)
	if err != nil {
		return nil, err
	}
	return &Result{AudioPath: path}, nil
}

func (s *Service) post(ctx context.Context, path, text string) ([]byte, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"text":     enhanceForSpeech(text),
		"model_id": s.modelID,
		"voice_settings": map[string]interface{}{
			"stability":         0.5,
			"similarity_boost":  0.75,
			"style":             0.5,
			"use_speaker_boost": true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build tts payload: %w", err)
	}

	url := fmt.Sprintf("%s%s?output_format=%s", s.baseURL, path, s.outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build tts request: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts request returned %d: %s", resp.StatusCode, snippet)
	}
	return io.ReadAll(resp.Body)
}

func (s *Service) writeAudio(audio []byte) (string, error) {
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio dir: %w", err)
	}
	name := fmt.Sprintf("tts_%s.mp3", uuid.NewString()[:8])
	path := filepath.Join(s.audioDir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	return path, nil
}

// CharactersToWords folds character-level alignment into word-level
// timestamps, splitting on whitespace. Mismatched array lengths yield
// nothing rather than misaligned captions.
func CharactersToWords(chars []string, starts, ends []float64) []WordTimestamp {
	if len(chars) == 0 || len(chars) != len(starts) || len(chars) != len(ends) {
		return nil
	}

	var words []WordTimestamp
	var current strings.Builder
	var start, end float64
	started := false

	flush := func() {
		if started && current.Len() > 0 {
			words = append(words, WordTimestamp{Word: current.String(), Start: start, End: end})
		}
		current.Reset()
		started = false
	}

	for i, ch := range chars {
		if ch == " " || ch == "\n" || ch == "\t" {
			flush()
			continue
		}
		if !started {
			start = starts[i]
			started = true
		}
		current.WriteString(ch)
		end = ends[i]
	}
	flush()

	return words
}

// EstimateTimestamps fabricates plausible timing when the vendor gave
// none, at roughly 0.35 seconds per word.
func EstimateTimestamps(text string) []WordTimestamp {
	fields := strings.Fields(text)
	words := make([]WordTimestamp, 0, len(fields))
	t := 0.0
	for _, w := range fields {
		words = append(words, WordTimestamp{Word: w, Start: t, End: t + 0.35})
		t += 0.35
	}
	return words
}
