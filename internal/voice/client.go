// Package voice handles ElevenLabs voice casting: fetching the voice
// catalog and matching suspects to voices by gender, age, and accent.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"murdermystery/internal/debug"
)

const DefaultBaseURL = "https://api.elevenlabs.io/v1"

// Voice is one entry from the vendor catalog, flattened from its
// labels map.
type Voice struct {
	VoiceID     string `json:"voice_id"`
	Name        string `json:"name"`
	Gender      string `json:"gender,omitempty"`
	Age         string `json:"age,omitempty"`
	Accent      string `json:"accent,omitempty"`
	Description string `json:"description,omitempty"`
	UseCase     string `json:"use_case,omitempty"`
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	debug   *debug.Logger

	mu    sync.Mutex
	cache []Voice
}

func NewClient(apiKey string, dbg *debug.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		debug:   dbg,
	}
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type voicesResponse struct {
	Voices []struct {
		VoiceID string            `json:"voice_id"`
		Name    string            `json:"name"`
		Labels  map[string]string `json:"labels"`
	} `json:"voices"`
}

// Voices fetches the catalog, serving from cache unless forced.
func (c *Client) Voices(ctx context.Context, forceRefresh bool) ([]Voice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache != nil && !forceRefresh {
		return c.cache, nil
	}
	if !c.Available() {
		return nil, fmt.Errorf("elevenlabs api key not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build voices request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voices request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("voices request returned %d: %s", resp.StatusCode, body)
	}

	var parsed voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode voices response: %w", err)
	}

	voices := make([]Voice, 0, len(parsed.Voices))
	for _, v := range parsed.Voices {
		voices = append(voices, Voice{
			VoiceID:     v.VoiceID,
			Name:        v.Name,
			Gender:      v.Labels["gender"],
			Age:         v.Labels["age"],
			Accent:      v.Labels["accent"],
			Description: v.Labels["description"],
			UseCase:     v.Labels["use_case"],
		})
	}

	c.cache = voices
	if c.debug != nil {
		c.debug.Printf("Fetched %d voices from ElevenLabs", len(voices))
	}
	return voices, nil
}

var englishAccents = map[string]bool{
	"american":      true,
	"british":       true,
	"english":       true,
	"australian":    true,
	"irish":         true,
	"scottish":      true,
	"transatlantic": true,
}

// FilterForCasting keeps English-speaking voices suited to character
// work; narration- and conversation-style voices also qualify.
func FilterForCasting(voices []Voice) []Voice {
	var out []Voice
	for _, v := range voices {
		if v.Accent != "" && !englishAccents[normalize(v.Accent)] {
			continue
		}
		switch {
		case v.UseCase == "":
			out = append(out, v)
		case containsFold(v.UseCase, "character"), containsFold(v.UseCase, "animation"),
			containsFold(v.UseCase, "narrat"), containsFold(v.UseCase, "conversational"):
			out = append(out, v)
		}
	}
	return out
}
