package voice

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"murdermystery/internal/mystery"
)

// Characteristics are the voice-relevant traits extracted from a
// suspect profile.
type Characteristics struct {
	Gender string
	Age    string
	Accent string
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

var (
	maleWords   = []string{"mr.", "sir", "gentleman", " man ", "father", "brother", "husband", "uncle", "son", "butler", "valet", "businessman", "chairman", "lord", "duke", "baron", "earl", "count"}
	femaleWords = []string{"mrs.", "ms.", "miss", "madam", "woman", "mother", "sister", "wife", "aunt", "daughter", "maid", "housekeeper", "businesswoman", "lady", "duchess", "baroness", "countess"}

	youngWords  = []string{"young", "youth", "teenage", "twenties", "junior", "apprentice", "intern", "student"}
	oldWords    = []string{"old", "elderly", "aged", "senior", "retired", "veteran", "grandfather", "grandmother", "elder", "grey", "gray"}
	middleWords = []string{"middle-aged", "middle aged", "mature", "established", "thirties", "forties", "fifties"}
)

var accentKeywords = map[string][]string{
	"british":    {"british", "english", "london", "oxford", "butler", "manor", "estate", "lord", "lady"},
	"american":   {"american", "new york", "texas", "california"},
	"australian": {"australian", "aussie", "sydney", "melbourne"},
	"irish":      {"irish", "dublin"},
	"scottish":   {"scottish", "glasgow", "edinburgh"},
}

// nationality values the mystery generator emits, mapped to vendor
// accent vocabulary.
var nationalityAccents = map[string]string{
	"american":   "american",
	"british":    "british",
	"english":    "british",
	"australian": "australian",
	"irish":      "irish",
	"scottish":   "scottish",
}

// ExtractCharacteristics prefers the profile's explicit casting
// metadata and falls back to keyword scanning of the role and
// personality text.
func ExtractCharacteristics(s mystery.Suspect) Characteristics {
	text := normalize(s.Name + " " + s.Role + " " + s.Personality)
	var c Characteristics

	if g := normalize(s.Gender); g == "male" || g == "female" {
		c.Gender = g
	} else {
		maleScore, femaleScore := 0, 0
		for _, w := range maleWords {
			if strings.Contains(text, w) {
				maleScore++
			}
		}
		for _, w := range femaleWords {
			if strings.Contains(text, w) {
				femaleScore++
			}
		}
		if maleScore > femaleScore {
			c.Gender = "male"
		} else if femaleScore > maleScore {
			c.Gender = "female"
		}
	}

	switch normalize(s.Age) {
	case "young", "old", "middle_aged":
		c.Age = normalize(s.Age)
	default:
		if anyWord(text, oldWords) {
			c.Age = "old"
		} else if anyWord(text, youngWords) {
			c.Age = "young"
		} else if anyWord(text, middleWords) {
			c.Age = "middle_aged"
		}
	}

	if accent, ok := nationalityAccents[normalize(s.Nationality)]; ok {
		c.Accent = accent
	} else {
		for accent, keywords := range accentKeywords {
			if anyWord(text, keywords) {
				c.Accent = accent
				break
			}
		}
	}

	return c
}

func anyWord(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// ScoreMatch rates how well a voice fits the desired characteristics.
// Gender dominates; casting an old voice for a young suspect is worse
// than no age information at all.
func ScoreMatch(v Voice, c Characteristics) int {
	score := 0

	if c.Gender != "" && v.Gender != "" {
		if normalize(v.Gender) == c.Gender {
			score += 10
		} else {
			score -= 20
		}
	}

	if c.Age != "" && v.Age != "" {
		va := normalize(v.Age)
		switch {
		case strings.Contains(va, strings.TrimSuffix(c.Age, "_aged")),
			c.Age == "old" && (strings.Contains(va, "senior") || strings.Contains(va, "elderly")),
			c.Age == "middle_aged" && (strings.Contains(va, "middle") || strings.Contains(va, "mature")):
			score += 5
		case c.Age == "old" && strings.Contains(va, "young"),
			c.Age == "young" && (strings.Contains(va, "old") || strings.Contains(va, "senior")):
			score -= 8
		}
	}

	if c.Accent != "" && v.Accent != "" {
		va := normalize(v.Accent)
		switch {
		case strings.Contains(va, c.Accent), strings.Contains(c.Accent, va):
			score += 7
		case c.Accent == "british" && strings.Contains(va, "english"),
			c.Accent == "english" && strings.Contains(va, "british"):
			score += 7
		}
	}

	switch {
	case containsFold(v.UseCase, "character"), containsFold(v.UseCase, "narrat"):
		score += 2
	case containsFold(v.UseCase, "audiobook"):
		score++
	}

	return score
}

// Match picks the best unused voice for a suspect. When every
// candidate scores badly a random pick beats a systematically wrong
// one.
func Match(s mystery.Suspect, voices []Voice, usedIDs map[string]bool) (*Voice, int) {
	var candidates []Voice
	for _, v := range voices {
		if !usedIDs[v.VoiceID] {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	c := ExtractCharacteristics(s)
	bestIdx, bestScore := 0, ScoreMatch(candidates[0], c)
	for i := 1; i < len(candidates); i++ {
		if score := ScoreMatch(candidates[i], c); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	if bestScore < -10 {
		pick := candidates[rand.Intn(len(candidates))]
		return &pick, bestScore
	}
	return &candidates[bestIdx], bestScore
}

// AssignVoices casts the whole suspect list, never reusing a voice.
// A vendor failure yields an empty map; the game simply plays without
// per-suspect voices.
func (c *Client) AssignVoices(suspects []mystery.Suspect) map[string]string {
	assignments := make(map[string]string)
	if !c.Available() {
		return assignments
	}

	voices, err := c.Voices(context.Background(), false)
	if err != nil {
		if c.debug != nil {
			c.debug.Printf("Voice assignment skipped: %v", err)
		}
		return assignments
	}
	voices = FilterForCasting(voices)
	if len(voices) == 0 {
		return assignments
	}

	used := make(map[string]bool)
	for _, s := range suspects {
		v, score := Match(s, voices, used)
		if v == nil {
			continue
		}
		assignments[s.Name] = v.VoiceID
		used[v.VoiceID] = true
		if c.debug != nil {
			c.debug.Printf("Cast voice %q for %s (score %d)", v.Name, s.Name, score)
		}
	}
	return assignments
}

// VoiceSummary renders the castable catalog for prompt use, so the
// generator can imagine suspects the catalog can actually voice.
func (c *Client) VoiceSummary() string {
	if !c.Available() {
		return ""
	}
	voices, err := c.Voices(context.Background(), false)
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, v := range FilterForCasting(voices) {
		fmt.Fprintf(&b, "%s: %s, %s, %s\n", v.Name, orUnknown(v.Gender), orUnknown(v.Age), orUnknown(v.Accent))
	}
	return strings.TrimSpace(b.String())
}

func orUnknown(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}
