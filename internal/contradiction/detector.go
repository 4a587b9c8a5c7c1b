// Package contradiction decides whether two statements from the same
// case genuinely conflict. Detection is an LLM judgment call with a
// memoized cache; when the model is unreachable the detector errs on
// the side of no contradiction so a vendor outage never hands the
// player a false accusation.
package contradiction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"murdermystery/internal/debug"
	"murdermystery/internal/llm"
	"murdermystery/internal/mystery"
)

const syncTimeout = 10 * time.Second

// Result is one contradiction verdict.
type Result struct {
	IsContradiction bool    `json:"is_contradiction"`
	Confidence      float64 `json:"confidence"`
	Explanation     string  `json:"explanation"`
}

type schemaCompleter interface {
	CompleteJSONSchema(ctx context.Context, req llm.JSONSchemaCompletionRequest) (string, error)
}

type Detector struct {
	llm   schemaCompleter
	debug *debug.Logger

	mu    sync.RWMutex
	cache map[string]Result
}

func NewDetector(svc schemaCompleter, dbg *debug.Logger) *Detector {
	return &Detector{
		llm:   svc,
		debug: dbg,
		cache: make(map[string]Result),
	}
}

// cacheKey normalizes a statement pair so trivial formatting
// differences hit the same entry.
func cacheKey(a, b string) string {
	return strings.ToLower(strings.TrimSpace(a)) + "||" + strings.ToLower(strings.TrimSpace(b))
}

func (d *Detector) lookup(a, b string) (Result, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if r, ok := d.cache[cacheKey(a, b)]; ok {
		return r, true
	}
	// A contradiction is symmetric; the pair may have been checked in
	// the other order.
	r, ok := d.cache[cacheKey(b, a)]
	return r, ok
}

func (d *Detector) store(a, b string, r Result) {
	d.mu.Lock()
	d.cache[cacheKey(a, b)] = r
	d.mu.Unlock()
}

// Check compares two statements, consulting the cache first. A failed
// LLM call yields the conservative no-contradiction result with the
// error recorded in the explanation.
func (d *Detector) Check(ctx context.Context, statementA, speakerA, statementB, speakerB string) Result {
	if cached, ok := d.lookup(statementA, statementB); ok {
		return cached
	}

	ctx = llm.WithOperationType(ctx, "contradiction_check")

	raw, err := d.llm.CompleteJSONSchema(ctx, llm.JSONSchemaCompletionRequest{
		SystemPrompt: detectorSystemPrompt,
		UserPrompt:   buildCheckPrompt(statementA, speakerA, statementB, speakerB),
		MaxTokens:    300,
		Model:        llm.UtilityModel,
		SchemaName:   "contradiction_result",
		Schema:       resultSchema(),
	})
	if err != nil {
		if d.debug != nil {
			d.debug.Printf("Contradiction check failed: %v", err)
		}
		return Result{Explanation: fmt.Sprintf("check unavailable: %v", err)}
	}

	var result Result
	if err := json.Unmarshal([]byte(mystery.StripMarkdownJSON(raw)), &result); err != nil {
		if d.debug != nil {
			d.debug.Printf("Contradiction result unparseable: %v", err)
		}
		return Result{Explanation: fmt.Sprintf("unparseable verdict: %v", err)}
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}

	d.store(statementA, statementB, result)
	return result
}

// CheckSync bounds the check for callers without a request context,
// such as the interrogation hot path.
func (d *Detector) CheckSync(statementA, speakerA, statementB, speakerB string) Result {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	return d.Check(ctx, statementA, speakerA, statementB, speakerB)
}

// CheckAgainstHistory compares a fresh statement against everything a
// suspect said before, returning the strongest contradiction found.
func (d *Detector) CheckAgainstHistory(ctx context.Context, statement, speaker string, history []string) (Result, bool) {
	var best Result
	found := false
	for _, prior := range history {
		if strings.EqualFold(strings.TrimSpace(prior), strings.TrimSpace(statement)) {
			continue
		}
		r := d.Check(ctx, statement, speaker, prior, speaker)
		if r.IsContradiction && (!found || r.Confidence > best.Confidence) {
			best = r
			found = true
		}
	}
	return best, found
}

// ClearCache drops all memoized verdicts. Called when a new mystery
// starts, since statements from different cases must never collide.
func (d *Detector) ClearCache() {
	d.mu.Lock()
	d.cache = make(map[string]Result)
	d.mu.Unlock()
}

func (d *Detector) CacheSize() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cache)
}

const detectorSystemPrompt = `You analyze witness statements from a murder investigation for genuine logical contradictions.

A contradiction means the two statements CANNOT both be true: conflicting locations at the same time, incompatible claims about the same event, mutually exclusive facts.

NOT contradictions: vague statements, different topics, differing opinions or impressions, one statement adding detail to the other.

Be conservative. When in doubt, report no contradiction with low confidence. Output ONLY JSON.`

func buildCheckPrompt(statementA, speakerA, statementB, speakerB string) string {
	return fmt.Sprintf("Statement 1 (%s): %q\nStatement 2 (%s): %q\n\nDo these statements genuinely contradict each other?",
		speakerA, statementA, speakerB, statementB)
}

func resultSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"is_contradiction": map[string]interface{}{
				"type":        "boolean",
				"description": "true only if the statements cannot both be true",
			},
			"confidence": map[string]interface{}{
				"type":        "number",
				"description": "0.0 to 1.0",
			},
			"explanation": map[string]interface{}{
				"type":        "string",
				"description": "one sentence explaining the verdict",
			},
		},
		"required":             []string{"is_contradiction", "confidence", "explanation"},
		"additionalProperties": false,
	}
}
