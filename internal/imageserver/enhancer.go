package imageserver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"murdermystery/internal/debug"
	"murdermystery/internal/llm"
)

// artStyleSuffix keeps every generated image in the same visual register.
const artStyleSuffix = ", 1940s film noir style, dramatic chiaroscuro lighting, muted color palette, painterly illustration"

const enhancerSystemPrompt = `You are an expert at writing image generation prompts. Given a brief description, expand it into a rich, detailed prompt for an image model. Focus on composition, lighting, atmosphere and period-appropriate detail. Respond with the prompt text only, no preamble.`

type textCompleter interface {
	CompleteText(ctx context.Context, req llm.TextCompletionRequest) (string, error)
}

// Enhancer turns terse tool arguments into full image prompts,
// memoizing each enhancement so retries and shared prompts are free.
type Enhancer struct {
	llm   textCompleter
	model string
	debug *debug.Logger

	mu    sync.Mutex
	cache map[string]string
}

func NewEnhancer(svc textCompleter, model string, dbg *debug.Logger) *Enhancer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Enhancer{
		llm:   svc,
		model: model,
		debug: dbg,
		cache: make(map[string]string),
	}
}

// Enhance expands a brief into a full prompt. On any LLM failure it
// falls back to the deterministic template so image generation never
// blocks on the enhancer.
func (e *Enhancer) Enhance(ctx context.Context, brief, fallback string) string {
	e.mu.Lock()
	if cached, ok := e.cache[brief]; ok {
		e.mu.Unlock()
		return cached
	}
	e.mu.Unlock()

	if e.llm == nil {
		return fallback
	}

	enhanced, err := e.llm.CompleteText(ctx, llm.TextCompletionRequest{
		SystemPrompt: enhancerSystemPrompt,
		UserPrompt:   brief,
		MaxTokens:    300,
		Model:        e.model,
	})
	if err != nil || strings.TrimSpace(enhanced) == "" {
		if e.debug != nil {
			e.debug.Printf("prompt enhancement failed, using template: %v", err)
		}
		return fallback
	}

	prompt := strings.TrimSpace(enhanced) + artStyleSuffix
	e.mu.Lock()
	e.cache[brief] = prompt
	e.mu.Unlock()
	return prompt
}

// CacheSize reports how many enhancements are memoized.
func (e *Enhancer) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// PortraitPrompt builds the deterministic portrait prompt template.
func PortraitPrompt(name, role, personality, gender, setting string) string {
	if gender == "" {
		gender = "person"
	}
	return fmt.Sprintf(
		"Character portrait of %s, a %s, %s. Personality: %s. Setting: %s. Head and shoulders, looking toward the viewer%s",
		name, gender, role, personality, setting, artStyleSuffix,
	)
}

// ScenePrompt builds the deterministic scene prompt template.
func ScenePrompt(location, setting, mood, context string) string {
	if mood == "" {
		mood = "mysterious"
	}
	prompt := fmt.Sprintf("Interior scene: %s in %s. Mood: %s.", location, setting, mood)
	if context != "" {
		prompt += " " + context
	}
	return prompt + " No people visible, empty room" + artStyleSuffix
}

// TitleCardPrompt builds the deterministic title card prompt template.
func TitleCardPrompt(title, setting string) string {
	return fmt.Sprintf(
		"Vintage murder mystery title card reading \"%s\". Setting: %s. Ornate art deco border, dramatic typography%s",
		title, setting, artStyleSuffix,
	)
}
