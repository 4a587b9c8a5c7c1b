package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"murdermystery/internal/debug"
	"murdermystery/internal/observability"
)

// Context keys for operation tracing
type contextKey string

const (
	operationTypeKey contextKey = "operation_type"
	caseContextKey   contextKey = "case_context"
)

const (
	// DefaultModel handles roleplay and narrative generation.
	DefaultModel = "gpt-4o"
	// UtilityModel handles small structured tasks (premises, skeletons,
	// contradiction checks, suspect resolution).
	UtilityModel = "gpt-4o-mini"
)

type Service struct {
	client *openai.Client
	model  string
	debug  *debug.Logger
	tracer trace.Tracer
}

func NewService(apiKey string, debug *debug.Logger) *Service {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Service{
		client: &client,
		model:  DefaultModel,
		debug:  debug,
		tracer: otel.Tracer("llm-service"),
	}
}

type TextCompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Model        string // optional override
}

type JSONSchemaCompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Model        string // optional override
	SchemaName   string
	Schema       interface{}
}

func (s *Service) CompleteText(ctx context.Context, req TextCompletionRequest) (string, error) {
	operationType := "text_completion"
	if opType := getOperationType(ctx); opType != "" {
		operationType = opType
	}

	model := s.model
	if strings.TrimSpace(req.Model) != "" {
		model = req.Model
	}
	ctx, span := s.tracer.Start(ctx, operationType,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			observability.CreateGenAIAttributes("openai", model, 0, 0, 0.0)...,
		),
	)
	defer span.End()

	s.annotateSpan(ctx, span, operationType, req.MaxTokens, "text")

	span.AddEvent("gen_ai.user.message", trace.WithAttributes(
		attribute.String("gen_ai.system", "openai"),
		attribute.String("content", req.UserPrompt),
	))

	startTime := time.Now()

	openaiReq := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
	}

	if s.debug != nil {
		s.debug.Printf("LLM Text Completion - MaxTokens: %d, SystemPrompt length: %d", req.MaxTokens, len(req.SystemPrompt))
	}

	resp, err := s.client.Chat.Completions.New(ctx, openaiReq)
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "llm_completion_error"))
		span.RecordError(err)
		if s.debug != nil {
			s.debug.Printf("LLM Text Completion error: %v", err)
		}
		return "", fmt.Errorf("text completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no completion choices returned")
		span.RecordError(err)
		return "", err
	}

	content := resp.Choices[0].Message.Content
	duration := time.Since(startTime)

	s.recordUsage(span, req.SystemPrompt, req.UserPrompt, content, "text", model, resp, duration)

	if s.debug != nil {
		s.debug.Printf("LLM Text Completion response length: %d, tokens: %d/%d, duration: %v",
			len(content), resp.Usage.PromptTokens, resp.Usage.CompletionTokens, duration)
	}

	return content, nil
}

func (s *Service) CompleteJSONSchema(ctx context.Context, req JSONSchemaCompletionRequest) (string, error) {
	operationType := "json_schema_completion"
	if opType := getOperationType(ctx); opType != "" {
		operationType = opType
	}

	model := s.model
	if strings.TrimSpace(req.Model) != "" {
		model = req.Model
	}
	ctx, span := s.tracer.Start(ctx, operationType,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			observability.CreateGenAIAttributes("openai", model, 0, 0, 0.0)...,
		),
	)
	defer span.End()

	s.annotateSpan(ctx, span, operationType, req.MaxTokens, "json_schema")

	span.AddEvent("gen_ai.user.message", trace.WithAttributes(
		attribute.String("gen_ai.system", "openai"),
		attribute.String("content", req.UserPrompt),
	))

	startTime := time.Now()

	openaiReq := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				Type: constant.JSONSchema("json_schema"),
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}

	if s.debug != nil {
		s.debug.Printf("LLM JSON Schema Completion - MaxTokens: %d, Schema: %s", req.MaxTokens, req.SchemaName)
	}

	resp, err := s.client.Chat.Completions.New(ctx, openaiReq)
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "llm_completion_error"))
		span.RecordError(err)
		if s.debug != nil {
			s.debug.Printf("LLM JSON Schema Completion error: %v", err)
		}
		return "", fmt.Errorf("JSON schema completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no completion choices returned")
		span.RecordError(err)
		return "", err
	}

	content := resp.Choices[0].Message.Content
	duration := time.Since(startTime)

	if s.debug != nil {
		s.debug.Printf("JSON Schema Response: content=%q, finish_reason=%s",
			content, resp.Choices[0].FinishReason)
	}

	s.recordUsage(span, req.SystemPrompt, req.UserPrompt, content, "json_schema", model, resp, duration)

	return content, nil
}

func (s *Service) annotateSpan(ctx context.Context, span trace.Span, operationType string, maxTokens int, format string) {
	attrs := []attribute.KeyValue{
		attribute.Int("gen_ai.request.max_tokens", maxTokens),
		attribute.String("langfuse.observation.type", "generation"),
		attribute.String("response_format", format),
		attribute.String("game.operation_type", operationType),
	}

	if sessionID := getSessionID(ctx); sessionID != "" {
		attrs = append(attrs,
			attribute.String("langfuse.session.id", sessionID),
			attribute.String("session.id", sessionID),
		)
	}

	if caseCtx := getCaseContext(ctx); caseCtx != nil {
		for k, v := range caseCtx {
			switch val := v.(type) {
			case string:
				attrs = append(attrs, attribute.String("game."+k, val))
			case int:
				attrs = append(attrs, attribute.Int("game."+k, val))
			case []string:
				attrs = append(attrs, attribute.StringSlice("game."+k, val))
			}
		}
	}

	span.SetAttributes(attrs...)
}

func (s *Service) recordUsage(span trace.Span, systemPrompt, userPrompt, content, format, model string, resp *openai.ChatCompletion, duration time.Duration) {
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int64("response_time_ms", duration.Milliseconds()),
		attribute.String("langfuse.observation.input", systemPrompt+"\n\n"+userPrompt),
		attribute.String("langfuse.observation.output", content),
		attribute.String("langfuse.observation.output_format", format),
		attribute.String("langfuse.observation.model.name", model),
	)

	span.AddEvent("gen_ai.choice", trace.WithAttributes(
		attribute.String("gen_ai.system", "openai"),
		attribute.String("content", content),
	))
}

func WithOperationType(ctx context.Context, opType string) context.Context {
	return context.WithValue(ctx, operationTypeKey, opType)
}

// WithCaseContext attaches case metadata (suspect names, turn counts)
// that gets copied onto every LLM span started below this context.
func WithCaseContext(ctx context.Context, caseCtx map[string]interface{}) context.Context {
	if existing, ok := ctx.Value(caseContextKey).(map[string]interface{}); ok && existing != nil {
		merged := make(map[string]interface{}, len(existing)+len(caseCtx))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range caseCtx {
			merged[k] = v
		}
		return context.WithValue(ctx, caseContextKey, merged)
	}
	return context.WithValue(ctx, caseContextKey, caseCtx)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, observability.GetSessionIDKey(), sessionID)
}

func getOperationType(ctx context.Context) string {
	if opType, ok := ctx.Value(operationTypeKey).(string); ok {
		return opType
	}
	return ""
}

func getCaseContext(ctx context.Context) map[string]interface{} {
	if caseCtx, ok := ctx.Value(caseContextKey).(map[string]interface{}); ok {
		return caseCtx
	}
	return nil
}

func getSessionID(ctx context.Context) string {
	return observability.GetSessionIDFromContext(ctx)
}
