// Package imageserver implements the image generation MCP server. It
// exposes tools over stdio that enhance a brief into a full prompt,
// render it through the OpenAI images API and return the path of the
// cached PNG.
package imageserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"murdermystery/internal/debug"
)

type Server struct {
	backend  *Backend
	enhancer *Enhancer
	cache    *Cache
	debug    *debug.Logger
}

func NewServer(backend *Backend, enhancer *Enhancer, cache *Cache, dbg *debug.Logger) *Server {
	return &Server{
		backend:  backend,
		enhancer: enhancer,
		cache:    cache,
		debug:    dbg,
	}
}

// Run serves the image tools over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "murder-mystery-images",
		Version: "v1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_character_portrait",
		Description: "Generate a portrait image for a mystery suspect",
	}, s.generatePortrait)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_scene",
		Description: "Generate an image of a location in the mystery",
	}, s.generateScene)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_title_card",
		Description: "Generate a title card image for the mystery",
	}, s.generateTitleCard)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_cached_images",
		Description: "List recently generated images in the cache",
	}, s.listCachedImages)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "cache_stats",
		Description: "Report image cache size and location",
	}, s.cacheStats)

	return server.Run(ctx, mcp.NewStdioTransport())
}

type portraitArgs struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	Gender      string `json:"gender,omitempty"`
	Setting     string `json:"setting"`
}

func (s *Server) generatePortrait(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[portraitArgs]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	brief := fmt.Sprintf("Portrait of %s, a %s in %s. Personality: %s.", a.Name, a.Role, a.Setting, a.Personality)
	prompt := s.enhancer.Enhance(ctx, brief, PortraitPrompt(a.Name, a.Role, a.Personality, a.Gender, a.Setting))
	return s.render(ctx, prompt)
}

type sceneArgs struct {
	Location string `json:"location"`
	Setting  string `json:"setting"`
	Mood     string `json:"mood,omitempty"`
	Context  string `json:"context,omitempty"`
}

func (s *Server) generateScene(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[sceneArgs]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	brief := fmt.Sprintf("Scene of the %s in %s, mood %s. %s", a.Location, a.Setting, a.Mood, a.Context)
	prompt := s.enhancer.Enhance(ctx, brief, ScenePrompt(a.Location, a.Setting, a.Mood, a.Context))
	return s.render(ctx, prompt)
}

type titleCardArgs struct {
	Title            string `json:"title"`
	Setting          string `json:"setting"`
	VictimName       string `json:"victim_name,omitempty"`
	VictimBackground string `json:"victim_background,omitempty"`
}

func (s *Server) generateTitleCard(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[titleCardArgs]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	brief := fmt.Sprintf("Title card for a murder mystery called %q, set in %s. The victim is %s, %s.",
		a.Title, a.Setting, a.VictimName, a.VictimBackground)
	prompt := s.enhancer.Enhance(ctx, brief, TitleCardPrompt(a.Title, a.Setting))
	return s.render(ctx, prompt)
}

func (s *Server) render(ctx context.Context, prompt string) (*mcp.CallToolResultFor[any], error) {
	path, err := s.backend.Generate(ctx, prompt)
	if err != nil {
		if s.debug != nil {
			s.debug.Printf("image tool failed: %v", err)
		}
		return &mcp.CallToolResultFor[any]{
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			IsError: true,
		}, nil
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: path}},
	}, nil
}

type listArgs struct {
	Limit int `json:"limit,omitempty"`
}

func (s *Server) listCachedImages(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[listArgs]) (*mcp.CallToolResultFor[any], error) {
	limit := params.Arguments.Limit
	if limit <= 0 {
		limit = 20
	}
	images, err := s.cache.List(limit)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(images)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil
}

type statsArgs struct{}

func (s *Server) cacheStats(_ context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[statsArgs]) (*mcp.CallToolResultFor[any], error) {
	stats, err := s.cache.Stats()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil
}
