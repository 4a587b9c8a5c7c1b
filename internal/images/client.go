// Package images drives the image-generation MCP server. Every tool
// call opens its own session against a freshly spawned server process,
// which is what lets portrait and scene generation run genuinely in
// parallel: there is no shared connection to serialize on.
package images

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"murdermystery/internal/debug"
	"murdermystery/internal/mystery"
)

// TitleCardKey indexes the title card in batch results.
const TitleCardKey = "_title_card"

// ScenePrefix namespaces scene paths in batch results, keyed by
// clue location.
const ScenePrefix = "_scene:"

type Client struct {
	command     string
	args        []string
	maxParallel int
	debug       *debug.Logger
}

func NewClient(command string, args []string, dbg *debug.Logger) *Client {
	return &Client{command: command, args: args, debug: dbg}
}

// WithMaxParallel caps concurrent server spawns per fan-out. Zero
// means unbounded.
func (c *Client) WithMaxParallel(n int) *Client {
	c.maxParallel = n
	return c
}

// newSemaphore returns a fan-out slot channel, or nil when the cap
// is unset.
func (c *Client) newSemaphore() chan struct{} {
	if c.maxParallel <= 0 {
		return nil
	}
	return make(chan struct{}, c.maxParallel)
}

// Available reports whether a server command is configured. Safe on
// a nil receiver.
func (c *Client) Available() bool {
	return c != nil && c.command != ""
}

// callTool spawns the server, runs one tool call, and tears the
// session down. The returned text is the generated image path.
func (c *Client) callTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "murder-mystery-client",
		Version: "v1.0.0",
	}, nil)

	transport := mcp.NewCommandTransport(exec.Command(c.command, c.args...))
	session, err := client.Connect(ctx, transport)
	if err != nil {
		return "", fmt.Errorf("failed to connect to image server: %w", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("%s call failed: %w", name, err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("%s returned no content", name)
	}

	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("%s returned unexpected content type", name)
	}
	if result.IsError {
		return "", fmt.Errorf("%s failed: %s", name, text.Text)
	}
	return text.Text, nil
}

// PortraitRequest describes one character portrait.
type PortraitRequest struct {
	Name        string
	Role        string
	Personality string
	Gender      string
	Setting     string
}

func (c *Client) GeneratePortrait(ctx context.Context, req PortraitRequest) (string, error) {
	gender := req.Gender
	if gender == "" {
		gender = "person"
	}
	return c.callTool(ctx, "generate_character_portrait", map[string]interface{}{
		"name":        req.Name,
		"role":        req.Role,
		"personality": req.Personality,
		"gender":      gender,
		"setting":     req.Setting,
	})
}

// SceneRequest describes one location background.
type SceneRequest struct {
	Location string
	Setting  string
	Mood     string
	Context  string
}

func (c *Client) GenerateScene(ctx context.Context, req SceneRequest) (string, error) {
	mood := req.Mood
	if mood == "" {
		mood = "mysterious"
	}
	return c.callTool(ctx, "generate_scene", map[string]interface{}{
		"location": req.Location,
		"setting":  req.Setting,
		"mood":     mood,
		"context":  req.Context,
	})
}

func (c *Client) GenerateTitleCard(ctx context.Context, title, setting, victimName, victimBackground string) (string, error) {
	return c.callTool(ctx, "generate_title_card", map[string]interface{}{
		"title":             title,
		"setting":           setting,
		"victim_name":       victimName,
		"victim_background": victimBackground,
	})
}

// GeneratePortraitsParallel fans out over the cast. A failed portrait
// is logged and dropped; the rest of the cast still gets faces.
func (c *Client) GeneratePortraitsParallel(ctx context.Context, reqs []PortraitRequest) map[string]string {
	results := make(map[string]string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := c.newSemaphore()

	for _, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			path, err := c.GeneratePortrait(ctx, req)
			if err != nil {
				if c.debug != nil {
					c.debug.Printf("Portrait failed for %s: %v", req.Name, err)
				}
				return
			}
			mu.Lock()
			results[req.Name] = path
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// GenerateScenesParallel fans out over locations with the same
// per-item failure isolation.
func (c *Client) GenerateScenesParallel(ctx context.Context, reqs []SceneRequest) map[string]string {
	results := make(map[string]string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := c.newSemaphore()

	for _, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			path, err := c.GenerateScene(ctx, req)
			if err != nil {
				if c.debug != nil {
					c.debug.Printf("Scene failed for %s: %v", req.Location, err)
				}
				return
			}
			mu.Lock()
			results[req.Location] = path
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// GenerateAllMysteryImages produces the full opening batch: every
// suspect portrait, a scene background per clue location, and the
// title card, all concurrent. Scene paths are keyed ScenePrefix +
// location.
func (c *Client) GenerateAllMysteryImages(ctx context.Context, m *mystery.Mystery) map[string]string {
	reqs := make([]PortraitRequest, 0, len(m.Suspects))
	for _, s := range m.Suspects {
		reqs = append(reqs, PortraitRequest{
			Name:        s.Name,
			Role:        s.Role,
			Personality: s.Personality,
			Gender:      s.Gender,
			Setting:     m.Setting,
		})
	}

	sceneReqs := make([]SceneRequest, 0)
	for _, loc := range m.ClueLocations() {
		sceneCtx := ""
		for _, clue := range m.Clues {
			if clue.Location == loc {
				sceneCtx = fmt.Sprintf("Focus: %s.", clue.Description)
				break
			}
		}
		sceneReqs = append(sceneReqs, SceneRequest{
			Location: loc,
			Setting:  m.Setting,
			Context:  sceneCtx,
		})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[string]string)

	wg.Add(1)
	go func() {
		defer wg.Done()
		portraits := c.GeneratePortraitsParallel(ctx, reqs)
		mu.Lock()
		for name, path := range portraits {
			results[name] = path
		}
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		scenes := c.GenerateScenesParallel(ctx, sceneReqs)
		mu.Lock()
		for loc, path := range scenes {
			results[ScenePrefix+loc] = path
		}
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		title := fmt.Sprintf("The Murder of %s", m.Victim.Name)
		path, err := c.GenerateTitleCard(ctx, title, m.Setting, m.Victim.Name, m.Victim.Background)
		if err != nil {
			if c.debug != nil {
				c.debug.Printf("Title card failed: %v", err)
			}
			return
		}
		mu.Lock()
		results[TitleCardKey] = path
		mu.Unlock()
	}()

	wg.Wait()
	return results
}
