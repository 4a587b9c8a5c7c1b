// Package server exposes the game over HTTP. Handlers shape game and
// assistant results into JSON, and the case board into an HTML
// fragment for the browser client.
package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"murdermystery/internal/assistant"
	"murdermystery/internal/captions"
	"murdermystery/internal/caseboard"
	"murdermystery/internal/debug"
	"murdermystery/internal/game"
)

type Server struct {
	manager   *game.Manager
	assistant *assistant.Assistant
	audioDir  string
	debug     *debug.Logger
}

func New(manager *game.Manager, asst *assistant.Assistant, audioDir string, dbg *debug.Logger) *Server {
	return &Server{manager: manager, assistant: asst, audioDir: audioDir, debug: dbg}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.health)
	r.GET("/captions/sync.js", s.captionScript)
	r.GET("/audio/:name", s.serveAudio)

	r.POST("/game/start", s.startGame)
	r.POST("/game/:id/action", s.handleAction)
	r.GET("/game/:id/transcript", s.transcript)
	r.GET("/game/:id/completions", s.completions)
	r.GET("/game/:id/media", s.media)
	r.GET("/game/:id/notebook", s.notebook)
	r.DELETE("/game/:id", s.endGame)
	r.GET("/game/:id/board", s.caseBoard)
	r.GET("/game/:id/assistant/report", s.assistantReport)
	r.GET("/game/:id/assistant/suggestions", s.assistantSuggestions)
	r.GET("/game/:id/assistant/suspect/:name", s.assistantSuspect)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) captionScript(c *gin.Context) {
	c.Data(http.StatusOK, "application/javascript", []byte(captions.SyncScript))
}

// serveAudio serves synthesized audio by file name only, never by
// arbitrary path.
func (s *Server) serveAudio(c *gin.Context) {
	name := filepath.Base(c.Param("name"))
	if name == "." || name == "/" || filepath.Ext(name) != ".mp3" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid audio name"})
		return
	}
	c.File(filepath.Join(s.audioDir, name))
}

// startGame creates a session. The premise returns immediately; the
// full case file finishes generating in the background and the client
// polls readiness through its first actions.
func (s *Server) startGame(c *gin.Context) {
	session, err := s.manager.StartSession(c.Request.Context())
	if err != nil {
		if s.debug != nil {
			s.debug.Printf("start game failed: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start game"})
		return
	}

	premise := session.Premise()
	transcript := session.Transcript()
	narration := ""
	if len(transcript) > 0 {
		narration = transcript[0].Content
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"premise":    premise,
		"narration":  narration,
		"ready":      session.Ready(),
	})
}

type actionRequest struct {
	Action  string `json:"action"`
	Target  string `json:"target"`
	Message string `json:"message"`
}

func (s *Server) handleAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := s.manager.HandleAction(c.Request.Context(), c.Param("id"), req.Action, req.Target, req.Message)
	if err != nil {
		if s.debug != nil {
			s.debug.Printf("action failed: %v", err)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	payload := gin.H{"result": result}
	if result.AudioPath != "" {
		payload["audio_url"] = "/audio/" + filepath.Base(result.AudioPath)
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) transcript(c *gin.Context) {
	session, ok := s.manager.Session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": session.Transcript()})
}

// completions exposes the LLM audit log for a session, for debugging
// generation and interrogation output.
func (s *Server) completions(c *gin.Context) {
	session, ok := s.manager.Session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	entries, err := s.manager.CompletionHistory(session.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Audit log unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completions": entries})
}

// media lists the generated artwork for a session: the title card,
// suspect portraits, and any prewarmed scene images.
func (s *Server) media(c *gin.Context) {
	session, ok := s.sessionReady(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Media())
}

// caseBoard returns the conspiracy board fragment, or the plain-text
// listing with ?format=text.
func (s *Server) caseBoard(c *gin.Context) {
	session, ok := s.manager.Session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	if !session.Ready() {
		c.JSON(http.StatusAccepted, gin.H{"status": "preparing"})
		return
	}

	board := caseboard.Build(session.BoardInput())
	if c.Query("format") == "text" {
		c.String(http.StatusOK, board.RenderText())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(board.RenderHTML()))
}

// notebook reads the persistent investigation record. ?suspect=name
// returns that suspect's recorded statements, adding ?versus=other
// narrows to the statements where the two mention each other, and
// ?topic=subject cross-references every speaker's take on a subject.
// With no query it lists the recorded clues.
func (s *Server) notebook(c *gin.Context) {
	session, ok := s.sessionReady(c)
	if !ok {
		return
	}
	if topic := c.Query("topic"); topic != "" {
		ref, err := s.manager.CrossExamine(session.ID, topic)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Notebook unavailable"})
			return
		}
		c.JSON(http.StatusOK, ref)
		return
	}
	entries, err := s.manager.Notebook(session.ID, c.Query("suspect"), c.Query("versus"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Notebook unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// endGame discards a session along with its recorded statements.
func (s *Server) endGame(c *gin.Context) {
	if !s.manager.EndSession(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

func (s *Server) assistantReport(c *gin.Context) {
	session, ok := s.sessionReady(c)
	if !ok {
		return
	}
	report, err := s.assistant.AnalyzeCase(c.Request.Context(), session.CaseView())
	if err != nil {
		if s.debug != nil {
			s.debug.Printf("assistant report failed: %v", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis unavailable"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) assistantSuggestions(c *gin.Context) {
	session, ok := s.sessionReady(c)
	if !ok {
		return
	}
	n, _ := strconv.Atoi(c.DefaultQuery("n", "3"))
	suggestions := s.assistant.SuggestNextSteps(c.Request.Context(), session.CaseView(), n)
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) assistantSuspect(c *gin.Context) {
	session, ok := s.sessionReady(c)
	if !ok {
		return
	}
	view := session.CaseView()
	name := c.Param("name")
	// Cross-referenced testimony from the record: what the others have
	// said that touches this suspect.
	if ref, err := s.manager.CrossExamine(session.ID, name); err == nil && ref != nil {
		for speaker, statements := range ref.BySpeaker {
			if strings.EqualFold(speaker, name) {
				continue
			}
			for _, st := range statements {
				view.Testimony = append(view.Testimony, fmt.Sprintf("%s: %s", speaker, st.Content))
			}
		}
	}
	profile, err := s.assistant.AnalyzeSuspect(c.Request.Context(), view, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) sessionReady(c *gin.Context) (*game.Session, bool) {
	session, ok := s.manager.Session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return nil, false
	}
	if !session.Ready() {
		c.JSON(http.StatusAccepted, gin.H{"status": "preparing"})
		return nil, false
	}
	return session, true
}
