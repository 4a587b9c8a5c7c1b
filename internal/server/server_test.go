package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murdermystery/internal/assistant"
	"murdermystery/internal/game"
	"murdermystery/internal/images"
	"murdermystery/internal/llm"
	"murdermystery/internal/memory"
	"murdermystery/internal/mystery"
	"murdermystery/internal/tts"
)

type fakeLLM struct{}

func (fakeLLM) CompleteText(context.Context, llm.TextCompletionRequest) (string, error) {
	return "A measured answer.", nil
}

type fakeSchemaLLM struct{}

func (fakeSchemaLLM) CompleteJSONSchema(_ context.Context, req llm.JSONSchemaCompletionRequest) (string, error) {
	if req.SchemaName == "next_step" {
		return `{"action": "search", "target": "the study", "reasoning": "Clues remain there.", "priority": 1}`, nil
	}
	if req.SchemaName == "suspect_profile" {
		return `{"name": "", "suspicion_level": 30, "key_inconsistencies": [], "alibi_strength": "moderate", "motive_strength": "weak", "recommended_questions": ["Where were you?"]}`, nil
	}
	return `{
		"case_summary": "Early days.",
		"progress_percent": 20,
		"evidence_analysis": [],
		"suspect_profiles": [],
		"primary_suspect": "",
		"confidence_level": 10,
		"recommended_actions": ["Search the study"],
		"missing_evidence": ["The weapon"]
	}`, nil
}

type fakeGenerator struct{}

func (fakeGenerator) GeneratePremise(context.Context, string, string) (*mystery.Premise, error) {
	return &mystery.Premise{Setting: "Blackwood Manor", VictimName: "Lord Edmund Blackwood", VictimBackground: "A collector of enemies."}, nil
}

func (fakeGenerator) Generate(context.Context, *mystery.Premise, string, string) (*mystery.Mystery, error) {
	return &mystery.Mystery{
		Setting:  "Blackwood Manor",
		Victim:   mystery.Victim{Name: "Lord Edmund Blackwood", Background: "A collector of enemies."},
		Murderer: "Dr. Helena Voss",
		Suspects: []mystery.Suspect{
			{Name: "Dr. Helena Voss", Role: "family physician", Alibi: "I was in the guest room reading.", IsGuilty: true},
			{Name: "James Whitmore", Role: "butler", Alibi: "I was in the kitchen polishing silver."},
			{Name: "Lady Margaret Blackwood", Role: "estranged wife", Alibi: "I was on the terrace taking air."},
			{Name: "Thomas Reed", Role: "business partner", Alibi: "I was in the library with the accounts."},
		},
		Clues: []mystery.Clue{{ID: "c1", Description: "a torn note", Location: "the study", Significance: "high"}},
	}, nil
}

type fakeTTS struct{}

func (fakeTTS) Available() bool { return false }

func (fakeTTS) Speak(context.Context, string, string) (*tts.Result, error) { return nil, nil }

type fakeImages struct {
	paths map[string]string
}

func (f fakeImages) Available() bool { return len(f.paths) > 0 }
func (f fakeImages) GenerateAllMysteryImages(context.Context, *mystery.Mystery) map[string]string {
	return f.paths
}

func newTestServer(t *testing.T) *gin.Engine {
	return newTestServerWithImages(t, fakeImages{})
}

func newTestServerWithImages(t *testing.T, imgs fakeImages) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem, err := memory.NewStore(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })

	manager := game.NewManager(game.Config{}, fakeLLM{}, fakeGenerator{}, nil, mem, fakeTTS{}, imgs, nil)
	asst := assistant.New(fakeSchemaLLM{}, "", nil)
	return New(manager, asst, t.TempDir(), nil).SetupRouter()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func startReadyGame(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/game/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)

	// Wait for background generation to finish.
	require.Eventually(t, func() bool {
		b := doJSON(t, router, http.MethodGet, "/game/"+resp.SessionID+"/board", nil)
		return b.Code == http.StatusOK
	}, time.Second, 5*time.Millisecond)
	return resp.SessionID
}

func TestHealth(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartGameReturnsPremise(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodPost, "/game/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SessionID string           `json:"session_id"`
		Premise   *mystery.Premise `json:"premise"`
		Narration string           `json:"narration"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Lord Edmund Blackwood", resp.Premise.VictimName)
	assert.Contains(t, resp.Narration, "Blackwood Manor")
}

func TestActionRoundTrip(t *testing.T) {
	router := newTestServer(t)
	id := startReadyGame(t, router)

	w := doJSON(t, router, http.MethodPost, "/game/"+id+"/action",
		map[string]string{"action": "search", "target": "the study"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result game.TurnResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a torn note"}, resp.Result.CluesFound)
}

func TestActionUnknownSession(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodPost, "/game/nope/action",
		map[string]string{"action": "search", "target": "the study"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActionBadBody(t *testing.T) {
	router := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/game/x/action", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaseBoardFragment(t *testing.T) {
	router := newTestServer(t)
	id := startReadyGame(t, router)

	w := doJSON(t, router, http.MethodGet, "/game/"+id+"/board", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "case-board-data")

	w = doJSON(t, router, http.MethodGet, "/game/"+id+"/board?format=text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CASE BOARD")
}

func TestTranscript(t *testing.T) {
	router := newTestServer(t)
	id := startReadyGame(t, router)

	w := doJSON(t, router, http.MethodGet, "/game/"+id+"/transcript", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Game Master")
}

func TestAssistantEndpoints(t *testing.T) {
	router := newTestServer(t)
	id := startReadyGame(t, router)

	w := doJSON(t, router, http.MethodGet, "/game/"+id+"/assistant/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Search the study")

	w = doJSON(t, router, http.MethodGet, "/game/"+id+"/assistant/suggestions?n=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Suggestions []assistant.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Suggestions, 2)

	w = doJSON(t, router, http.MethodGet, "/game/"+id+"/assistant/suspect/whitmore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "James Whitmore")

	w = doJSON(t, router, http.MethodGet, "/game/"+id+"/assistant/suspect/nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaptionScript(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/captions/sync.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "caption-word")
}

func TestServeAudioRejectsNonMP3(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/audio/secrets.txt", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompletionsWithoutAuditLog(t *testing.T) {
	router := newTestServer(t)
	id := startReadyGame(t, router)

	w := doJSON(t, router, http.MethodGet, "/game/"+id+"/completions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/game/nope/completions", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMediaListsGeneratedArtwork(t *testing.T) {
	router := newTestServerWithImages(t, fakeImages{paths: map[string]string{
		images.TitleCardKey:              "/art/title.png",
		"Dr. Helena Voss":                "/art/voss.png",
		images.ScenePrefix + "the study": "/art/study.png",
	}})
	id := startReadyGame(t, router)

	w := doJSON(t, router, http.MethodGet, "/game/"+id+"/media", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var media struct {
		TitleCard string            `json:"title_card"`
		Portraits map[string]string `json:"portraits"`
		Scenes    map[string]string `json:"scenes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &media))
	assert.Equal(t, "/art/title.png", media.TitleCard)
	assert.Equal(t, "/art/voss.png", media.Portraits["Dr. Helena Voss"])
	assert.Equal(t, "/art/study.png", media.Scenes["the study"])

	w = doJSON(t, router, http.MethodGet, "/game/nope/media", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotebookReadsInvestigationRecord(t *testing.T) {
	router := newTestServer(t)
	id := startReadyGame(t, router)

	// Searching records the discovered clue in the notebook.
	w := doJSON(t, router, http.MethodPost, "/game/"+id+"/action",
		map[string]string{"action": "search", "target": "the study"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/game/"+id+"/notebook", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notebook struct {
		Entries []memory.Statement `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notebook))
	require.Len(t, notebook.Entries, 1)
	assert.Equal(t, "a torn note", notebook.Entries[0].Content)

	w = doJSON(t, router, http.MethodGet, "/game/"+id+"/notebook?topic=note", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/game/nope/notebook", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndGameRemovesSession(t *testing.T) {
	router := newTestServer(t)
	id := startReadyGame(t, router)

	w := doJSON(t, router, http.MethodDelete, "/game/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/game/"+id+"/transcript", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/game/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
