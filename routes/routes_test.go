package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"movewell-assistant/internal/config"
	"movewell-assistant/models"
	"movewell-assistant/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fixedCompleter is a provider stub that always answers with reply.
type fixedCompleter struct{ reply string }

func (f fixedCompleter) Complete(context.Context, []models.ChatMessage) (string, error) {
	return f.reply, nil
}

type echoPrompts struct{}

func (echoPrompts) Build(_ context.Context, query string) string { return query }

var testProfile = services.ClinicProfile{
	ClinicName:    "MoveWell",
	AssistantName: "Fysio",
	BookingURL:    "https://example.com/book",
}

func newTestFlow(reply string, intent services.Intent) *services.ChatFlow {
	return services.NewChatFlow(services.ChatFlowDeps{
		Store:      services.NewMemorySessionStore(time.Hour),
		Prompts:    echoPrompts{},
		Classifier: services.NewIntentClassifier(fixedCompleter{reply: string(intent)}, time.Second, nil),
		Responder:  services.NewResponder(fixedCompleter{reply: reply}, 6, time.Second, nil),
		Activity:   services.NewActivityLogger(time.Second, nil),
		Profile:    testProfile,
		OfferAfter: 6,
	})
}

func newTestRouter(t *testing.T, flow *services.ChatFlow) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		CORSOrigins:     []string{"http://localhost:3000"},
		MaxBodySize:     1 << 20,
		RateLimitReqs:   60,
		RateLimitWindow: 60,
	}
	router, err := NewRouter(cfg, nil, nil, flow, flow)
	require.NoError(t, err)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEndpoint(t *testing.T) {
	router := newTestRouter(t, newTestFlow("Hi!", services.IntentGeneral))

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{"message", `{"message": "hello"}`, http.StatusOK, `{"reply":"Hi!"}`},
		{"empty object", `{}`, http.StatusBadRequest, `{"error":"No message provided"}`},
		{"empty message", `{"message": ""}`, http.StatusBadRequest, `{"error":"No message provided"}`},
		{"invalid json", `{"message":`, http.StatusBadRequest, `{"error":"No message provided"}`},
		{"wrong type", `{"message": 42}`, http.StatusBadRequest, `{"error":"No message provided"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/endpoint", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func startSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var s models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	require.Len(t, s.ID, 8)
	return s.ID
}

func TestSessionFlow_OverHTTP(t *testing.T) {
	router := newTestRouter(t, newTestFlow("We treat knees.", services.IntentGeneral))
	id := startSession(t, router)

	w := doJSON(router, http.MethodPost, "/sessions/"+id+"/messages", `{"message":"hi"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "chat_disabled")

	w = doJSON(router, http.MethodPost, "/sessions/"+id+"/contact",
		`{"name":"Sam Lee","email":"sam@example.com","phone":"+6512345678","country":"SG"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), services.ContactSavedReply)

	w = doJSON(router, http.MethodPost, "/sessions/"+id+"/messages", `{"message":"Do you treat knees?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "We treat knees.", resp.Reply)
	assert.Equal(t, "general", resp.Intent)
	assert.Equal(t, 1, resp.MessageNumber)

	w = doJSON(router, http.MethodGet, "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	var s models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, 1, s.UserMessageCount)
	assert.True(t, s.ChatEnabled)
}

func TestSessionFlow_Handoff(t *testing.T) {
	router := newTestRouter(t, newTestFlow("unused", services.IntentHandoff))
	id := startSession(t, router)

	w := doJSON(router, http.MethodPost, "/sessions/"+id+"/contact",
		`{"email":"sam@example.com","phone":"6512345678"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/sessions/"+id+"/messages", `{"message":"Can I speak to someone?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Handoff)
	assert.Equal(t, "Absolutely, there 👋 I can connect you with one of our consultants:", resp.Reply)
	require.NotNil(t, resp.CallToAction)
	assert.Equal(t, "https://example.com/book", resp.CallToAction.URL)
}

func TestSubmitContact_Validation(t *testing.T) {
	router := newTestRouter(t, newTestFlow("x", services.IntentGeneral))
	id := startSession(t, router)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad email", `{"email":"not-an-email","phone":"+6512345678"}`, "email"},
		{"short phone", `{"email":"a@b.co","phone":"12345"}`, "phone"},
		{"letters in phone", `{"email":"a@b.co","phone":"+65abc45678"}`, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/sessions/"+id+"/contact", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

			var body struct {
				ErrorCode string            `json:"error_code"`
				Details   map[string]string `json:"details"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "validation_failed", body.ErrorCode)
			assert.Equal(t, tt.field, body.Details["field"])
		})
	}
}

func TestIntake_OverHTTP(t *testing.T) {
	router := newTestRouter(t, newTestFlow("x", services.IntentGeneral))
	id := startSession(t, router)

	intake := `{"region":"Knee","duration":"1–4 weeks","onset":"Gradually","symptoms":["Stiffness"],"pain_level":3,"prior_injury":"No"}`

	w := doJSON(router, http.MethodPost, "/sessions/"+id+"/intake", intake)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPost, "/sessions/"+id+"/intake/start", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/sessions/"+id+"/intake", `{"region":"Moon","duration":"1–4 weeks","onset":"Gradually","prior_injury":"No"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(router, http.MethodPost, "/sessions/"+id+"/intake", `{"region":"Knee","duration":"1-4w","onset":"gradual","prior_injury":"No"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(router, http.MethodPost, "/sessions/"+id+"/intake", `{"region":"Knee","duration":"> 3 months","onset":"Unknown","pain_level":11,"prior_injury":"No"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(router, http.MethodPost, "/sessions/"+id+"/intake", intake)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/sessions/"+id+"/messages", `{"message":"hello"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownSession(t *testing.T) {
	router := newTestRouter(t, newTestFlow("x", services.IntentGeneral))

	w := doJSON(router, http.MethodGet, "/sessions/deadbeef", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, newTestFlow("x", services.IntentGeneral))

	w := doJSON(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
