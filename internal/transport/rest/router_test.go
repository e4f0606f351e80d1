package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exercisehub/internal/identity"
	"exercisehub/internal/model"
	"exercisehub/internal/repository"
	"exercisehub/internal/service"
	"exercisehub/internal/settings"
	"exercisehub/internal/transport/ws"
)

type testServer struct {
	handler http.Handler
	subs    *service.SubmissionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore(settings.NewValidator())
	require.NoError(t, store.Presentations().Upsert(context.Background(), &model.Presentation{
		ID:       "p1",
		Settings: model.Settings{{Key: "maxNumSubmissions", Value: 3.0, Kind: model.SettingNumber}},
	}))

	template := settings.NewTemplate(model.Settings{
		{Key: "maxNumSubmissions", Value: 0.0, Kind: model.SettingNumber},
		{Key: "confidence", Value: false, Kind: model.SettingBoolean},
	})
	syncSvc := service.NewSyncService(store.Exercises(), store.Presentations(), identity.NewAssigner(nil),
		template, service.SyncOptions{QuestionTags: []string{"asq-multi-choice"}})
	subs := service.NewSubmissionService(store.Submissions(), store.Exercises())
	hooks := service.NewExerciseService(syncSvc, subs)

	hub := ws.NewHub()
	t.Cleanup(hub.Close)
	hooks.SetEmitter(hub)
	t.Cleanup(subs.Wait)

	return &testServer{
		handler: NewRouter(&Container{Hooks: hooks, Submissions: subs, WSHub: hub}),
		subs:    subs,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

const exerciseHTML = `<asq-exercise uid="ex-1"><asq-multi-choice uid="q-1"></asq-multi-choice></asq-exercise>`

func (s *testServer) parse(t *testing.T) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"html": exerciseHTML})
	require.NoError(t, err)
	rec := s.do(t, http.MethodPost, "/v1/presentations/p1/parse", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodOptions, "/v1/sessions/s1/presenter", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSFromConfig(t *testing.T) {
	h := NewRouter(&Container{CORS: CORSConfig{
		AllowedOrigins: "https://slides.example",
		AllowedMethods: "GET",
		AllowedHeaders: "Content-Type, X-Session",
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/sessions/s1/presenter", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://slides.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, X-Session", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestParse(t *testing.T) {
	s := newTestServer(t)

	body, err := json.Marshal(map[string]string{"html": exerciseHTML})
	require.NoError(t, err)
	rec := s.do(t, http.MethodPost, "/v1/presentations/p1/parse", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var res service.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, res.HTML, `max-num-submissions="3"`)
	require.Len(t, res.Exercises, 1)
	assert.Equal(t, "ex-1", res.Exercises[0].ExerciseID)
	assert.True(t, res.Exercises[0].Created)

	t.Run("unknown presentation", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/presentations/nope/parse", string(body))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/presentations/p1/parse", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"invalid request body"}`, rec.Body.String())
	})
}

func TestUpdateSettings(t *testing.T) {
	s := newTestServer(t)
	s.parse(t)

	body, err := json.Marshal(map[string]any{
		"html":     exerciseHTML,
		"settings": map[string]any{"confidence": true},
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodPut, "/v1/exercises/ex-1/settings", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res service.SettingsUpdateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, settings.StatusSuccess, res.Status)
	assert.Contains(t, res.HTML, "confidence")
	got, ok := res.Settings.Get("confidence")
	require.True(t, ok)
	assert.Equal(t, true, got.Value)

	t.Run("unknown exercise", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/v1/exercises/missing/settings", string(body))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("settings required", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/v1/exercises/ex-1/settings", `{"html":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSubmissionsAndProjections(t *testing.T) {
	s := newTestServer(t)
	s.parse(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"accepted", "/v1/exercises/ex-1/submissions", `{"sessionId":"s1","answereeId":"alice","answers":["a"],"confidence":4}`, http.StatusCreated},
		{"second attempt", "/v1/exercises/ex-1/submissions", `{"sessionId":"s1","answereeId":"alice","answers":["b"],"confidence":2}`, http.StatusCreated},
		{"missing answeree", "/v1/exercises/ex-1/submissions", `{"sessionId":"s1","answers":[]}`, http.StatusBadRequest},
		{"unknown exercise", "/v1/exercises/nope/submissions", `{"sessionId":"s1","answereeId":"bob","answers":[]}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(t, http.MethodGet, "/v1/sessions/s1/exercises/ex-1/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":"ex-1","submissions":["alice"]}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/sessions/s1/presenter", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exercises":[{"uid":"ex-1","submissions":["alice"]}]}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/sessions/s1/viewers/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exercises":[{"uid":"ex-1","submissionNum":2,"confidence":2}]}`, rec.Body.String())
}
