package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gdg-garage/community-events/internal/auth"
	"github.com/gdg-garage/community-events/internal/config"
	"github.com/gdg-garage/community-events/internal/events"
	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/models"
	"github.com/gdg-garage/community-events/internal/registration"
	"github.com/gdg-garage/community-events/internal/revalidate"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type server struct {
	*env
	router *chi.Mux
	auth   *auth.AuthHandler
	rec    *revalidate.Recorder
}

func newServer(t *testing.T) *server {
	t.Helper()
	e := newEnv(t)
	log := zaptest.NewLogger(t)
	cfg := &config.Config{JWTSecret: "test-secret", EnableCORS: true, CORSOrigin: "http://frontend.test"}

	rec := &revalidate.Recorder{}
	evSvc := events.NewService(e.store, rec, log)
	regSvc := registration.NewService(e.store, rec, log)
	authHandler := auth.NewAuthHandler(cfg, e.db, log)

	r := chi.NewRouter()
	RegisterRoutes(r, cfg, log, Handlers{
		Auth:         authHandler,
		Events:       NewEventHandler(evSvc, nil, log),
		Admin:        NewAdminHandler(evSvc, log),
		Registration: NewRegistrationHandler(regSvc, log),
		APIKeys:      NewAPIKeyHandler(e.db, log),
		Profile:      NewProfileHandler(e.db, log),
	})
	return &server{env: e, router: r, auth: authHandler, rec: rec}
}

func (s *server) do(t *testing.T, method, path, body string, who *identity.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if who != nil {
		token, err := s.auth.GenerateToken(who.UserID)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rr := s.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestRegistrationOverHTTP(t *testing.T) {
	s := newServer(t)
	alice := s.user(t, "alice", models.RoleUser)
	ev := s.event(t, models.EventPublished, 5)
	path := "/events/" + ev.ID + "/registration"

	rr := s.do(t, "POST", path, "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rr).Code)

	rr = s.do(t, "POST", path, "", &alice)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, s.rec.Paths(), "/events/"+ev.ID)

	rr = s.do(t, "POST", path, "", &alice)
	require.Equal(t, http.StatusConflict, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, "ALREADY_REGISTERED", body.Code)
	assert.Equal(t, http.StatusConflict, body.Status)

	rr = s.do(t, "GET", "/events/"+ev.ID, "", &alice)
	require.Equal(t, http.StatusOK, rr.Code)
	var detail struct {
		Event struct {
			ID        string `json:"id"`
			Confirmed int64  `json:"confirmed"`
		} `json:"event"`
		Registration *struct {
			Status       string `json:"status"`
			CheckInToken string `json:"check_in_token"`
		} `json:"registration"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &detail))
	assert.Equal(t, int64(1), detail.Event.Confirmed)
	require.NotNil(t, detail.Registration)
	assert.Equal(t, "CONFIRMED", detail.Registration.Status)
	assert.NotEmpty(t, detail.Registration.CheckInToken)

	rr = s.do(t, "DELETE", path, "", &alice)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestPublicListOverHTTP(t *testing.T) {
	s := newServer(t)
	ev := s.event(t, models.EventPublished, 5)
	s.event(t, models.EventDraft, 5)

	rr := s.do(t, "GET", "/events?tab=upcoming", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, ev.ID, list[0].ID)

	rr = s.do(t, "GET", "/events?tab=later", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rr).Code)
}

func TestAdminOverHTTP(t *testing.T) {
	s := newServer(t)
	admin := s.user(t, "admin", models.RoleAdmin)
	member := s.user(t, "member", models.RoleUser)
	ev := s.event(t, models.EventPublished, 5)

	rr := s.do(t, "GET", "/admin/events", "", &member)
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rr).Code)

	rr = s.do(t, "POST", "/admin/events/"+ev.ID+"/status", `{"status":"DRAFT"}`, &admin)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(t, "POST", "/admin/events/"+ev.ID+"/status", `{"status":"ENDED"}`, &member)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	got, err := s.store.FindEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventPublished, got.Status)

	rr = s.do(t, "POST", "/admin/events/"+ev.ID+"/status", `{"status":"ENDED"}`, &admin)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	got, err = s.store.FindEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventEnded, got.Status)

	rr = s.do(t, "POST", "/admin/events/"+ev.ID+"/checkin", `{"token":"nope"}`, &admin)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, rr).Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest("OPTIONS", "/events", nil)
	req.Header.Set("Origin", "http://frontend.test")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://frontend.test", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr = httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
