package http_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/config"
	httpDelivery "github.com/kairos-service/internal/delivery/http"
	"github.com/kairos-service/internal/delivery/http/handler"
	"github.com/kairos-service/internal/delivery/http/middleware"
	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/infrastructure/kairos"
	"github.com/kairos-service/internal/projection"
	"github.com/kairos-service/internal/repository/cache"
	"github.com/kairos-service/internal/usecase"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fakeKairos - минимальный Kairos API: пользователь u1 с путешествием j1 и пользователь u2 с путешествием j2.
// overrides заменяют обработчики по шаблону маршрута.
func fakeKairos(t *testing.T, overrides map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	marker := func(id, name string, lng, lat float64, kind, at string) map[string]interface{} {
		m := map[string]interface{}{
			"_id":         id,
			"journey_id":  "j1",
			"owner_id":    "u1",
			"name":        name,
			"coordinates": map[string]interface{}{"type": "Point", "coordinates": []float64{lng, lat}},
			"marker_type": kind,
		}
		if kind == "past" {
			m["timestamp"] = at
		} else {
			m["estimated_time"] = at
		}
		return m
	}

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		if override, ok := overrides[pattern]; ok {
			h = override
			delete(overrides, pattern)
		}
		mux.HandleFunc(pattern, h)
	}

	var mu sync.Mutex
	me := map[string]interface{}{"_id": "u1", "name": "Ana", "email": "ana@example.com"}

	handle("POST /api/v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("password") != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "access-1", "refresh_token": "refresh-1"})
	})
	handle("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		mu.Lock()
		defer mu.Unlock()
		writeJSON(w, http.StatusOK, me)
	})
	handle("PUT /api/v1/users/u1", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])
		mu.Lock()
		defer mu.Unlock()
		for _, field := range []string{"name", "country", "phonenumber", "instagram"} {
			me[field] = body[field]
		}
		writeJSON(w, http.StatusOK, me)
	})
	handle("DELETE /api/v1/users/u1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handle("GET /api/v1/users/u2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"_id": "u2", "name": "Bo", "country": "CL", "is_verified": true})
	})
	handle("GET /api/v1/users/u2/journeys/active", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"_id": "j2", "user_id": "u2", "name": "Andes", "active": true})
	})
	handle("GET /api/v1/journeys/j2/markers", func(w http.ResponseWriter, r *http.Request) {
		m1 := marker("n1", "Lima", -77.04, -12.05, "past", "2024-03-01T00:00:00Z")
		m2 := marker("n2", "Santiago", -70.65, -33.45, "past", "2024-03-05T00:00:00Z")
		for _, m := range []map[string]interface{}{m1, m2} {
			m["journey_id"] = "j2"
			m["owner_id"] = "u2"
		}
		writeJSON(w, http.StatusOK, []interface{}{m2, m1})
	})
	handle("POST /api/v1/users/reset-password", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") != "ana@example.com" {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "User not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "sent"})
	})
	handle("POST /api/v1/users/update-password", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "reset-token" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid token"})
			return
		}
		assert.Equal(t, "newsecret123", r.URL.Query().Get("new_password"))
		writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
	})
	handle("GET /api/v1/users/verify-email", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "verify-token" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid token"})
			return
		}
		mu.Lock()
		me["is_verified"] = true
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "verified"})
	})
	handle("GET /api/v1/users/u1/journeys/active", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"_id": "j1", "user_id": "u1", "name": "Iberia", "active": true})
	})
	handle("GET /api/v1/journeys/j1/markers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []interface{}{
			marker("m2", "Madrid", -3.70, 40.41, "plan", "2030-01-02T00:00:00Z"),
			marker("m1", "Lisbon", -9.14, 38.72, "past", "2024-01-01T00:00:00Z"),
		})
	})
	handle("GET /api/v1/journeys/j1/journeys/nearby", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []string{})
	})
	handle("POST /api/v1/journeys/j1/markers", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "plan", body["marker_type"])
		assert.Nil(t, body["timestamp"])
		writeJSON(w, http.StatusCreated, marker("m3", "Paris", 2.35, 48.85, "plan", "2030-05-01T00:00:00Z"))
	})

	for pattern, h := range overrides {
		mux.HandleFunc(pattern, h)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T) *httpDelivery.Server {
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, overrides map[string]http.HandlerFunc) *httpDelivery.Server {
	t.Helper()

	remote := fakeKairos(t, overrides)
	logger := zap.NewNop()
	cfg := &config.Config{
		Server:  config.ServerConfig{Env: "test", AllowOrigins: "http://localhost:3000"},
		Kairos:  config.KairosConfig{BaseURL: remote.URL, RequestTimeout: 5 * time.Second},
		Breaker: config.BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 5},
		Session: config.SessionConfig{Store: "memory", TTL: time.Hour, CookieName: "kairos_session"},
	}

	client := kairos.NewClient(&cfg.Kairos, &cfg.Breaker, logger)
	registry := usecase.NewWorkspaceRegistry(
		client,
		cache.NewMemoryTokenStore(time.Hour),
		cache.NewMemoryCacheRepository(time.Minute),
		func(tokens domain.Tokens, onChange func(domain.Tokens)) usecase.KairosSession {
			return client.NewSession(tokens, onChange)
		},
		usecase.WorkspaceConfig{
			SessionTTL:  time.Hour,
			IdleTimeout: time.Minute,
			Map: usecase.MapOptions{
				Projection:      projection.Options{ArrowSpacingKm: 25},
				Viewport:        projection.DefaultViewportOptions,
				DefaultViewport: projection.Viewport{Center: domain.NewCoordinates(0, 30), Zoom: 2},
			},
		},
		logger,
	)

	return httpDelivery.NewServer(cfg, logger, registry,
		handler.NewAuthHandler(logger),
		handler.NewJourneyHandler(logger),
		handler.NewMapHandler(logger),
		handler.NewUserHandler(logger),
	)
}

type client struct {
	t         *testing.T
	server    *httpDelivery.Server
	sessionID string
}

func (c *client) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		req.Header.Set(middleware.SessionHeader, c.sessionID)
	}

	resp, err := c.server.App().Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if id := resp.Header.Get(middleware.SessionHeader); id != "" {
		c.sessionID = id
	}

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestServer_Health(t *testing.T) {
	c := &client{t: t, server: newTestServer(t)}
	status, _ := c.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_RequiresLogin(t *testing.T) {
	c := &client{t: t, server: newTestServer(t)}

	status, env := c.do(http.MethodGet, "/api/v1/journeys", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
	assert.NotEmpty(t, c.sessionID)

	status, env = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	status, env = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestServer_MapFlow(t *testing.T) {
	c := &client{t: t, server: newTestServer(t)}

	status, env := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ana@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, status)
	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "u1", user.ID)

	status, env = c.do(http.MethodGet, "/api/v1/map", nil)
	require.Equal(t, http.StatusOK, status)

	var view struct {
		ActiveJourney *struct {
			ID string `json:"id"`
		} `json:"active_journey"`
		Scene struct {
			Lines []struct {
				JourneyID string            `json:"journey_id"`
				Geometry  json.RawMessage   `json:"geometry"`
				Arrows    []json.RawMessage `json:"arrows"`
			} `json:"lines"`
			Pins []struct {
				MarkerID    string `json:"marker_id"`
				SegmentRole string `json:"segment_role"`
			} `json:"pins"`
		} `json:"scene"`
		Interaction struct {
			Mode   string `json:"mode"`
			Dialog *struct {
				Kind string `json:"kind"`
			} `json:"dialog"`
		} `json:"interaction"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.NotNil(t, view.ActiveJourney)
	assert.Equal(t, "j1", view.ActiveJourney.ID)
	require.Len(t, view.Scene.Lines, 1)
	assert.Contains(t, string(view.Scene.Lines[0].Geometry), "LineString")
	assert.NotEmpty(t, view.Scene.Lines[0].Arrows)
	require.Len(t, view.Scene.Pins, 2)
	assert.Equal(t, "m1", view.Scene.Pins[0].MarkerID)
	assert.Equal(t, "past", view.Scene.Pins[0].SegmentRole)
	assert.Equal(t, "transition", view.Scene.Pins[1].SegmentRole)

	status, env = c.do(http.MethodPost, "/api/v1/map/add-point", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "capturing_point", view.Interaction.Mode)

	status, env = c.do(http.MethodPost, "/api/v1/map/click", map[string]float64{"lng": 2.35, "lat": 48.85})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.NotNil(t, view.Interaction.Dialog)
	assert.Equal(t, "create_marker", view.Interaction.Dialog.Kind)

	status, env = c.do(http.MethodPost, "/api/v1/map/dialog/confirm-create", map[string]string{
		"name": "Paris", "kind": "plan", "time": "2030-05-01",
	})
	require.Equal(t, http.StatusCreated, status, string(env.Data))

	var created struct {
		Marker struct {
			ID      string `json:"id"`
			Pending bool   `json:"pending"`
		} `json:"marker"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "m3", created.Marker.ID)
	assert.False(t, created.Marker.Pending)

	status, env = c.do(http.MethodGet, "/api/v1/map/routes", nil)
	require.Equal(t, http.StatusOK, status)
	var routes []domain.ProcessedRoute
	require.NoError(t, json.Unmarshal(env.Data, &routes))
	require.Len(t, routes, 1)
	assert.Len(t, routes[0].Markers, 3)
}

func (c *client) login() {
	c.t.Helper()
	status, env := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ana@example.com", "password": "secret123"})
	require.Equal(c.t, http.StatusOK, status, string(env.Data))
}

func TestServer_RefreshFailureDuringConfirmCreate(t *testing.T) {
	unauthorized := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	}
	server := newTestServerWith(t, map[string]http.HandlerFunc{
		"POST /api/v1/journeys/j1/markers": unauthorized,
		"POST /api/v1/auth/refresh":        unauthorized,
	})
	c := &client{t: t, server: server}
	c.login()

	status, _ := c.do(http.MethodGet, "/api/v1/map", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodPost, "/api/v1/map/add-point", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodPost, "/api/v1/map/click", map[string]float64{"lng": 2.35, "lat": 48.85})
	require.Equal(t, http.StatusOK, status)

	body, err := json.Marshal(map[string]string{"name": "Paris", "kind": "plan", "time": "2030-05-01"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/map/dialog/confirm-create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SessionHeader, c.sessionID)

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := server.App().Test(req, -1)
		done <- result{resp, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("confirm-create did not return after refresh failure")
	}
	require.NoError(t, res.err)
	defer res.resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(res.resp.Body).Decode(&env))
	assert.Equal(t, http.StatusUnauthorized, res.resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTH_EXPIRED", env.Error.Code)

	status, env = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestServer_PasswordLinks(t *testing.T) {
	c := &client{t: t, server: newTestServer(t)}

	status, _ := c.do(http.MethodPost, "/api/v1/auth/forgot-password", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusAccepted, status)

	status, _ = c.do(http.MethodPost, "/api/v1/auth/forgot-password", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusAccepted, status)

	status, env := c.do(http.MethodPost, "/api/v1/auth/reset-password", map[string]string{
		"token": "reset-token", "password": "newsecret123", "confirm_password": "different1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	status, env = c.do(http.MethodPost, "/api/v1/auth/reset-password", map[string]string{
		"token": "stale", "password": "newsecret123", "confirm_password": "newsecret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)

	status, _ = c.do(http.MethodPost, "/api/v1/auth/reset-password", map[string]string{
		"token": "reset-token", "password": "newsecret123", "confirm_password": "newsecret123",
	})
	assert.Equal(t, http.StatusOK, status)

	status, env = c.do(http.MethodPost, "/api/v1/auth/verify-email", map[string]string{"token": "stale"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)

	status, env = c.do(http.MethodPost, "/api/v1/auth/verify-email", map[string]string{"token": "verify-token"})
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(env.Data), `"user"`)
}

func TestServer_AccountSettings(t *testing.T) {
	c := &client{t: t, server: newTestServer(t)}

	status, env := c.do(http.MethodPut, "/api/v1/users/me", map[string]string{"name": "Ana Lima"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	c.login()

	status, env = c.do(http.MethodPut, "/api/v1/users/me", map[string]string{"name": "A"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	status, env = c.do(http.MethodPut, "/api/v1/users/me", map[string]string{
		"name": "Ana Lima", "country": "PT", "phone": "+351 900 000 000", "instagram": "ana.l",
	})
	require.Equal(t, http.StatusOK, status, string(env.Data))

	var user struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Phone   string `json:"phone"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "Ana Lima", user.Name)
	assert.Equal(t, "PT", user.Country)
	assert.Equal(t, "+351 900 000 000", user.Phone)

	status, env = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "Ana Lima", user.Name)

	status, env = c.do(http.MethodPost, "/api/v1/auth/verify-email", map[string]string{"token": "verify-token"})
	require.Equal(t, http.StatusOK, status)
	var verified struct {
		User struct {
			IsVerified bool `json:"is_verified"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.True(t, verified.User.IsVerified)

	status, _ = c.do(http.MethodDelete, "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestServer_UserPage(t *testing.T) {
	c := &client{t: t, server: newTestServer(t)}
	c.login()

	status, env := c.do(http.MethodGet, "/api/v1/users/u2", nil)
	require.Equal(t, http.StatusOK, status, string(env.Data))

	var page struct {
		Profile struct {
			UserID  string `json:"user_id"`
			Name    string `json:"name"`
			Country string `json:"country"`
		} `json:"profile"`
		ActiveJourney *struct {
			ID string `json:"id"`
		} `json:"active_journey"`
		Routes []domain.ProcessedRoute `json:"routes"`
		Scene  struct {
			Lines []json.RawMessage `json:"lines"`
			Pins  []struct {
				MarkerID string `json:"marker_id"`
				Owned    bool   `json:"owned"`
			} `json:"pins"`
		} `json:"scene"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, "Bo", page.Profile.Name)
	assert.Equal(t, "CL", page.Profile.Country)
	require.NotNil(t, page.ActiveJourney)
	assert.Equal(t, "j2", page.ActiveJourney.ID)
	require.Len(t, page.Routes, 1)
	require.Len(t, page.Routes[0].Markers, 2)
	assert.Equal(t, "n1", page.Routes[0].Markers[0].ID)
	assert.Len(t, page.Scene.Lines, 1)
	require.Len(t, page.Scene.Pins, 2)
	assert.False(t, page.Scene.Pins[0].Owned)

	status, env = c.do(http.MethodGet, "/api/v1/users/u3", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
