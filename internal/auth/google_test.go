package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	sharedauth "bill-assistant/internal/shared/auth"
	"bill-assistant/internal/users"
)

type recorderFunc func(users.User) error

func (f recorderFunc) UpsertFromAuth(_ context.Context, u users.User) (users.User, error) {
	return u, f(u)
}

func newAuthRouter(svc *GoogleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, profileStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(profileStatus)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "1077", "email": "asha@example.com", "name": "Asha", "picture": "https://img/asha.png",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func configuredService(srv *httptest.Server, recorder UserRecorder) *GoogleService {
	svc := NewGoogleService("client", "secret", "http://localhost/callback", "http://localhost:5173/auth", recorder)
	svc.oauth.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	svc.userInfoURL = srv.URL + "/userinfo"
	return svc
}

func TestStartRequiresConfiguration(t *testing.T) {
	r := newAuthRouter(NewGoogleService("", "", "", "", nil))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestStartRedirectsWithState(t *testing.T) {
	svc := NewGoogleService("client", "secret", "http://localhost/callback", "http://localhost:5173", nil)
	r := newAuthRouter(svc)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d", resp.Code)
	}
	loc, err := url.Parse(resp.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("missing state in %s", loc)
	}
	if !svc.states.consume(state) {
		t.Fatalf("state not stored")
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	r := newAuthRouter(NewGoogleService("client", "secret", "http://localhost/callback", "http://localhost:5173", nil))

	for _, target := range []string{
		"/api/v1/auth/google/callback",
		"/api/v1/auth/google/callback?state=nope&code=abc",
	} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", target, resp.Code)
		}
	}
}

func TestCallbackRecordsUserAndRedirectsWithToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	var recorded []users.User
	svc := configuredService(fakeGoogle(t, http.StatusOK), recorderFunc(func(u users.User) error {
		recorded = append(recorded, u)
		return nil
	}))
	r := newAuthRouter(svc)
	state := svc.states.issue(time.Minute)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=c-1", nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	loc, _ := url.Parse(resp.Header().Get("Location"))
	if loc.Host != "localhost:5173" || loc.Path != "/auth" {
		t.Fatalf("location = %s", loc)
	}
	claims, err := sharedauth.VerifyJWT(loc.Query().Get("token"))
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if claims.Sub != "google:1077" || claims.Email != "asha@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
	if len(recorded) != 1 || recorded[0].ID != "google:1077" || recorded[0].PictureURL != "https://img/asha.png" {
		t.Fatalf("recorded = %+v", recorded)
	}
}

func TestCallbackSignsInWhenRecorderFails(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc := configuredService(fakeGoogle(t, http.StatusOK), recorderFunc(func(users.User) error {
		return errors.New("db down")
	}))
	r := newAuthRouter(svc)
	state := svc.states.issue(time.Minute)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=c-1", nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestCallbackProfileFailure(t *testing.T) {
	svc := configuredService(fakeGoogle(t, http.StatusInternalServerError), nil)
	r := newAuthRouter(svc)
	state := svc.states.issue(time.Minute)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=c-1", nil))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestStateStoreExpiresAndConsumesOnce(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := newStateStore(func() time.Time { return now })
	live := store.issue(time.Minute)
	stale := store.issue(time.Second)

	now = now.Add(30 * time.Second)
	if !store.consume(live) {
		t.Fatalf("live state rejected")
	}
	if store.consume(live) {
		t.Fatalf("state consumed twice")
	}
	if store.consume(stale) {
		t.Fatalf("expired state accepted")
	}
}

func TestStateStorePrunesOnIssue(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := newStateStore(func() time.Time { return now })
	store.issue(time.Second)
	store.issue(time.Second)

	now = now.Add(time.Minute)
	store.issue(time.Minute)
	if got := store.size(); got != 1 {
		t.Fatalf("size = %d, want 1", got)
	}
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("http://localhost:5173/auth?next=%2Fdocs", "abc")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	u, _ := url.Parse(got)
	if u.Query().Get("token") != "abc" || u.Query().Get("next") != "/docs" {
		t.Fatalf("url = %s", got)
	}
	if _, err := appendToken("", "abc"); err == nil {
		t.Fatalf("expected error for empty redirect")
	}
}
