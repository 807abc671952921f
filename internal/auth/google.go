package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "bill-assistant/internal/shared/auth"
	"bill-assistant/internal/shared/server/respond"
	"bill-assistant/internal/shared/telemetry"
	"bill-assistant/internal/users"
)

const (
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateTTL           = 5 * time.Minute
)

// UserRecorder stores the profile of a user who just signed in.
type UserRecorder interface {
	UpsertFromAuth(ctx context.Context, user users.User) (users.User, error)
}

// GoogleService signs users in with Google and hands the UI a bearer token.
type GoogleService struct {
	oauth       *oauth2.Config
	uiRedirect  string
	userInfoURL string
	states      *stateStore
	recorder    UserRecorder
}

// NewGoogleService builds a GoogleService. recorder may be nil.
func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, recorder UserRecorder) *GoogleService {
	return &GoogleService{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		uiRedirect:  uiRedirect,
		userInfoURL: defaultUserInfoURL,
		states:      newStateStore(time.Now),
		recorder:    recorder,
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.oauth.ClientID != "" && s.oauth.ClientSecret != "" && s.oauth.RedirectURL != ""
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}
	state := s.states.issue(stateTTL)
	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

func (s *GoogleService) callback(c *gin.Context) {
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	if !s.states.consume(state) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		telemetry.Warn("auth.exchange_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}
	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		telemetry.Warn("auth.profile_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}

	bearer, err := s.signIn(ctx, profile)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	target, err := appendToken(s.uiRedirect, bearer)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// signIn records the user and issues the bearer token for the UI.
// A failed profile write does not block sign-in.
func (s *GoogleService) signIn(ctx context.Context, p googleProfile) (string, error) {
	user := users.User{
		ID:         "google:" + p.Sub,
		Email:      p.Email,
		Name:       p.Name,
		PictureURL: p.Picture,
	}
	if s.recorder != nil {
		if _, err := s.recorder.UpsertFromAuth(ctx, user); err != nil {
			telemetry.Warn("auth.user_upsert_failed", map[string]any{"user_id": user.ID, "error": err.Error()})
		}
	}
	telemetry.Info("auth.signed_in", map[string]any{"user_id": user.ID})
	return sharedauth.SignJWT(sharedauth.Claims{
		Sub:     user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.PictureURL,
	})
}

type googleProfile struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *GoogleService) fetchProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return googleProfile{}, err
	}
	resp, err := s.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return googleProfile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return googleProfile{}, err
	}
	// v2 userinfo answers with "id".
	if p.Sub == "" {
		p.Sub = p.ID
	}
	if strings.TrimSpace(p.Sub) == "" {
		return googleProfile{}, errors.New("profile has no subject")
	}
	return p, nil
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func newState() string {
	return uuid.NewString()
}
