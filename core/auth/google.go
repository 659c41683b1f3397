package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	googleUserinfo = "https://openidconnect.googleapis.com/v1/userinfo"
	googleScope    = "openid email profile"
)

// Identity is what the identity provider tells us about a user.
type Identity struct {
	Email       string
	DisplayName string
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	IDToken     string `json:"id_token"`
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleClient runs the OAuth authorization code flow against Google.
type GoogleClient struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL     string
	TokenURL    string
	UserinfoURL string
	HTTPClient  *http.Client
}

// NewGoogleClient creates a client for the production endpoints.
func NewGoogleClient(clientID, clientSecret, redirectURL string) *GoogleClient {
	return &GoogleClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		AuthURL:      googleAuthURL,
		TokenURL:     googleTokenURL,
		UserinfoURL:  googleUserinfo,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether the credentials are set.
func (g *GoogleClient) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

// AuthCodeURL is where the browser is sent to sign in.
func (g *GoogleClient) AuthCodeURL(state string) string {
	v := url.Values{}
	v.Set("client_id", g.ClientID)
	v.Set("redirect_uri", g.RedirectURL)
	v.Set("response_type", "code")
	v.Set("scope", googleScope)
	v.Set("state", state)
	v.Set("access_type", "online")
	v.Set("prompt", "select_account")
	return g.AuthURL + "?" + v.Encode()
}

// Exchange trades an authorization code for the user's identity.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (*Identity, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", g.ClientID)
	form.Set("client_secret", g.ClientSecret)
	form.Set("redirect_uri", g.RedirectURL)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tr googleTokenResponse
	if err := g.doJSON(req, &tr); err != nil {
		return nil, fmt.Errorf("google token exchange: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("google token exchange: empty access token")
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, g.UserinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tr.AccessToken)

	var ui googleUserInfo
	if err := g.doJSON(req, &ui); err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}

	email := strings.TrimSpace(strings.ToLower(ui.Email))
	if email == "" || ui.Sub == "" {
		return nil, fmt.Errorf("google userinfo missing email or sub")
	}
	name := strings.TrimSpace(ui.Name)
	if name == "" {
		name = email
	}
	return &Identity{Email: email, DisplayName: name}, nil
}

func (g *GoogleClient) doJSON(req *http.Request, dst interface{}) error {
	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
