package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"clipforge/infrastructure/logger"
)

// ErrRefreshTokenInvalid marks a refresh rejection where the refresh token
// itself is expired, revoked or malformed. Callers delete the credential and
// force re-authorization; any other refresh failure is transient.
var ErrRefreshTokenInvalid = errors.New("tiktok: refresh token invalid or revoked")

type Config struct {
	ClientKey     string
	ClientSecret  string
	RedirectURI   string
	Scopes        []string
	TokenEndpoint string
	AuthEndpoint  string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// NewClientWithHTTP allows tests to inject a transport.
func NewClientWithHTTP(cfg Config, hc *http.Client) *Client {
	return &Client{cfg: cfg, httpClient: hc}
}

// TokenResponse is the upstream token endpoint payload for both the code
// exchange and the refresh grant.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	OpenID           string `json:"open_id"`
	Scope            string `json:"scope"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type authorizeParams struct {
	ClientKey    string `url:"client_key"`
	ResponseType string `url:"response_type"`
	Scope        string `url:"scope"`
	RedirectURI  string `url:"redirect_uri"`
	State        string `url:"state"`
}

// AuthorizeURL builds the user consent URL (user must approve in browser).
func (c *Client) AuthorizeURL(state string) string {
	v, _ := query.Values(authorizeParams{
		ClientKey:    c.cfg.ClientKey,
		ResponseType: "code",
		Scope:        strings.Join(c.cfg.Scopes, ","),
		RedirectURI:  c.cfg.RedirectURI,
		State:        state,
	})
	return c.cfg.AuthEndpoint + "?" + v.Encode()
}

// ExchangeCode trades an authorization code for the initial token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_key", c.cfg.ClientKey)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	return c.postToken(ctx, form)
}

// RefreshAccessToken trades a refresh token for a fresh token pair. A
// response identifying the refresh token as invalid/expired/revoked is
// reported as ErrRefreshTokenInvalid; everything else is a plain error.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_key", c.cfg.ClientKey)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.postToken(ctx, form)
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	if c.cfg.ClientKey == "" || c.cfg.ClientSecret == "" {
		return nil, fmt.Errorf("tiktok client credentials not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tiktok token request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("tiktok token response parse: %w", err)
	}
	if tok.Error != "" {
		if refreshTokenInvalid(tok.Error, tok.ErrorDescription) {
			return nil, fmt.Errorf("%w: %s %s", ErrRefreshTokenInvalid, tok.Error, tok.ErrorDescription)
		}
		return nil, fmt.Errorf("tiktok token error: %s %s", tok.Error, tok.ErrorDescription)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiktok token endpoint status %d: %s", resp.StatusCode, string(body))
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("tiktok token response missing access_token")
	}
	return &tok, nil
}

func refreshTokenInvalid(code, description string) bool {
	if code == "invalid_grant" {
		return true
	}
	d := strings.ToLower(description)
	return strings.Contains(d, "invalid") || strings.Contains(d, "expired") || strings.Contains(d, "revok")
}

// PublishVideoRequest initializes a pull-from-url video publish.
type PublishVideoRequest struct {
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
}

// InitVideoPublish starts an upload of a finished clip to the user's TikTok
// account. Returns the upstream publish id.
func (c *Client) InitVideoPublish(ctx context.Context, accessToken string, pub PublishVideoRequest) (string, error) {
	payload := map[string]interface{}{
		"post_info": map[string]interface{}{
			"title":           pub.Title,
			"privacy_level":   "SELF_ONLY",
			"disable_comment": false,
		},
		"source_info": map[string]interface{}{
			"source":    "PULL_FROM_URL",
			"video_url": pub.VideoURL,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://open.tiktokapis.com/v2/post/publish/video/init/", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tiktok publish request: %w", err)
	}
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.GetLogger().WithField("body", string(respBody)).Warn("tiktok publish init failed")
		return "", fmt.Errorf("tiktok publish init status %d", resp.StatusCode)
	}
	var out struct {
		Data struct {
			PublishID string `json:"publish_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("tiktok publish response parse: %w", err)
	}
	return out.Data.PublishID, nil
}
