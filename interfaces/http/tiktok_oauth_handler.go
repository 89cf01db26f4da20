package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"clipforge/domain/model"
	"clipforge/domain/repository"
	"clipforge/infrastructure/clients/tiktok"
	"clipforge/infrastructure/configuration"
	"clipforge/infrastructure/logger"
	"clipforge/usecase"
)

type ITikTokOAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	Callback(ctx *gin.Context)
	Status(ctx *gin.Context)
	Disconnect(ctx *gin.Context)
}

type tiktokOAuthHandler struct {
	client       *tiktok.Client
	credRepo     repository.ICredential
	tokenUsecase usecase.ITokenUsecase
	stateMu      sync.Mutex
	states       map[string]time.Time // state -> expiry
}

func NewTikTokOAuthHandler(client *tiktok.Client, credRepo repository.ICredential, tokenUsecase usecase.ITokenUsecase) ITikTokOAuthHandler {
	return &tiktokOAuthHandler{client: client, credRepo: credRepo, tokenUsecase: tokenUsecase, states: map[string]time.Time{}}
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// GetAuthURL builds the TikTok authorization URL (user must approve in browser)
func (h *tiktokOAuthHandler) GetAuthURL(c *gin.Context) {
	conf := configuration.C.OAuth.TikTok
	if conf.ClientKey == "" || conf.RedirectURI == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tiktok oauth not configured"})
		return
	}
	state := randomState()
	// store state with 10 minute expiry; drop leftovers from abandoned
	// attempts while we hold the lock
	h.stateMu.Lock()
	now := time.Now()
	for s, exp := range h.states {
		if now.After(exp) {
			delete(h.states, s)
		}
	}
	h.states[state] = now.Add(10 * time.Minute)
	h.stateMu.Unlock()
	c.JSON(http.StatusOK, gin.H{"auth_url": h.client.AuthorizeURL(state), "state": state})
}

func (h *tiktokOAuthHandler) consumeState(state string) bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	exp, ok := h.states[state]
	if ok {
		delete(h.states, state)
	}
	return ok && time.Now().Before(exp)
}

// Callback exchanges the authorization code and stores the credential.
func (h *tiktokOAuthHandler) Callback(c *gin.Context) {
	lg := logger.GetLogger()
	code := c.Query("code")
	state := c.Query("state")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	if !h.consumeState(state) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}

	userID := c.GetString("user_id")
	if userID == "" { // fallback for dev
		userID = "demo-user"
	}

	tok, err := h.client.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		lg.WithField("error", err).Error("tiktok code exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "token_exchange_failed"})
		return
	}

	now := time.Now()
	cred := &model.Credential{
		UserID:       userID,
		Provider:     model.ProviderTikTok,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scopes:       tok.Scope,
	}
	if tok.ExpiresIn > 0 {
		exp := now.Add(time.Duration(tok.ExpiresIn) * time.Second)
		cred.ExpiresAt = &exp
	}
	if tok.OpenID != "" {
		openID := tok.OpenID
		cred.OpenID = &openID
	}
	if err := h.credRepo.Upsert(c.Request.Context(), cred); err != nil {
		lg.WithField("error", err).Error("store tiktok credential failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credential_store_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected": true, "provider": model.ProviderTikTok, "scopes": strings.Split(tok.Scope, ",")})
}

// Status reports whether the user has a stored TikTok connection.
func (h *tiktokOAuthHandler) Status(c *gin.Context) {
	userID := c.GetString("user_id")
	cred, err := h.credRepo.Get(c.Request.Context(), userID, model.ProviderTikTok)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cred == nil {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}
	resp := gin.H{"connected": true, "scopes": cred.Scopes}
	if cred.ExpiresAt != nil {
		resp["expires_at"] = cred.ExpiresAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// Disconnect drops the stored credential. TikTok offers no server-side revoke
// for this grant type, so forgetting the tokens is the whole operation.
func (h *tiktokOAuthHandler) Disconnect(c *gin.Context) {
	userID := c.GetString("user_id")
	if err := h.tokenUsecase.Disconnect(c.Request.Context(), userID, model.ProviderTikTok); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": false})
}
