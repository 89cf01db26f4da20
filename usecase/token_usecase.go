package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clipforge/domain/model"
	"clipforge/domain/repository"
	"clipforge/infrastructure/clients/tiktok"
	"clipforge/infrastructure/logger"
)

// Closed error taxonomy for token retrieval. Callers route the first three to
// a "reconnect" UX path and ErrRefreshFailed to a plain retry path; they are
// never collapsed into one generic error because the remediation differs.
var (
	// ErrNotConnected: no credential stored; the user never authorized.
	ErrNotConnected = errors.New("platform not connected")
	// ErrTokenExpired: token expired with no refresh token; credential deleted.
	ErrTokenExpired = errors.New("access token expired and cannot be refreshed")
	// ErrTokenRevoked: upstream rejected the refresh token; credential deleted.
	ErrTokenRevoked = errors.New("refresh token revoked by platform")
	// ErrRefreshFailed: transient refresh failure; credential left untouched.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// TokenRefresher is the upstream token endpoint. Implementations report a
// dead refresh token as tiktok.ErrRefreshTokenInvalid.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*tiktok.TokenResponse, error)
}

type ITokenUsecase interface {
	// GetValidToken returns a currently valid access token for the user on
	// the provider, refreshing transparently when within the safety margin.
	GetValidToken(ctx context.Context, userID, provider string) (string, error)
	Disconnect(ctx context.Context, userID, provider string) error
}

type tokenUsecase struct {
	credRepo  repository.ICredential
	refresher TokenRefresher

	// Tokens are used for an upload immediately after retrieval; refreshing
	// inside the margin avoids the token dying mid-operation.
	safetyMargin time.Duration
	defaultTTL   time.Duration
	now          func() time.Time

	mu       sync.Mutex
	inflight map[string]*refreshCall
}

type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

func NewTokenUsecase(credRepo repository.ICredential, refresher TokenRefresher, safetyMargin, defaultTTL time.Duration) ITokenUsecase {
	return &tokenUsecase{
		credRepo:     credRepo,
		refresher:    refresher,
		safetyMargin: safetyMargin,
		defaultTTL:   defaultTTL,
		now:          func() time.Time { return time.Now().UTC() },
		inflight:     make(map[string]*refreshCall),
	}
}

func (u *tokenUsecase) GetValidToken(ctx context.Context, userID, provider string) (string, error) {
	cred, err := u.credRepo.Get(ctx, userID, provider)
	if err != nil {
		return "", fmt.Errorf("credential lookup: %w", err)
	}
	if cred == nil {
		return "", ErrNotConnected
	}
	// Unset expiry means the upstream never reported one; assume valid
	// rather than refreshing on every call.
	if cred.ExpiresAt == nil || u.now().Before(cred.ExpiresAt.Add(-u.safetyMargin)) {
		return cred.AccessToken, nil
	}
	return u.refreshCoalesced(ctx, userID, provider, cred)
}

// refreshCoalesced ensures a single upstream refresh per (user, provider) at
// a time; concurrent callers wait for the winner's result instead of firing
// duplicate refresh requests with the same refresh token.
func (u *tokenUsecase) refreshCoalesced(ctx context.Context, userID, provider string, cred *model.Credential) (string, error) {
	key := userID + "|" + provider

	u.mu.Lock()
	if call, ok := u.inflight[key]; ok {
		u.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	u.inflight[key] = call
	u.mu.Unlock()

	call.token, call.err = u.refresh(ctx, userID, provider, cred)

	u.mu.Lock()
	delete(u.inflight, key)
	u.mu.Unlock()
	close(call.done)

	return call.token, call.err
}

func (u *tokenUsecase) refresh(ctx context.Context, userID, provider string, cred *model.Credential) (string, error) {
	lg := logger.GetLogger().WithField("user_id", userID).WithField("provider", provider)

	if cred.RefreshToken == "" {
		// Unrenewable credential: delete so the user is pushed through
		// re-authorization instead of hitting this dead end repeatedly.
		u.deleteBestEffort(ctx, userID, provider)
		return "", ErrTokenExpired
	}

	resp, err := u.refresher.RefreshAccessToken(ctx, cred.RefreshToken)
	if err != nil {
		if errors.Is(err, tiktok.ErrRefreshTokenInvalid) {
			u.deleteBestEffort(ctx, userID, provider)
			lg.WithField("error", err).Warn("refresh token rejected upstream; credential removed")
			return "", fmt.Errorf("%w: %v", ErrTokenRevoked, err)
		}
		lg.WithField("error", err).Warn("token refresh failed; credential retained for retry")
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	ttl := u.defaultTTL
	if resp.ExpiresIn > 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}
	expiresAt := u.now().Add(ttl)

	// Upstream APIs commonly omit the refresh token when it is not rotated.
	refreshToken := resp.RefreshToken
	if refreshToken == "" {
		refreshToken = cred.RefreshToken
	}

	cred.AccessToken = resp.AccessToken
	cred.RefreshToken = refreshToken
	cred.ExpiresAt = &expiresAt
	if resp.OpenID != "" {
		openID := resp.OpenID
		cred.OpenID = &openID
	}
	if err := u.credRepo.Upsert(ctx, cred); err != nil {
		lg.WithField("error", err).Error("failed persisting refreshed credential")
		return "", fmt.Errorf("%w: persist: %v", ErrRefreshFailed, err)
	}
	return resp.AccessToken, nil
}

// deleteBestEffort removes the credential before the token error is raised; a
// deletion failure is logged and swallowed so it never masks the token error.
func (u *tokenUsecase) deleteBestEffort(ctx context.Context, userID, provider string) {
	if err := u.credRepo.Delete(ctx, userID, provider); err != nil {
		logger.GetLogger().
			WithField("user_id", userID).
			WithField("provider", provider).
			WithField("error", err).
			Warn("failed deleting dead credential")
	}
}

func (u *tokenUsecase) Disconnect(ctx context.Context, userID, provider string) error {
	return u.credRepo.Delete(ctx, userID, provider)
}
