package model

import "time"

// Credential stores platform OAuth tokens per user. At most one row exists
// per (user_id, provider); a refresh mutates the row in place and a revoked
// or unrenewable credential is deleted outright.
type Credential struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	Provider     string     `json:"provider"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Scopes       string     `json:"scopes"`
	OpenID       *string    `json:"open_id,omitempty"` // TikTok user open_id
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ProviderTikTok is the only provider currently wired end to end.
const ProviderTikTok = "tiktok"
