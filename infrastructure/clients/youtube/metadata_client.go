package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// SourceMetadata describes the long-form video a clip job is created from.
type SourceMetadata struct {
	VideoID      string
	Title        string
	DurationSecs int64
}

type Config struct {
	APIKey       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AccessToken  string
	RefreshToken string
}

// MetadataClient resolves title/duration of YouTube source URLs at job
// creation time. API-key mode is the common path; OAuth mode covers private
// sources owned by the connected account.
type MetadataClient struct {
	service *youtube.Service
}

func NewMetadataClient(ctx context.Context, cfg *Config) (*MetadataClient, error) {
	if cfg.AccessToken != "" && cfg.RefreshToken != "" && cfg.ClientID != "" {
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{youtube.YoutubeReadonlyScope},
			Endpoint:     google.Endpoint,
		}
		token := &oauth2.Token{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(-1 * time.Minute), // Force refresh on first use
		}
		service, err := youtube.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube service: %w", err)
		}
		return &MetadataClient{service: service}, nil
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("youtube metadata client requires an API key or OAuth tokens")
	}
	service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service with API key: %w", err)
	}
	return &MetadataClient{service: service}, nil
}

// Lookup fetches metadata for a YouTube watch URL or bare video id.
func (c *MetadataClient) Lookup(ctx context.Context, sourceURL string) (*SourceMetadata, error) {
	videoID, err := ExtractVideoID(sourceURL)
	if err != nil {
		return nil, err
	}
	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video not found: %s", videoID)
	}
	item := resp.Items[0]
	return &SourceMetadata{
		VideoID:      videoID,
		Title:        item.Snippet.Title,
		DurationSecs: parseISODuration(item.ContentDetails.Duration),
	}, nil
}

// ExtractVideoID accepts watch URLs, youtu.be short links, and bare ids.
func ExtractVideoID(source string) (string, error) {
	if !strings.Contains(source, "/") {
		return source, nil
	}
	u, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("invalid source url: %w", err)
	}
	if strings.Contains(u.Host, "youtu.be") {
		return strings.Trim(u.Path, "/"), nil
	}
	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}
	if strings.Contains(u.Path, "/shorts/") || strings.Contains(u.Path, "/embed/") {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		return parts[len(parts)-1], nil
	}
	return "", fmt.Errorf("cannot extract video id from %q", source)
}

// parseISODuration converts the API's ISO-8601 duration (e.g. PT1H2M3S) to
// seconds, returning 0 on anything unparseable.
func parseISODuration(iso string) int64 {
	iso = strings.TrimPrefix(iso, "PT")
	var total int64
	var n int64
	for _, r := range iso {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int64(r-'0')
		case r == 'H':
			total += n * 3600
			n = 0
		case r == 'M':
			total += n * 60
			n = 0
		case r == 'S':
			total += n
			n = 0
		default:
			return 0
		}
	}
	return total
}
