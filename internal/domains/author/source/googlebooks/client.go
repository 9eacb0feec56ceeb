package googlebooks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/source"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1"

// Config for the Google Books client. APIKey is optional.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client queries the Google Books volumes API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ source.Client = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Source() model.Source {
	return model.SourceGoogleBooks
}

type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Authors    []string `json:"authors"`
	ImageLinks *struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

// Search calls /volumes?q=inauthor:<query>&maxResults=<maxResults>
// Google Books has no author ids, so SourceID is the folded author name.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]model.ExternalAuthorRecord, error) {
	params := url.Values{}
	params.Set("q", "inauthor:"+query)
	params.Set("maxResults", strconv.Itoa(clampMaxResults(maxResults)))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("googlebooks: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("googlebooks: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("googlebooks: %w: %d", source.ErrUnexpectedStatus, resp.StatusCode)
	}

	var body volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("googlebooks: decode response: %w", err)
	}

	collector := source.NewCollector(maxResults)
	for _, item := range body.Items {
		var thumbnail string
		if item.VolumeInfo.ImageLinks != nil {
			thumbnail = NormalizeThumbnail(item.VolumeInfo.ImageLinks.Thumbnail)
		}
		for _, name := range item.VolumeInfo.Authors {
			rec := model.NewExternalRecord(model.SourceGoogleBooks, source.FoldName(name), name)
			if thumbnail != "" {
				photo := thumbnail
				rec.PhotoURL = &photo
			}
			if !collector.Add(rec) {
				return collector.Records(), nil
			}
		}
	}

	return collector.Records(), nil
}

// Google Books rejects maxResults outside 1..40
func clampMaxResults(n int) int {
	switch {
	case n < 1:
		return 10
	case n > 40:
		return 40
	default:
		return n
	}
}

// NormalizeThumbnail forces https and the zoom=1 size variant.
func NormalizeThumbnail(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.Scheme = "https"
	q := u.Query()
	q.Set("zoom", "1")
	u.RawQuery = q.Encode()
	return u.String()
}
