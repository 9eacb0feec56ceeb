package openlibrary

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

const (
	DefaultBaseURL  = "https://openlibrary.org"
	photoURLPattern = "https://covers.openlibrary.org/a/olid/%s-M.jpg"
)

// Config for the Open Library client
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client queries the Open Library search API
type Client struct {
	baseURL    string
	userAgent  string
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
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Source() model.Source {
	return model.SourceOpenLibrary
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	AuthorName []string `json:"author_name"`
	AuthorKey  []string `json:"author_key"`
}

// Search calls /search.json?author=<query>&limit=<maxResults>
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]model.ExternalAuthorRecord, error) {
	params := url.Values{}
	params.Set("author", query)
	params.Set("limit", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("openlibrary: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openlibrary: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("openlibrary: %w: %d", source.ErrUnexpectedStatus, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("openlibrary: decode response: %w", err)
	}

	collector := source.NewCollector(maxResults)
	for _, doc := range body.Docs {
		for i, name := range doc.AuthorName {
			var key string
			if i < len(doc.AuthorKey) {
				key = doc.AuthorKey[i]
			}
			if !collector.Add(toRecord(name, key)) {
				return collector.Records(), nil
			}
		}
	}

	return collector.Records(), nil
}

func toRecord(name, key string) model.ExternalAuthorRecord {
	rec := model.NewExternalRecord(model.SourceOpenLibrary, key, name)
	if key != "" {
		photo := fmt.Sprintf(photoURLPattern, key)
		rec.PhotoURL = &photo
	}
	return rec
}
