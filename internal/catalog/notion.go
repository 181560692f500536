package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultNotionBaseURL = "https://api.notion.com"
	notionVersion        = "2022-06-28"
	notionPageSize       = 100
)

// Property names of the tracker database.
const (
	propName       = "Name"
	propTags       = "Tags"
	propDifficulty = "Difficulty"
	propRecent     = "Recently Attempted"
)

// NotionConfig configures a NotionSource.
type NotionConfig struct {
	Token      string
	DatabaseID string

	// BaseURL overrides the API endpoint (tests).
	BaseURL string

	Timeout time.Duration
}

// NotionSource reads candidates from a Notion database used as a problem
// tracker.
type NotionSource struct {
	httpClient *http.Client
	baseURL    string
	token      string
	databaseID string
}

// NewNotionSource creates a NotionSource.
func NewNotionSource(cfg NotionConfig) (*NotionSource, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("notion database id is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultNotionBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &NotionSource{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
	}, nil
}

type notionQueryResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

type notionPage struct {
	ID         string                    `json:"id"`
	Properties map[string]notionProperty `json:"properties"`
}

type notionProperty struct {
	Type  string `json:"type"`
	Title []struct {
		PlainText string `json:"plain_text"`
	} `json:"title"`
	MultiSelect []struct {
		Name string `json:"name"`
	} `json:"multi_select"`
	Select *struct {
		Name string `json:"name"`
	} `json:"select"`
	Checkbox bool `json:"checkbox"`
}

// Fetch pages through the whole database.
func (s *NotionSource) Fetch(ctx context.Context) ([]Candidate, error) {
	var (
		out    []Candidate
		cursor string
	)
	for {
		page, err := s.query(ctx, cursor)
		if err != nil {
			return nil, &SourceFetchError{Source: "notion", Err: err}
		}
		for _, p := range page.Results {
			out = append(out, p.candidate())
		}
		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		cursor = *page.NextCursor
	}
	return out, nil
}

func (s *NotionSource) query(ctx context.Context, cursor string) (*notionQueryResponse, error) {
	payload := map[string]any{"page_size": notionPageSize}
	if cursor != "" {
		payload["start_cursor"] = cursor
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/v1/databases/%s/query", s.baseURL, s.databaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query notion database: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("notion status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed notionQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode notion response: %w", err)
	}
	return &parsed, nil
}

func (p notionPage) candidate() Candidate {
	c := Candidate{ID: p.ID}

	if prop, ok := p.Properties[propName]; ok {
		var b strings.Builder
		for _, t := range prop.Title {
			b.WriteString(t.PlainText)
		}
		c.Name = strings.TrimSpace(b.String())
	}
	if prop, ok := p.Properties[propTags]; ok {
		for _, t := range prop.MultiSelect {
			c.Tags = append(c.Tags, t.Name)
		}
	}
	if prop, ok := p.Properties[propDifficulty]; ok && prop.Select != nil {
		c.Difficulty = prop.Select.Name
	}
	if prop, ok := p.Properties[propRecent]; ok {
		c.RecentlyAttempted = prop.Checkbox
	}
	return c
}
