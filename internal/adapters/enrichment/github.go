// Package enrichment holds the best-effort signal collaborators: developer
// ecosystem popularity, web archive history and word association.
package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
)

// GitHub counts public repositories that mention a word.
type GitHub struct {
	client *gh.Client
}

// NewGitHub returns a popularity source. token may be empty (lower rate
// limit); baseURL overrides the API root and is used by tests.
func NewGitHub(token, baseURL string, hc *http.Client) (*GitHub, error) {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	c := gh.NewClient(hc)
	if token != "" {
		c = c.WithAuthToken(token)
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		c.BaseURL = u
	}
	return &GitHub{client: c}, nil
}

func (g *GitHub) Popularity(ctx context.Context, word string) (int, error) {
	q := fmt.Sprintf("%s in:name,description", word)
	res, _, err := g.client.Search.Repositories(ctx, q, &gh.SearchOptions{
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("github search %q: %w", word, err)
	}
	return res.GetTotal(), nil
}
