package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultWaybackURL = "https://archive.org"

// Wayback checks the Internet Archive availability API.
type Wayback struct {
	base string
	http *http.Client
}

func NewWayback(baseURL string, hc *http.Client) *Wayback {
	if baseURL == "" {
		baseURL = DefaultWaybackURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Wayback{base: strings.TrimRight(baseURL, "/"), http: hc}
}

type waybackResponse struct {
	ArchivedSnapshots struct {
		Closest *struct {
			Available bool   `json:"available"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

func (w *Wayback) HasSnapshot(ctx context.Context, name string) (bool, error) {
	var out waybackResponse
	if err := getJSON(ctx, w.http, w.base+"/wayback/available?url="+url.QueryEscape(name), &out); err != nil {
		return false, fmt.Errorf("wayback %s: %w", name, err)
	}
	c := out.ArchivedSnapshots.Closest
	return c != nil && c.Available, nil
}

func getJSON(ctx context.Context, hc *http.Client, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
