// Package registrar calls the batch availability and pricing backend.
package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"domainwizard/internal/domain"
)

// CheckPath is appended to the base URL of every batch request.
const CheckPath = "/api/availability"

type Client struct {
	http   *http.Client
	apiKey string
}

// New returns a client. apiKey, when set, is sent as a bearer token.
func New(hc *http.Client, apiKey string) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 45 * time.Second}
	}
	return &Client{http: hc, apiKey: apiKey}
}

type checkRequest struct {
	Domains []string `json:"domains"`
}

type checkResponse struct {
	Results map[string]domain.AvailabilityResult `json:"results"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Check resolves one chunk of domains. Failures carry a GODADDY_* code.
func (c *Client) Check(ctx context.Context, baseURL string, domains []string) (map[string]domain.AvailabilityResult, error) {
	body, err := json.Marshal(checkRequest{Domains: domains})
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(baseURL, "/") + CheckPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapError(domain.CodeUpstreamAPI, "build availability request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.CodeUpstreamAPI, "availability request failed", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, domain.WrapError(domain.CodeUpstreamAPI, "read availability response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		_ = json.Unmarshal(raw, &ae)
		msg := ae.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, domain.NewError(codeForStatus(resp.StatusCode), fmt.Sprintf("availability backend status %d: %s", resp.StatusCode, msg))
	}

	var out checkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, domain.WrapError(domain.CodeUpstreamAPI, "decode availability response", err)
	}
	if out.Results == nil {
		out.Results = map[string]domain.AvailabilityResult{}
	}
	return out.Results, nil
}

func codeForStatus(status int) domain.ErrorCode {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.CodeUpstreamAuth
	case http.StatusTooManyRequests:
		return domain.CodeUpstreamRate
	default:
		return domain.CodeUpstreamAPI
	}
}
