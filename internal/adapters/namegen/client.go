// Package namegen calls the remote name-generation service.
package namegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"domainwizard/internal/domain"
	"domainwizard/internal/ports"
)

const maxTries = 3

type Client struct {
	url  string
	http *http.Client
	// newBackOff builds the retry schedule of one call.
	newBackOff func() backoff.BackOff
}

func New(url string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{url: url, http: hc, newBackOff: defaultBackOff}
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 4 * time.Second
	bo.Multiplier = 2
	return bo
}

type response struct {
	Names []struct {
		Domain       string `json:"domain"`
		BusinessName string `json:"businessName"`
		SourceName   string `json:"sourceName"`
		Source       string `json:"source"`
	} `json:"names"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Generate posts req and returns the names the service proposes. Transport
// errors, 429 and 5xx responses are retried; other failures are not.
func (c *Client) Generate(ctx context.Context, req ports.NameRequest) ([]domain.Candidate, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode name request: %w", err)
	}
	op := func() (response, error) { return c.post(ctx, body) }
	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(maxTries),
	)
	if err != nil {
		return nil, domain.WrapError(domain.CodeNameGenUnavailable, "name generation failed", err)
	}

	out := make([]domain.Candidate, 0, len(res.Names))
	for _, n := range res.Names {
		if strings.TrimSpace(n.Domain) == "" {
			continue
		}
		source := n.SourceName
		if source == "" {
			source = n.BusinessName
		}
		out = append(out, domain.Candidate{Domain: n.Domain, SourceName: source, Source: n.Source})
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, body []byte) (response, error) {
	var out response
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return out, backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return out, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		_ = json.Unmarshal(raw, &ae)
		if ae.Message == "" {
			ae.Message = http.StatusText(resp.StatusCode)
		}
		err := fmt.Errorf("namegen status %d: %s %s", resp.StatusCode, ae.Code, ae.Message)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return out, err
		}
		return out, backoff.Permanent(err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, backoff.Permanent(fmt.Errorf("decode names: %w", err))
	}
	return out, nil
}
