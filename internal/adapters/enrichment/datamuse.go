package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"domainwizard/internal/domain"
)

const DefaultDatamuseURL = "https://api.datamuse.com"

// Datamuse returns "means like" associations for a word.
type Datamuse struct {
	base string
	http *http.Client
}

func NewDatamuse(baseURL string, hc *http.Client) *Datamuse {
	if baseURL == "" {
		baseURL = DefaultDatamuseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Datamuse{base: strings.TrimRight(baseURL, "/"), http: hc}
}

type datamuseWord struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
}

// Related returns single-token associations, best first. Phrases are split
// and only their tokens not already returned are kept.
func (d *Datamuse) Related(ctx context.Context, word string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("ml", word)
	q.Set("max", strconv.Itoa(limit*2))
	var words []datamuseWord
	if err := getJSON(ctx, d.http, d.base+"/words?"+q.Encode(), &words); err != nil {
		return nil, fmt.Errorf("datamuse %q: %w", word, err)
	}

	seen := map[string]struct{}{word: {}}
	var out []string
	for _, w := range words {
		for _, tok := range domain.Tokenize(w.Word) {
			if len(tok) < 3 {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
			if len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}
