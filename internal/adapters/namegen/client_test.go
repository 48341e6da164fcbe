package namegen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainwizard/internal/domain"
	"domainwizard/internal/ports"
)

func newTestClient(url string) *Client {
	c := New(url, nil)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestGenerate_DecodesNames(t *testing.T) {
	var got ports.NameRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"names":[
			{"domain":"brewly.com","businessName":"Brewly","source":"llm"},
			{"domain":"roastio.com","sourceName":"Roastio"},
			{"domain":" "}
		],"_debug":{"model":"x"}}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Generate(context.Background(), ports.NameRequest{
		Keywords: "coffee roast", TLD: "com", MaxNames: 15, PrevNames: []string{"beanly.com"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.Candidate{Domain: "brewly.com", SourceName: "Brewly", Source: "llm"}, out[0])
	assert.Equal(t, "Roastio", out[1].SourceName)
	assert.Equal(t, "coffee roast", got.Keywords)
	assert.Equal(t, []string{"beanly.com"}, got.PrevNames)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"names":[{"domain":"brewly.com"}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Generate(context.Background(), ports.NameRequest{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGenerate_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"BAD_KEYWORDS","message":"keywords required"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), ports.NameRequest{})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, domain.CodeNameGenUnavailable, domain.CodeOf(err))
	assert.Contains(t, err.Error(), "keywords required")

	var de *domain.Error
	assert.True(t, errors.As(err, &de))
}
