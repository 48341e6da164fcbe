package registrar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainwizard/internal/domain"
)

func TestCheck_DecodesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, CheckPath, r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req checkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"brewly.com", "roastio.com"}, req.Domains)
		_, _ = w.Write([]byte(`{"results":{
			"brewly.com":{"available":true,"definitive":true,"price":12.99,"currency":"USD","period":1},
			"roastio.com":{"available":false,"definitive":true,"reason":"registered"}
		}}`))
	}))
	defer srv.Close()

	res, err := New(nil, "k").Check(context.Background(), srv.URL+"/", []string{"brewly.com", "roastio.com"})
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.NotNil(t, res["brewly.com"].Price)
	assert.InDelta(t, 12.99, *res["brewly.com"].Price, 1e-9)
	assert.False(t, res["roastio.com"].Available)
}

func TestCheck_StatusCodes(t *testing.T) {
	cases := map[int]domain.ErrorCode{
		http.StatusUnauthorized:        domain.CodeUpstreamAuth,
		http.StatusForbidden:           domain.CodeUpstreamAuth,
		http.StatusTooManyRequests:     domain.CodeUpstreamRate,
		http.StatusInternalServerError: domain.CodeUpstreamAPI,
	}
	for status, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"code":"X","message":"nope"}`))
		}))
		_, err := New(nil, "").Check(context.Background(), srv.URL, []string{"a.com"})
		srv.Close()
		require.Error(t, err)
		assert.Equal(t, want, domain.CodeOf(err), "status %d", status)
	}
}

func TestCheck_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(nil, "").Check(context.Background(), url, []string{"a.com"})
	assert.Equal(t, domain.CodeUpstreamAPI, domain.CodeOf(err))
}
