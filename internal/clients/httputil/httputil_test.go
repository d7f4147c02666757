package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bar", r.URL.Query().Get("foo"))
		w.Write([]byte(`{"value": 42}`))
	}))
	defer srv.Close()

	var dest struct {
		Value int `json:"value"`
	}
	params := map[string][]string{"foo": {"bar"}}
	err := GetJSON(context.Background(), srv.Client(), srv.URL, params, nil, &dest, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 42, dest.Value)
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	oldBackoff := backoffBase
	backoffBase = time.Millisecond
	defer func() { backoffBase = oldBackoff }()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	var dest struct {
		OK bool `json:"ok"`
	}
	err := GetJSON(context.Background(), srv.Client(), srv.URL, nil, nil, &dest, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, dest.OK)
	assert.Equal(t, 3, calls)
}

func TestGetJSONDoesNotRetryAuthErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	var dest map[string]interface{}
	err := GetJSON(context.Background(), srv.Client(), srv.URL, nil, nil, &dest, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, IsAuthOrQuota(err))
	assert.Equal(t, 1, calls)
}

func TestGetJSONSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var dest map[string]interface{}
	headers := map[string]string{"User-Agent": "Mozilla/5.0"}
	err := GetJSON(context.Background(), srv.Client(), srv.URL, nil, headers, &dest, zerolog.Nop())
	require.NoError(t, err)
}
