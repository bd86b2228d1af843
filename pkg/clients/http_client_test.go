package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHTTPClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/txs/abc", r.URL.Path)
		w.Header().Set("X-Rate-Remaining", "10")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"hash":"abc"}`)
	}))
	defer srv.Close()

	client := NewHTTPClient()
	status, body, headers, err := client.Get(context.Background(), srv.URL+"/txs/abc", nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"hash":"abc"}`, string(body))
	assert.Equal(t, "10", headers.Get("X-Rate-Remaining"))
}

func TestHTTPClient_PostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "key", r.PostForm.Get("api_key"))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"status":200}`)
	}))
	defer srv.Close()

	client := NewHTTPClient()
	status, body, err := client.PostForm(context.Background(), srv.URL, url.Values{"api_key": {"key"}})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":200}`, string(body))
}

func TestHTTPClient_SetClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockHTTPClientI(ctrl)
	mock.EXPECT().Get(gomock.Any(), "http://explorer/txs/1", gomock.Any()).
		Return(http.StatusNotFound, nil, http.Header{}, nil)

	client := NewHTTPClient()
	client.SetClient(mock)
	status, _, _, err := client.Get(context.Background(), "http://explorer/txs/1", nil)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}
