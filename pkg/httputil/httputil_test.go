package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte("get:" + r.Form.Get("active")))
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte("post:" + r.Form.Get("method") + ":" + r.Header.Get("X-Test")))
		}
	}))
	defer srv.Close()

	client := NewClient(0)
	ctx := context.Background()

	status, body, err := client.Get(ctx, srv.URL, url.Values{"active": {"a|b"}}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "get:a|b", body)

	status, body, err = client.PostForm(
		ctx, srv.URL, url.Values{"method": {"update"}}, map[string]string{"X-Test": "1"},
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "post:update:1", body)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, _, err := NewClient(0).Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
}
