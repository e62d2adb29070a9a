package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heldCredentials blocks the first AccessToken read after arming until
// released, keeping a refresh flight open.
type heldCredentials struct {
	MemoryCredentials
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (h *heldCredentials) AccessToken() string {
	if h.armed.CompareAndSwap(true, false) {
		close(h.entered)
		<-h.release
	}
	return h.MemoryCredentials.AccessToken()
}

func TestRefreshForCurrentTokenIgnoresStaleFlight(t *testing.T) {
	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": http.StatusOK,
			"data":       map[string]string{"accessToken": "token-2"},
			"success":    true,
		})
	}))
	defer srv.Close()

	creds := &heldCredentials{entered: make(chan struct{}), release: make(chan struct{})}
	c := New(srv.URL, Options{Credentials: creds})
	creds.SetAccessToken("token-1")
	creds.armed.Store(true)

	// The stale caller was rejected with token-0 and holds its flight open.
	staleDone := make(chan error, 1)
	go func() {
		staleDone <- c.refreshSession(context.Background(), "token-0")
	}()
	<-creds.entered

	// The current token was rejected too, so it needs a real refresh.
	require.NoError(t, c.refreshSession(context.Background(), "token-1"))
	assert.EqualValues(t, 1, refreshes.Load())
	assert.Equal(t, "token-2", creds.MemoryCredentials.AccessToken())

	close(creds.release)
	require.NoError(t, <-staleDone)
	assert.EqualValues(t, 1, refreshes.Load())
	assert.Equal(t, "token-2", creds.MemoryCredentials.AccessToken())
}
