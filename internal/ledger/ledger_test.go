package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digisewa/internal/config"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(config.LedgerConfig{
		Endpoint: url,
		APIKey:   "ledger-key",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestClientAnchor(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/anchors", r.URL.Path)
			assert.Equal(t, "Bearer ledger-key", r.Header.Get("Authorization"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "doc-1", body["document_id"])
			assert.Equal(t, "abc123", body["content_digest"])
			assert.Equal(t, "Revenue Department", body["department"])

			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"tx_hash":"0xdeadbeef"}`))
		}))
		defer srv.Close()

		receipt, err := newTestClient(t, srv.URL).Anchor(context.Background(), "doc-1", "abc123", "Revenue Department")
		require.NoError(t, err)
		assert.Equal(t, "0xdeadbeef", receipt.TxHash)
	})

	t.Run("service error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Anchor(context.Background(), "doc-1", "abc123", "d")
		assert.Error(t, err)
	})

	t.Run("missing tx hash", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Anchor(context.Background(), "doc-1", "abc123", "d")
		assert.Error(t, err)
	})
}

func TestClientVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/anchors/doc-1":
			w.Write([]byte(`{"document_id":"doc-1","content_digest":"abc123","department":"d"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	match, err := c.Verify(context.Background(), "doc-1", "abc123")
	require.NoError(t, err)
	assert.True(t, match)

	match, err = c.Verify(context.Background(), "doc-1", "different-digest")
	require.NoError(t, err)
	assert.False(t, match)

	match, err = c.Verify(context.Background(), "missing-doc", "abc123")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(config.LedgerConfig{})
	assert.Error(t, err)
}
