package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

func TestNewSchemaSource_ValidatesURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "https", baseURL: "https://schemas.example.com/registry", wantErr: false},
		{name: "http", baseURL: "http://localhost:8080", wantErr: false},
		{name: "no scheme", baseURL: "schemas.example.com", wantErr: true},
		{name: "file scheme", baseURL: "file:///etc/grammars", wantErr: true},
		{name: "garbage", baseURL: "://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := NewSchemaSource(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, source)
		})
	}
}

func TestSchemaSource_Fetch_Success(t *testing.T) {
	const grammar = `<grammar xmlns="http://relaxng.org/ns/structure/1.0"></grammar>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/registry/tei-dialogue-strict.rng", r.URL.Path)
		assert.Equal(t, "application/xml", r.Header.Get("Accept"))
		w.Write([]byte(grammar))
	}))
	defer server.Close()

	source, err := NewSchemaSource(server.URL + "/registry/")
	require.NoError(t, err)

	got, err := source.Fetch(context.Background(), "tei-dialogue-strict")
	require.NoError(t, err)
	assert.Equal(t, grammar, got)
}

func TestSchemaSource_Fetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	source, err := NewSchemaSource(server.URL)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background(), "unknown-schema")
	assert.ErrorIs(t, err, domain.ErrSchemaNotFound)
}

func TestSchemaSource_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source, err := NewSchemaSource(server.URL)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background(), "tei-minimal")
	assert.ErrorIs(t, err, domain.ErrSchemaUnavailable)
}

func TestSchemaSource_Fetch_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	source, err := NewSchemaSource(server.URL)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background(), "tei-minimal")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSchemaNotFound)
	assert.NotErrorIs(t, err, domain.ErrSchemaUnavailable)
}

func TestSchemaSource_Fetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Shut down immediately so the address refuses connections.

	source, err := NewSchemaSource(server.URL)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background(), "tei-minimal")
	assert.ErrorIs(t, err, domain.ErrSchemaUnavailable)
}

func TestSchemaSource_Fetch_RejectsUnsafeIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request for %s", r.URL.Path)
	}))
	defer server.Close()

	source, err := NewSchemaSource(server.URL)
	require.NoError(t, err)

	for _, id := range []string{"", "../admin", "a/b", "x?y", "x#y"} {
		_, err := source.Fetch(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrSchemaNotFound, "id %q", id)
	}
}

func TestSchemaSource_Fetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	source, err := NewSchemaSource(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = source.Fetch(ctx, "tei-minimal")
	assert.Error(t, err)
}

func TestSchemaSource_Fetch_RateLimited(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("<grammar/>"))
	}))
	defer server.Close()

	source, err := NewSchemaSource(server.URL)
	require.NoError(t, err)

	// The burst covers the first requests instantly; one more has to
	// wait for the limiter to refill.
	start := time.Now()
	for i := 0; i < FetchBurst+1; i++ {
		_, err := source.Fetch(context.Background(), "tei-minimal")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(FetchBurst+1), requests.Load())
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestSchemaSource_Refs_Empty(t *testing.T) {
	source, err := NewSchemaSource("https://schemas.example.com")
	require.NoError(t, err)

	refs, err := source.Refs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, refs)
}
