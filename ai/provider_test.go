package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mira/core"
	"Mira/scene"
)

func providerFor(t *testing.T, serverURL string) *HTTPProvider {
	t.Helper()
	conf := &core.Config{}
	conf.Provider.BaseURL = serverURL
	conf.Provider.ApiKey = "test-key"
	conf.Provider.RatePerSecond = 100
	return NewHTTPProvider(conf, testLogger())
}

func testRequest() *GenerationRequest {
	return NewGenerationRequest(scene.Description{Summary: "at a cafe"}, "natural", "m")
}

func TestHTTPProvider_SynchronousResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req GenerationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Prompt)

		fmt.Fprint(w, `{"images":[{"url":"https://cdn/sync.png"}]}`)
	}))
	defer server.Close()

	p := providerFor(t, server.URL)
	raw, err := p.Submit(context.Background(), testRequest())
	require.NoError(t, err)

	ref, err := ExtractImageRef(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/sync.png", ref)
}

func TestHTTPProvider_PollsPendingJob(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate":
			fmt.Fprint(w, `{"id":"job-1","status":"queued"}`)
		case "/result/job-1":
			if polls.Add(1) < 2 {
				fmt.Fprint(w, `{"id":"job-1","status":"in_progress"}`)
				return
			}
			fmt.Fprint(w, `{"images":[{"url":"https://cdn/polled.png"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := providerFor(t, server.URL)
	raw, err := p.Submit(context.Background(), testRequest())
	require.NoError(t, err)

	ref, err := ExtractImageRef(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/polled.png", ref)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestHTTPProvider_ErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"prompt rejected"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	p := providerFor(t, server.URL)
	_, err := p.Submit(context.Background(), testRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "prompt rejected")
}

func TestHTTPProvider_ContextCancelStopsPolling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate":
			fmt.Fprint(w, `{"id":"job-2","status":"queued"}`)
		default:
			fmt.Fprint(w, `{"id":"job-2","status":"in_progress"}`)
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := providerFor(t, server.URL)
	_, err := p.Submit(ctx, testRequest())
	assert.Error(t, err)
}
