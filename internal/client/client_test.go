package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/intent"
)

// recordedRequest is what the fake backend saw.
type recordedRequest struct {
	Method    string
	Path      string
	Body      string
	RequestID string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func newFakeBackend(t *testing.T, handler http.HandlerFunc) (*fakeBackend, *Client) {
	t.Helper()
	fb := &fakeBackend{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, recordedRequest{
			Method:    r.Method,
			Path:      r.URL.EscapedPath(),
			Body:      string(body),
			RequestID: r.Header.Get("X-Request-ID"),
		})
		fb.mu.Unlock()
		fb.handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return fb, c
}

func (fb *fakeBackend) recorded() []recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]recordedRequest(nil), fb.requests...)
}

func TestNew_ResourceURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:5000", "http://localhost:5000/intent"},
		{"http://localhost:5000/", "http://localhost:5000/intent"},
		{"http://localhost:5000/intent", "http://localhost:5000/intent"},
		{"https://api.example.org/v1/", "https://api.example.org/v1/intent"},
	}
	for _, tt := range tests {
		c, err := New(tt.base)
		require.NoError(t, err)
		require.Equal(t, tt.want, c.ResourceURL())
	}

	_, err := New("localhost:5000")
	require.Error(t, err)
}

func TestList(t *testing.T) {
	fb, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"author":"x","content":"y","creationDate":"2024-01-01T00:00:00Z","lastUpdateDate":"2024-01-01T00:00:00Z"}]`)
	})

	intents, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, intents, 1)
	require.Equal(t, intent.ID("1"), intents[0].ID)

	reqs := fb.recorded()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodGet, reqs[0].Method)
	require.Equal(t, "/intent", reqs[0].Path)
	require.Len(t, reqs[0].RequestID, 26)
}

func TestList_NullBody(t *testing.T) {
	_, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})

	intents, err := c.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, intents)
}

func TestCreate(t *testing.T) {
	fb, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":9,"author":"ada","content":"ship it","creationDate":"2024-01-01T00:00:00Z","lastUpdateDate":"2024-01-01T00:00:00Z"}`)
	})

	created, err := c.Create(context.Background(), intent.Draft{Author: " ada ", Content: "ship it"})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, intent.ID("9"), created.ID)

	reqs := fb.recorded()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodPost, reqs[0].Method)
	require.Equal(t, "/intent", reqs[0].Path)
	require.JSONEq(t, `{"author":" ada ","content":"ship it"}`, reqs[0].Body)
}

func TestCreate_EmptyResponse(t *testing.T) {
	_, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	created, err := c.Create(context.Background(), intent.Draft{Author: "a", Content: "b"})
	require.NoError(t, err)
	require.Nil(t, created)
}

func TestCreate_ValidationSkipsRequest(t *testing.T) {
	fb, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Create(context.Background(), intent.Draft{Author: "", Content: "b"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Empty(t, fb.recorded())
}

func TestUpdate_BodyCarriesOnlyContent(t *testing.T) {
	fb, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.Update(context.Background(), "42", intent.Patch{Content: "revised"}))

	reqs := fb.recorded()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodPatch, reqs[0].Method)
	require.Equal(t, "/intent/42", reqs[0].Path)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &body))
	require.Equal(t, map[string]any{"content": "revised"}, body)
}

func TestUpdate_SendsContentAsTyped(t *testing.T) {
	fb, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Update(context.Background(), "42", intent.Patch{Content: "  line one\nline two\n"}))

	reqs := fb.recorded()
	require.Len(t, reqs, 1)
	require.JSONEq(t, `{"content":"  line one\nline two\n"}`, reqs[0].Body)
}

func TestUpdate_BlankContentSkipsRequest(t *testing.T) {
	fb, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {})

	err := c.Update(context.Background(), "42", intent.Patch{Content: " \t "})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Empty(t, fb.recorded())
}

func TestDelete_EscapesID(t *testing.T) {
	fb, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Delete(context.Background(), "a/b"))

	reqs := fb.recorded()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodDelete, reqs[0].Method)
	require.Equal(t, "/intent/a%2Fb", reqs[0].Path)
}

func TestDelete_RequiresID(t *testing.T) {
	_, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	require.True(t, errors.Is(c.Delete(context.Background(), " "), errors.ErrInvalidRequest))
}

func TestReport(t *testing.T) {
	fb, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"agentName":"planner","response":"done","creationDate":"2024-01-01T00:00:00Z","executionTime":0.25}]`)
	})

	entries, err := c.Report(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "planner", entries[0].AgentName)
	require.Equal(t, "/intent/7/intentReport", fb.recorded()[0].Path)
}

func TestJSONLD(t *testing.T) {
	fb, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = io.WriteString(w, `{"@context":"https://schema.org","@type":"CreativeWork","identifier":"7"}`)
	})

	doc, err := c.JSONLD(context.Background(), "7")
	require.NoError(t, err)
	require.Contains(t, doc.Indent(), `"@type": "CreativeWork"`)
	require.Equal(t, "/intent/7/json-ld", fb.recorded()[0].Path)
}

func TestErrorNormalization(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		_, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		})
		err := c.Delete(context.Background(), "1")
		require.True(t, errors.Is(err, errors.ErrUpstreamStatus))
		require.Equal(t, http.StatusNotFound, errors.UpstreamStatus(err))
	})

	t.Run("malformed body", func(t *testing.T) {
		_, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"not":"a list"`)
		})
		_, err := c.List(context.Background())
		require.True(t, errors.Is(err, errors.ErrMalformedResponse))
	})

	t.Run("malformed json-ld", func(t *testing.T) {
		_, c := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		})
		_, err := c.JSONLD(context.Background(), "1")
		require.True(t, errors.Is(err, errors.ErrMalformedResponse))
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c, err := New(url)
		require.NoError(t, err)
		_, err = c.List(context.Background())
		require.True(t, errors.Is(err, errors.ErrTransport))
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			srv.Close()
		})

		c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
		require.NoError(t, err)
		_, err = c.List(context.Background())
		require.True(t, errors.Is(err, errors.ErrTransport))
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/1") {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithMetrics(m))
	require.NoError(t, err)

	_, err = c.List(context.Background())
	require.NoError(t, err)
	require.Error(t, c.Delete(context.Background(), "1"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(OpList, "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(OpDelete, "status")))
}
