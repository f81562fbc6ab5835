// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package onenote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/enex2onenote/internal/httputil"
	"github.com/pdiddy/enex2onenote/pkg/types"
)

type fakePayload struct{ body string }

func (f fakePayload) Path() string { return "/fake" }

func (f fakePayload) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c := NewClient(context.Background(), "tok-123", types.OneNoteConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test-agent"},
		BaseURL:    ts.URL + "/v1.0/",
	})
	c.boundary = func() string { return "testboundary" }
	return c
}

func TestCreateNotebook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1.0/me/onenote/notebooks", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"displayName": "My Export"}, body)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"nb-1","displayName":"My Export"}`))
	})

	id, err := c.CreateNotebook(context.Background(), "My Export")
	require.NoError(t, err)
	assert.Equal(t, "nb-1", id)
}

func TestCreateSection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/onenote/notebooks/nb-1/sections", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"sec-9"}`))
	})

	id, err := c.CreateSection(context.Background(), "nb-1", "Trip")
	require.NoError(t, err)
	assert.Equal(t, "sec-9", id)
}

func TestCreateSection_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"20117","message":"An item with this name already exists in this location."}}`))
	})

	_, err := c.CreateSection(context.Background(), "nb-1", "Trip")
	require.Error(t, err)

	var apiErr *httputil.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "20117", apiErr.Code)
	assert.Contains(t, err.Error(), `creating section "Trip"`)
}

func TestCreateNotebook_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})

	_, err := c.CreateNotebook(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}

func TestListNotebooks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1.0/me/onenote/notebooks", r.URL.Path)
		w.Write([]byte(`{"value":[
			{"id":"a","displayName":"Work","createdDateTime":"2021-03-04T05:06:07Z"},
			{"id":"b","displayName":"Home","createdDateTime":"2022-01-02T03:04:05Z"}
		]}`))
	})

	notebooks, err := c.ListNotebooks(context.Background())
	require.NoError(t, err)
	require.Len(t, notebooks, 2)
	assert.Equal(t, "Work", notebooks[0].DisplayName)
	assert.Equal(t, "b", notebooks[1].ID)
	assert.Equal(t, time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC), notebooks[0].CreatedAt.UTC())
}

func TestCreatePage_XHTML(t *testing.T) {
	created := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	var gotBody string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/onenote/sections/sec-1/pages", r.URL.Path)
		assert.Equal(t, "application/xhtml+xml", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"page-1","links":{"oneNoteWebUrl":{"href":"https://onenote.example/page-1"}}}`))
	})

	page := &types.PageRequest{
		Title:     "Fish & Chips",
		Content:   "<p>Hello</p>",
		Created:   &created,
		SourceURL: "https://example.com/recipe",
	}
	out, err := c.CreatePage(context.Background(), "sec-1", page)
	require.NoError(t, err)

	assert.Equal(t, "page-1", out.ID)
	assert.Equal(t, "https://onenote.example/page-1", out.WebURL)
	assert.NotEmpty(t, out.Raw)

	assert.Contains(t, gotBody, "<title>Fish &amp; Chips</title>")
	assert.Contains(t, gotBody, `<meta name="created" content="2021-03-04T05:06:07+00:00" />`)
	assert.Contains(t, gotBody, "<blockquote>https://example.com/recipe</blockquote>")
	assert.Contains(t, gotBody, "<p>Hello</p>")
	assert.True(t, strings.HasPrefix(gotBody, "<!DOCTYPE html>"))
}

func TestCreatePage_Multipart(t *testing.T) {
	type part struct {
		name, contentType, body string
	}
	var parts []part

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)
		assert.Equal(t, "testboundary", params["boundary"])

		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(p)
			parts = append(parts, part{p.FormName(), p.Header.Get("Content-Type"), string(data)})
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"page-2"}`))
	})

	page := &types.PageRequest{
		Title:   "Trip",
		Content: `<img src="name:abc123"/>`,
		Attachments: []types.Attachment{
			{Name: "abc123", ContentType: "image/jpeg", Payload: fakePayload{"JPEGDATA"}},
			{Name: "def456", ContentType: "image/png", Payload: fakePayload{"PNGDATA"}},
		},
	}
	out, err := c.CreatePage(context.Background(), "sec-1", page)
	require.NoError(t, err)
	assert.Equal(t, "page-2", out.ID)
	assert.Empty(t, out.WebURL)

	require.Len(t, parts, 3)
	assert.Equal(t, "Presentation", parts[0].name)
	assert.Equal(t, "text/html", parts[0].contentType)
	assert.Contains(t, parts[0].body, `<img src="name:abc123"/>`)
	assert.Equal(t, part{"abc123", "image/jpeg", "JPEGDATA"}, parts[1])
	assert.Equal(t, part{"def456", "image/png", "PNGDATA"}, parts[2])
}

func TestCreatePage_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient(context.Background(), "tok", types.OneNoteConfig{BaseURL: url})
	_, err := c.CreatePage(context.Background(), "sec", &types.PageRequest{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `creating page "x"`)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(context.Background(), "tok", types.OneNoteConfig{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, defaultUserAgent, c.userAgent)
	assert.Equal(t, defaultTimeout, c.http.Timeout)
	assert.Len(t, newBoundary(), 32)
}
