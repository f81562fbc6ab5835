// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package onenote is a client for the OneNote part of Microsoft Graph:
// listing and creating notebooks, creating sections, and posting pages.
//
// Calls are made one at a time and are not retried. A non-2xx response is
// returned as an *httputil.APIError.
package onenote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/pdiddy/enex2onenote/internal/httputil"
	"github.com/pdiddy/enex2onenote/pkg/types"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "enex2onenote/0.1"
)

// Client calls the OneNote API on behalf of the signed-in user.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string

	// boundary returns the multipart boundary for a page request.
	boundary func() string
}

// NewClient returns a client that sends token as a bearer credential.
// Acquiring the token is the caller's business; it is used as given. An
// *http.Client stored in ctx under oauth2.HTTPClient is used as the base
// transport.
func NewClient(ctx context.Context, token string, cfg types.OneNoteConfig) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})
	hc := oauth2.NewClient(ctx, src)

	hc.Timeout = cfg.Timeout
	if hc.Timeout <= 0 {
		hc.Timeout = defaultTimeout
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		http:      hc,
		baseURL:   base,
		userAgent: ua,
		boundary:  newBoundary,
	}
}

type notebookList struct {
	Value []struct {
		ID              string    `json:"id"`
		DisplayName     string    `json:"displayName"`
		CreatedDateTime time.Time `json:"createdDateTime"`
	} `json:"value"`
}

// ListNotebooks returns the user's notebooks.
func (c *Client) ListNotebooks(ctx context.Context) ([]types.Notebook, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/me/onenote/notebooks", nil)
	if err != nil {
		return nil, err
	}

	var list notebookList
	if err := c.doJSON(req, &list); err != nil {
		return nil, fmt.Errorf("listing notebooks: %w", err)
	}

	notebooks := make([]types.Notebook, 0, len(list.Value))
	for _, v := range list.Value {
		notebooks = append(notebooks, types.Notebook{
			ID:          v.ID,
			DisplayName: v.DisplayName,
			CreatedAt:   v.CreatedDateTime,
		})
	}
	return notebooks, nil
}

// CreateNotebook creates a notebook and returns its ID.
func (c *Client) CreateNotebook(ctx context.Context, name string) (string, error) {
	id, err := c.createNamed(ctx, "/me/onenote/notebooks", name)
	if err != nil {
		return "", fmt.Errorf("creating notebook %q: %w", name, err)
	}
	return id, nil
}

// CreateSection creates a section in the notebook and returns its ID.
func (c *Client) CreateSection(ctx context.Context, notebookID, name string) (string, error) {
	path := "/me/onenote/notebooks/" + url.PathEscape(notebookID) + "/sections"
	id, err := c.createNamed(ctx, path, name)
	if err != nil {
		return "", fmt.Errorf("creating section %q: %w", name, err)
	}
	return id, nil
}

type createdPage struct {
	ID    string `json:"id"`
	Links struct {
		OneNoteWebURL struct {
			Href string `json:"href"`
		} `json:"oneNoteWebUrl"`
	} `json:"links"`
}

// CreatePage posts page into the section. Pages with attachments are sent
// as multipart/form-data; others as a single XHTML document.
func (c *Client) CreatePage(ctx context.Context, sectionID string, page *types.PageRequest) (*types.CreatedPage, error) {
	var body bytes.Buffer
	contentType, err := writePage(&body, page, c.boundary())
	if err != nil {
		return nil, fmt.Errorf("building page %q: %w", page.Title, err)
	}

	path := "/me/onenote/sections/" + url.PathEscape(sectionID) + "/pages"
	req, err := c.newRequest(ctx, http.MethodPost, path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("creating page %q: %w", page.Title, err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("creating page %q: %w", page.Title, err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading page response: %w", err)
	}

	// The body is opaque to callers; id and link are best effort.
	out := &types.CreatedPage{Raw: raw}
	var cp createdPage
	if json.Unmarshal(raw, &cp) == nil {
		out.ID = cp.ID
		out.WebURL = cp.Links.OneNoteWebURL.Href
	}
	return out, nil
}

// createNamed posts {"displayName": name} to path and returns the new
// object's id.
func (c *Client) createNamed(ctx context.Context, path, name string) (string, error) {
	payload, err := json.Marshal(map[string]string{"displayName": name})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var created struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(req, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("response has no id")
	}
	return created.ID, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) doJSON(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return httputil.DecodeJSON(resp, v)
}
