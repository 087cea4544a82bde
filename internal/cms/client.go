// Package cms queries the headless CMS (Strapi REST dialect) for email templates.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dcarbon/emailpreview/internal/metrics"
	"github.com/dcarbon/emailpreview/internal/models"
	"github.com/dcarbon/emailpreview/internal/version"
)

// ErrNotFound is returned when the store has no template matching the identifier.
var ErrNotFound = errors.New("template not found")

// ErrMissingIdentifier is returned when neither template key nor document id is set.
var ErrMissingIdentifier = errors.New("missing template identifier")

// StoreError wraps a failed store call: transport failure, non-2xx status or an undecodable body.
type StoreError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: store responded %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

const (
	defaultTemplatesPath = "/api/templates"
	healthPath           = "/_health"
	maxErrorBody         = 512
)

// Client fetches templates from the content store. It holds no mutable
// state and never caches; every call queries the store.
type Client struct {
	baseURL       string
	templatesPath string
	token         string
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Deployments impose
// request timeouts here.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTemplatesPath overrides the collection endpoint path.
func WithTemplatesPath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.templatesPath = p
		}
	}
}

// NewClient creates a client for the store rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       baseURL,
		templatesPath: defaultTemplatesPath,
		httpClient:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TemplateQueryURL builds the filtered collection URL for id in the given state.
func (c *Client) TemplateQueryURL(id models.TemplateIdentifier, state models.ContentState) string {
	params := url.Values{}
	if id.TemplateKey != "" {
		params.Set("filters[templateKey][$eq]", id.TemplateKey)
	} else {
		params.Set("filters[documentId][$eq]", id.DocumentID)
	}
	if state == models.StateDraft {
		params.Set("status", string(models.StateDraft))
	}
	return c.baseURL + c.templatesPath + "?" + params.Encode()
}

type collectionResponse struct {
	Data []json.RawMessage `json:"data"`
}

// FetchTemplate returns the first template matching id in the requested
// content state. A failed call is not retried.
func (c *Client) FetchTemplate(ctx context.Context, id models.TemplateIdentifier, state models.ContentState) (*models.Template, error) {
	if id.IsZero() {
		return nil, ErrMissingIdentifier
	}

	start := time.Now()
	defer func() { metrics.ObserveStoreRequest(string(state), time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TemplateQueryURL(id, state), nil)
	if err != nil {
		return nil, &StoreError{Op: "build request", Err: err}
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &StoreError{Op: "fetch template", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StoreError{
			Op:         "fetch template",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to fetch template: %s", string(body)),
		}
	}

	var payload collectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &StoreError{Op: "decode response", Err: err}
	}
	if len(payload.Data) == 0 {
		return nil, ErrNotFound
	}

	tpl, err := decodeRecord(payload.Data[0])
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "decode template", Err: err}
	}
	return tpl, nil
}

// Ping checks that the store answers HTTP. Any status below 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return &StoreError{Op: "build request", Err: err}
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &StoreError{Op: "ping", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= 500 {
		return &StoreError{Op: "ping", StatusCode: resp.StatusCode, Err: errors.New("store unavailable")}
	}
	return nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// decodeRecord accepts both flat records and the older {id, attributes} envelope.
// A null record or null attributes means there is no template.
func decodeRecord(raw json.RawMessage) (*models.Template, error) {
	if isNull(raw) {
		return nil, ErrNotFound
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	var tpl models.Template
	if attrs, ok := fields["attributes"]; ok {
		if isNull(attrs) {
			return nil, ErrNotFound
		}
		if err := json.Unmarshal(attrs, &tpl); err != nil {
			return nil, err
		}
		if id, ok := fields["id"]; ok && !isNull(id) {
			if err := json.Unmarshal(id, &tpl.ID); err != nil {
				return nil, err
			}
		}
		return &tpl, nil
	}
	if err := json.Unmarshal(raw, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
