// Package fetch retrieves URLs on behalf of the model.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Cyclone1070/q/internal/config"
	"github.com/Cyclone1070/q/internal/tool/helper/content"
)

// doer is the subset of *http.Client the tool uses.
type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a fetched document. Content holds the decoded JSON value for
// JSON responses and the body text otherwise.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Content     any
	Truncated   bool
}

// IsJSON reports whether Content is a decoded JSON value.
func (r *Response) IsJSON() bool {
	_, isText := r.Content.(string)
	return !isText
}

// Text renders Content for the model. JSON values are re-encoded indented.
func (r *Response) Text() string {
	if s, ok := r.Content.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Content); err != nil {
		return fmt.Sprint(r.Content)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// FetchTool performs HTTP GETs.
type FetchTool struct {
	client   doer
	maxBytes int64
	logger   *slog.Logger
}

// NewFetchTool creates a FetchTool with a proxy-aware client bounded by the
// configured timeout. guard vets redirect targets.
func NewFetchTool(cfg config.ToolsConfig, guard RedirectGuard, logger *slog.Logger) *FetchTool {
	return NewFetchToolWithClient(NewHTTPClient(cfg.FetchTimeoutDuration(), guard), cfg, logger)
}

// NewFetchToolWithClient creates a FetchTool around an existing client.
func NewFetchToolWithClient(client doer, cfg config.ToolsConfig, logger *slog.Logger) *FetchTool {
	if client == nil {
		panic("client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchTool{
		client:   client,
		maxBytes: cfg.FetchMaxBytes,
		logger:   logger,
	}
}

// Run fetches rawURL, following redirects. Non-2xx statuses are errors.
// NOTE: The caller approves rawURL. Redirect hops are only vetted by the
// client's guard.
func (t *FetchTool) Run(ctx context.Context, rawURL string) (*Response, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &RequestError{URL: rawURL, Cause: err}
	}
	req.Header.Set("User-Agent", "q-agent")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &RequestError{URL: rawURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBytes+1))
	if err != nil {
		return nil, &RequestError{URL: rawURL, Cause: err}
	}
	truncated := int64(len(body)) > t.maxBytes
	if truncated {
		body = body[:t.maxBytes]
	}

	out := &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Truncated:   truncated,
	}

	if content.IsJSONMIME(out.ContentType) && !truncated {
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, &JSONError{URL: rawURL, Cause: err}
		}
		out.Content = v
	} else {
		out.Content = string(body)
	}

	t.logger.DebugContext(ctx, "fetched url", "url", rawURL, "status", resp.StatusCode, "bytes", len(body), "json", out.IsJSON())
	return out, nil
}
