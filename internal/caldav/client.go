package caldav

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/icholy/digest"

	"github.com/bivex/caldav-mcp/internal/logging"
)

// Client is a CalDAV client bound to a single server and credential pair.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a client from cfg. The underlying transport answers
// digest challenges automatically; basic credentials are preset on every
// request so servers that skip the challenge are satisfied immediately.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: timeout,
			Transport: &digest.Transport{
				Username: cfg.Username,
				Password: cfg.Password,
			},
		},
		logger: logger,
	}
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/")
}

// StatusError reports an unexpected HTTP status from the server.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// resolve joins a collection path or href with the base URL. Absolute
// URLs pass through unchanged so callers may hand back hrefs exactly as
// the server returned them.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL() + path
}

// do issues a request with authentication and the given extra headers.
func (c *Client) do(ctx context.Context, method, path, body string, headers map[string]string) (*http.Response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("building %s request for %s: %w", method, path, err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// Get fetches a resource body, typically a single calendar object.
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Method: http.MethodGet, Path: path, Code: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Put uploads a resource body with the given content type. Extra headers
// such as If-None-Match may be supplied by the caller.
func (c *Client) Put(ctx context.Context, path, body, contentType string, headers map[string]string) error {
	merged := map[string]string{"Content-Type": contentType}
	for k, v := range headers {
		merged[k] = v
	}
	resp, err := c.do(ctx, http.MethodPut, path, body, merged)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: http.MethodPut, Path: path, Code: resp.StatusCode}
	}
	return nil
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: http.MethodDelete, Path: path, Code: resp.StatusCode}
	}
	return nil
}

// Mkcol creates a collection at path.
func (c *Client) Mkcol(ctx context.Context, path string) error {
	resp, err := c.do(ctx, "MKCOL", path, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: "MKCOL", Path: path, Code: resp.StatusCode}
	}
	return nil
}

const propfindBody = `<?xml version="1.0" encoding="utf-8" ?>
<D:propfind xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:displayname/>
    <D:resourcetype/>
  </D:prop>
</D:propfind>`

// Multistatus response shapes. Element names carry no namespace on
// purpose: servers prefix D:, d:, DAV: or nothing at all, and
// encoding/xml matches the local name regardless.
type multistatus struct {
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href      string     `xml:"href"`
	Propstats []propstat `xml:"propstat"`
}

type propstat struct {
	Prop davProp `xml:"prop"`
}

type davProp struct {
	DisplayName  string       `xml:"displayname"`
	ResourceType resourceType `xml:"resourcetype"`
}

type resourceType struct {
	Collection *struct{} `xml:"collection"`
	Calendar   *struct{} `xml:"calendar"`
}

// List performs a Depth:1 PROPFIND on a collection and returns its
// members. The collection's own entry is excluded.
func (c *Client) List(ctx context.Context, path string) ([]CollectionEntry, error) {
	resp, err := c.do(ctx, "PROPFIND", path, propfindBody, map[string]string{
		"Content-Type": "application/xml; charset=utf-8",
		"Depth":        "1",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMultiStatus && resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Method: "PROPFIND", Path: path, Code: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading PROPFIND response for %s: %w", path, err)
	}

	var ms multistatus
	if err := xml.Unmarshal(data, &ms); err != nil {
		return nil, fmt.Errorf("parsing PROPFIND response for %s: %w", path, err)
	}

	self := normalizePath(path)
	var entries []CollectionEntry
	for _, r := range ms.Responses {
		href := strings.TrimSpace(r.Href)
		if href == "" || normalizePath(href) == self {
			continue
		}
		entry := CollectionEntry{Path: href}
		for _, ps := range r.Propstats {
			if ps.Prop.DisplayName != "" {
				entry.DisplayName = ps.Prop.DisplayName
			}
			if ps.Prop.ResourceType.Collection != nil {
				entry.IsDir = true
			}
			if ps.Prop.ResourceType.Calendar != nil {
				entry.IsCalendar = true
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MaxListDepth bounds recursive listing so that cyclic or malicious
// collection graphs cannot drive unbounded traversal.
const MaxListDepth = 8

// ListRecursive walks a collection tree depth-first and returns the
// non-collection resources found. Listing failures in subtrees are
// logged and skipped; already-visited paths and parent references are
// never followed twice.
func (c *Client) ListRecursive(ctx context.Context, path string) []CollectionEntry {
	visited := make(map[string]bool)
	return c.listRecursive(ctx, path, 0, visited)
}

func (c *Client) listRecursive(ctx context.Context, path string, depth int, visited map[string]bool) []CollectionEntry {
	if depth > MaxListDepth {
		c.logger.Debug("recursion depth limit reached", logging.Path(path))
		return nil
	}
	key := normalizePath(path)
	if visited[key] {
		return nil
	}
	visited[key] = true

	entries, err := c.List(ctx, path)
	if err != nil {
		c.logger.Debug("skipping unlistable collection", logging.Path(path), logging.Err(err))
		return nil
	}

	var files []CollectionEntry
	for _, e := range entries {
		if strings.Contains(e.Path, "..") {
			continue
		}
		if e.IsDir {
			files = append(files, c.listRecursive(ctx, e.Path, depth+1, visited)...)
			continue
		}
		files = append(files, e)
	}
	return files
}

// normalizePath reduces an href or path to a comparable form: scheme and
// host stripped, no trailing slash.
func normalizePath(p string) string {
	if i := strings.Index(p, "://"); i >= 0 {
		rest := p[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			p = rest[j:]
		} else {
			p = "/"
		}
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
