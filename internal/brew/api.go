package brew

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
	"github.com/docdyhr/versiontracker-sub001/internal/common/version"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// DefaultBaseURL is the public Homebrew JSON API
const DefaultBaseURL = "https://formulae.brew.sh"

// maxRecordSize bounds a single response body (the full cask listing is the largest)
const maxRecordSize = 256 << 20

// APISource reads the catalog from the Homebrew JSON API
type APISource struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// APIOption is a functional option for configuring APISource
type APIOption func(*APISource)

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(c *http.Client) APIOption {
	return func(s *APISource) {
		s.HTTPClient = c
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) APIOption {
	return func(s *APISource) {
		s.UserAgent = ua
	}
}

// NewAPISource creates an API source for the given base URL.
// An empty base URL selects DefaultBaseURL.
func NewAPISource(baseURL string, opts ...APIOption) *APISource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	s := &APISource{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: "versiontracker/" + version.Short(),
		HTTPClient: &http.Client{
			// Per-fetch deadlines come from the context; this bounds the index download
			Timeout: 2 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index lists every cask and formula, casks first.
func (s *APISource) Index(ctx context.Context) ([]tracker.IndexEntry, error) {
	var entries []tracker.IndexEntry
	for _, listing := range []string{"/api/cask.json", "/api/formula.json"} {
		body, err := s.get(ctx, listing)
		if err != nil {
			return nil, err
		}
		part, err := ParseIndex(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", listing, err)
		}
		logger.Debug("%s lists %d package(s)", listing, len(part))
		entries = append(entries, part...)
	}
	return entries, nil
}

// Fetch returns the record for name, trying the cask endpoint before the
// formula endpoint.
func (s *APISource) Fetch(ctx context.Context, name string) (tracker.CatalogPackage, error) {
	escaped := url.PathEscape(name)

	var lastErr error
	for _, endpoint := range []string{"/api/cask/" + escaped + ".json", "/api/formula/" + escaped + ".json"} {
		body, err := s.get(ctx, endpoint)
		if errors.Is(err, tracker.ErrNotFound) {
			lastErr = err
			continue
		}
		if err != nil {
			return tracker.CatalogPackage{}, err
		}

		pkgs, err := ParseRecords(body)
		if err != nil {
			return tracker.CatalogPackage{}, fmt.Errorf("%s: %w", name, err)
		}
		if len(pkgs) == 0 {
			return tracker.CatalogPackage{}, fmt.Errorf("%w: %s", tracker.ErrNotFound, name)
		}
		return pkgs[0], nil
	}

	return tracker.CatalogPackage{}, lastErr
}

// get performs a GET request and maps HTTP failures onto catalog errors
func (s *APISource) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", tracker.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", tracker.ErrNotFound, endpoint)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: rate limited (retry after %q)", tracker.ErrFetchFailed, resp.Header.Get("Retry-After"))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", tracker.ErrFetchFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordSize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: reading %s: %v", tracker.ErrFetchFailed, endpoint, err)
	}
	return body, nil
}

// Ensure APISource implements tracker.Source
var _ tracker.Source = (*APISource)(nil)
