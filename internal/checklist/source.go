package checklist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ppiankov/triagem/internal/util"
)

// Source is the backing artifact a checklist is read from
type Source interface {
	// Name identifies the source in logs and snapshots
	Name() string

	// ModTime reports when the source last changed; zero when unknown
	ModTime(ctx context.Context) (time.Time, error)

	// Read returns the raw checklist document
	Read(ctx context.Context) ([]byte, error)
}

// FileSource reads the first existing file among ordered candidate paths
type FileSource struct {
	paths []string
}

// NewFileSource creates a FileSource probing paths in order
func NewFileSource(paths ...string) *FileSource {
	var clean []string
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return &FileSource{paths: clean}
}

// Name returns the resolved path, or the candidate list when none exists
func (s *FileSource) Name() string {
	if path, err := s.resolve(); err == nil {
		return path
	}
	return strings.Join(s.paths, ",")
}

// ModTime returns the modification time of the resolved file
func (s *FileSource) ModTime(ctx context.Context) (time.Time, error) {
	path, err := s.resolve()
	if err != nil {
		return time.Time{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: stat %s: %v", ErrSourceUnavailable, path, err)
	}
	return info.ModTime(), nil
}

// Read returns the contents of the resolved file
func (s *FileSource) Read(ctx context.Context) ([]byte, error) {
	path, err := s.resolve()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, path, err)
	}
	return data, nil
}

func (s *FileSource) resolve() (string, error) {
	for _, p := range s.paths {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	if len(s.paths) == 0 {
		return "", fmt.Errorf("%w: no checklist path configured", ErrSourceUnavailable)
	}
	return "", fmt.Errorf("%w: none of %s exists", ErrSourceUnavailable, strings.Join(s.paths, ", "))
}

// HTTPSource fetches a checklist over HTTP, using Last-Modified as its
// modification time
type HTTPSource struct {
	url        string
	httpClient *http.Client
	maxBytes   int64

	// set once the server answers HEAD with 405 or 501
	headUnsupported atomic.Bool
}

// NewHTTPSource creates a new HTTPSource. Proxy settings follow the
// same rules as the oracle clients.
func NewHTTPSource(rawURL string, timeout time.Duration, httpProxy, httpsProxy, noProxy string) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPSource{
		url: rawURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport(httpProxy, httpsProxy, noProxy),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxBytes: 5 * 1024 * 1024,
	}
}

// Name returns the checklist URL
func (s *HTTPSource) Name() string {
	return s.url
}

// ModTime issues a HEAD request and parses Last-Modified. Servers that
// reject HEAD report a zero time from then on, without further requests.
func (s *HTTPSource) ModTime(ctx context.Context) (time.Time, error) {
	if s.headUnsupported.Load() {
		return time.Time{}, nil
	}

	resp, err := s.send(ctx, http.MethodHead)
	if err != nil {
		return time.Time{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusMethodNotAllowed, resp.StatusCode == http.StatusNotImplemented:
		s.headUnsupported.Store(true)
		return time.Time{}, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return time.Time{}, unexpectedStatus(resp)
	}

	return lastModified(resp), nil
}

// Read fetches the checklist document with a size limit
func (s *HTTPSource) Read(ctx context.Context) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrSourceUnavailable, err)
	}
	return body, nil
}

func (s *HTTPSource) do(ctx context.Context, method string) (*http.Response, error) {
	resp, err := s.send(ctx, method)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, unexpectedStatus(resp)
	}
	return resp, nil
}

func (s *HTTPSource) send(ctx context.Context, method string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrSourceUnavailable, s.url, err)
	}
	return resp, nil
}

func unexpectedStatus(resp *http.Response) error {
	return fmt.Errorf("%w: unexpected status: %s", ErrSourceUnavailable, resp.Status)
}

func lastModified(resp *http.Response) time.Time {
	raw := resp.Header.Get("Last-Modified")
	if raw == "" {
		return time.Time{}
	}
	t, err := http.ParseTime(raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
