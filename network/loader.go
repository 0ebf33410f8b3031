package network

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	applog "github.com/chrisuehlinger/glcontext/internal/log"
	"github.com/rs/zerolog"
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLocalPath resolves relative script sources against a directory.
func WithLocalPath(dir string) LoaderOption {
	return func(l *Loader) {
		l.localPath = dir
	}
}

// WithBaseURL resolves relative script sources against an http(s) URL.
// It takes precedence over WithLocalPath.
func WithBaseURL(base string) LoaderOption {
	return func(l *Loader) {
		l.baseURL = base
	}
}

// Loader loads external script sources from data: URLs, HTTP or the
// local filesystem.
type Loader struct {
	client    *Client
	localPath string
	baseURL   string
	logger    zerolog.Logger
}

// NewLoader creates a new script loader.
func NewLoader(client *Client, opts ...LoaderOption) *Loader {
	l := &Loader{
		client: client,
		logger: applog.WithComponent("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadScript returns the source text of the script at src.
func (l *Loader) LoadScript(ctx context.Context, src string) (string, error) {
	if IsDataURL(src) {
		d, err := ParseDataURL(src)
		if err != nil {
			return "", err
		}
		return string(d.Data), nil
	}

	if l.baseURL != "" {
		resolved, err := ResolveURL(l.baseURL, src)
		if err != nil {
			return "", fmt.Errorf("failed to resolve URL: %w", err)
		}
		src = resolved
	}

	if IsHTTPURL(src) {
		return l.loadHTTP(ctx, src)
	}
	return l.loadLocal(src)
}

func (l *Loader) loadHTTP(ctx context.Context, url string) (string, error) {
	if l.client == nil {
		return "", fmt.Errorf("load %s: no HTTP client", url)
	}
	resp, err := l.client.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("load %s: status %d", url, resp.StatusCode)
	}
	l.logger.Debug().Str("url", url).Int("bytes", len(resp.Body)).Msg("script fetched")
	return string(resp.Body), nil
}

func (l *Loader) loadLocal(src string) (string, error) {
	path := strings.TrimPrefix(src, "file://")
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.localPath, filepath.FromSlash(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", src, err)
	}
	l.logger.Debug().Str("path", path).Int("bytes", len(content)).Msg("script read")
	return string(content), nil
}
