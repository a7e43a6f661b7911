// Package source loads image bytes from local paths or http(s) URLs and
// decodes them into bitmaps.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/AnyUserName/blogimg-cli/internal/hasher"
)

// DefaultTimeout bounds a single URL download.
const DefaultTimeout = 20 * time.Second

// maxDownloadBytes caps a downloaded image.
const maxDownloadBytes = 64 << 20

// Image is a loaded but not yet decoded source.
type Image struct {
	// Ref is the path or URL as given.
	Ref string
	// Stem names the output file (no directory, no extension).
	Stem string
	// Dir is the source's directory for local files, empty for URLs.
	Dir string
	// Data holds the raw encoded bytes.
	Data []byte
}

// IsURL reports whether ref is fetched over HTTP.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Loader reads sources. The zero value uses http.DefaultClient and
// DefaultTimeout.
type Loader struct {
	Client  *http.Client
	Timeout time.Duration
}

// Load reads ref from disk or downloads it.
func (l *Loader) Load(ctx context.Context, ref string) (*Image, error) {
	if IsURL(ref) {
		return l.fetch(ctx, ref)
	}

	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	base := filepath.Base(abs)
	return &Image{
		Ref:  ref,
		Stem: strings.TrimSuffix(base, filepath.Ext(base)),
		Dir:  filepath.Dir(abs),
		Data: data,
	}, nil
}

func (l *Loader) fetch(ctx context.Context, ref string) (*Image, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", ref, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download %s: unexpected status %s", ref, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", ref, err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("download %s: body exceeds %d bytes", ref, maxDownloadBytes)
	}

	return &Image{Ref: ref, Stem: URLStem(ref), Data: data}, nil
}

// URLStem derives an output name from the last path segment of a URL,
// ignoring the query. URLs without a usable segment get "image-<hash>".
func URLStem(ref string) string {
	if u, err := url.Parse(ref); err == nil {
		base := path.Base(u.Path)
		stem := strings.TrimSuffix(base, path.Ext(base))
		if stem != "" && stem != "." && stem != "/" {
			return stem
		}
	}
	return "image-" + hasher.StringHash(ref, 8)
}
