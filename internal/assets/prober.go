// Package assets resolves furniture image references and reports their
// natural pixel size without decoding the full image.
//
// Supported references:
//
//	asset:<id>           an uploaded image in the asset store
//	data:<mime>;base64,  an inline data URL
//	http(s)://...        a remote image
package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedRef is returned for references with an unknown scheme.
var ErrUnsupportedRef = errors.New("unsupported image reference")

// AssetPrefix marks references into the asset store.
const AssetPrefix = "asset:"

// Opener opens stored assets by id.
type Opener interface {
	Open(id string) (io.ReadCloser, error)
}

// Prober reads image headers.
type Prober struct {
	store    Opener
	client   *http.Client
	maxBytes int64
	remote   bool
	logger   *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient replaces the client used for remote images.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) { p.client = c }
}

// WithRemoteImages enables or disables http(s) image references.
func WithRemoteImages(allow bool) Option {
	return func(p *Prober) { p.remote = allow }
}

// WithMaxBytes caps how much of an image is read.
func WithMaxBytes(n int64) Option {
	return func(p *Prober) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProber creates a prober. store may be nil when no asset store exists.
func NewProber(store Opener, opts ...Option) *Prober {
	p := &Prober{
		store:    store,
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: 32 << 20,
		remote:   true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type probeResult struct {
	width, height int
	format        string
	err           error
}

// Probe returns the natural width and height of the referenced image.
// It gives up when ctx ends.
func (p *Prober) Probe(ctx context.Context, ref string) (int, int, error) {
	done := make(chan probeResult, 1)
	go func() {
		done <- p.probe(ctx, ref)
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return 0, 0, res.err
		}
		p.logger.Debug("image probed", "ref", shorten(ref), "format", res.format, "width", res.width, "height", res.height)
		return res.width, res.height, nil
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("probing %s: %w", shorten(ref), ctx.Err())
	}
}

func (p *Prober) probe(ctx context.Context, ref string) probeResult {
	r, err := p.open(ctx, ref)
	if err != nil {
		return probeResult{err: err}
	}
	defer r.Close()

	cfg, format, err := image.DecodeConfig(io.LimitReader(r, p.maxBytes))
	if err != nil {
		return probeResult{err: fmt.Errorf("decoding %s: %w", shorten(ref), err)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return probeResult{err: fmt.Errorf("image %s has no size", shorten(ref))}
	}
	return probeResult{width: cfg.Width, height: cfg.Height, format: format}
}

func (p *Prober) open(ctx context.Context, ref string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(ref, AssetPrefix):
		if p.store == nil {
			return nil, fmt.Errorf("no asset store for %s: %w", ref, ErrUnsupportedRef)
		}
		return p.store.Open(strings.TrimPrefix(ref, AssetPrefix))
	case strings.HasPrefix(ref, "data:"):
		data, err := DecodeDataURL(ref)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(strings.NewReader(string(data))), nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		if !p.remote {
			return nil, fmt.Errorf("remote images disabled for %s: %w", shorten(ref), ErrUnsupportedRef)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", ref, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetching %s: status %d", ref, resp.StatusCode)
		}
		return resp.Body, nil
	}
	return nil, fmt.Errorf("%q: %w", shorten(ref), ErrUnsupportedRef)
}

// DecodeDataURL returns the payload of a data: URL.
func DecodeDataURL(ref string) ([]byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, ErrUnsupportedRef
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding data URL: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URL: %w", err)
	}
	return []byte(s), nil
}

func shorten(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
