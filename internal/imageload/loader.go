// Package imageload fetches photo renditions and renders them as terminal
// half-block art for the grid.
package imageload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/snapgrid/internal/domain"
	"github.com/mmcdole/snapgrid/internal/metrics"
	"github.com/patrickmn/go-cache"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	defaultMaxBytes    = 10 * 1024 * 1024
	defaultRenderedTTL = 30 * time.Minute
	halfBlock          = "▀"
)

// Loader resolves image URLs through three tiers: rendered output in memory,
// raw bytes in the persistent store, then the network.
type Loader struct {
	httpClient *http.Client
	store      domain.ImageStore
	rendered   *cache.Cache
	metrics    *metrics.Metrics
	logger     *slog.Logger
	maxBytes   int64
}

// Option configures a Loader
type Option func(*Loader)

// WithHTTPClient sets the client used for downloads
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.httpClient = c }
}

// WithMetrics enables per-tier load accounting
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithMaxBytes caps the size of a downloaded image
func WithMaxBytes(n int64) Option {
	return func(l *Loader) { l.maxBytes = n }
}

// New creates a loader. store may be nil to skip the byte cache.
func New(store domain.ImageStore, logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
		rendered:   cache.New(defaultRenderedTTL, 2*defaultRenderedTTL),
		logger:     logger,
		maxBytes:   defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func renderKey(url string, width, height int) string {
	return fmt.Sprintf("%dx%d|%s", width, height, url)
}

// Cached returns a previously rendered image without doing any I/O
func (l *Loader) Cached(url string, width, height int) (string, bool) {
	if url == "" {
		return "", true
	}
	if v, ok := l.rendered.Get(renderKey(url, width, height)); ok {
		return v.(string), true
	}
	return "", false
}

// Load returns url rendered into a width x height cell block.
// An empty url renders as an empty string.
func (l *Loader) Load(ctx context.Context, url string, width, height int) (string, error) {
	if url == "" || width <= 0 || height <= 0 {
		return "", nil
	}

	key := renderKey(url, width, height)
	if v, ok := l.rendered.Get(key); ok {
		l.metrics.RecordImageLoad("memory")
		return v.(string), nil
	}

	data, fromStore, err := l.bytes(ctx, url)
	if err != nil {
		l.metrics.RecordImageLoad("error")
		l.logger.Warn("image load failed", "url", url, "error", err)
		return "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		l.metrics.RecordImageLoad("error")
		l.logger.Warn("image decode failed", "url", url, "stored", fromStore, "error", err)
		if fromStore {
			l.evict(url)
		}
		return "", fmt.Errorf("decode image: %w", err)
	}
	l.logger.Debug("image decoded", "url", url, "format", format, "bounds", img.Bounds().String())

	// Only bytes that decode are worth keeping
	if !fromStore && l.store != nil {
		if err := l.store.SaveImage(url, data); err != nil {
			l.logger.Warn("failed to cache image", "url", url, "error", err)
		}
	}

	out := Render(img, width, height)
	l.rendered.Set(key, out, cache.DefaultExpiration)
	return out, nil
}

// bytes returns the raw image, from the store when possible
func (l *Loader) bytes(ctx context.Context, url string) (data []byte, fromStore bool, err error) {
	if l.store != nil {
		if data, ok := l.store.GetImage(url); ok {
			l.metrics.RecordImageLoad("store")
			return data, true, nil
		}
	}

	data, err = l.download(ctx, url)
	if err != nil {
		return nil, false, err
	}
	l.metrics.RecordImageLoad("network")
	return data, false, nil
}

// evict drops stored bytes that no longer decode so the next load refetches
func (l *Loader) evict(url string) {
	if err := l.store.DeleteImage(url); err != nil {
		l.logger.Warn("failed to evict cached image", "url", url, "error", err)
	}
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fetch image: empty body")
	}
	return data, nil
}

// Render draws img into width x height terminal cells. Each cell shows two
// vertically stacked pixels: the upper half as foreground of "▀" and the
// lower half as background. The source is center-cropped to fill the block.
func Render(img image.Image, width, height int) string {
	if img == nil || width <= 0 || height <= 0 {
		return ""
	}

	pw, ph := width, height*2
	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, cropRect(img.Bounds(), pw, ph), draw.Src, nil)

	var sb strings.Builder
	for y := 0; y < ph; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < pw; x++ {
			style := lipgloss.NewStyle().
				Foreground(hexColor(dst.RGBAAt(x, y))).
				Background(hexColor(dst.RGBAAt(x, y+1)))
			sb.WriteString(style.Render(halfBlock))
		}
	}
	return sb.String()
}

// cropRect returns the largest centered region of b with aspect w:h
func cropRect(b image.Rectangle, w, h int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return b
	}
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := b.Min.X + (sw-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := sw * h / w
	y0 := b.Min.Y + (sh-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
