package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/oinktech/StockAPI/internal/httpx"
)

// PageSource retrieves the raw registry page. The returned content type is
// used to detect the page encoding.
type PageSource interface {
	Fetch(ctx context.Context, url string) (body []byte, contentType string, err error)
}

// HTTPSource fetches the registry page with a plain GET.
type HTTPSource struct {
	Client *httpx.Client
}

// Fetch implements PageSource
func (s *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	return s.Client.Get(ctx, url)
}

// ChromeSource renders the registry page in headless Chrome and returns the
// resulting DOM. Use it for registries that build their listing client-side.
type ChromeSource struct {
	Timeout   time.Duration
	WaitReady string
	Logger    *slog.Logger
}

// Fetch implements PageSource
func (s *ChromeSource) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, s.Timeout)
		defer cancel()
	}

	waitFor := s.WaitReady
	if waitFor == "" {
		waitFor = "body"
	}

	start := time.Now()
	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(waitFor, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, "", fmt.Errorf("render registry page: %w", err)
	}

	if s.Logger != nil {
		s.Logger.DebugContext(ctx, "registry page rendered",
			slog.String("url", url),
			slog.Int("bytes", len(html)),
			slog.Duration("duration", time.Since(start)))
	}

	// The DOM is serialized by the browser as UTF-8 regardless of the source encoding.
	return []byte(html), "text/html; charset=utf-8", nil
}
