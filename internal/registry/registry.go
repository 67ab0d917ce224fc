// Package registry resolves the universe of listed tickers from the
// exchange's public ISIN listing page.
package registry

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// Options describes where in the registry table each field lives.
type Options struct {
	TableClass     string
	TickerColumn   int
	NameColumn     int
	IndustryColumn int
	Suffix         string
}

// DefaultOptions matches the TWSE listed-equities page.
func DefaultOptions() Options {
	return Options{
		TableClass:     "h4",
		TickerColumn:   1,
		NameColumn:     2,
		IndustryColumn: 3,
		Suffix:         ".TW",
	}
}

// Client fetches and parses the ticker registry.
type Client struct {
	source PageSource
	opts   Options
	logger *slog.Logger
}

// NewClient creates a registry client reading pages from source
func NewClient(source PageSource, opts Options, logger *slog.Logger) *Client {
	return &Client{
		source: source,
		opts:   opts,
		logger: logger.With(slog.String("component", "registry")),
	}
}

// FetchTickers retrieves the registry page at url and returns every listed
// security in page order. The list is fetched fresh on every call.
func (c *Client) FetchTickers(ctx context.Context, url string) ([]domain.TickerInfo, error) {
	start := time.Now()

	body, contentType, err := c.source.Fetch(ctx, url)
	if err != nil {
		return nil, apperrors.NewRegistryUnavailableError(url, err)
	}

	tickers, err := Parse(body, contentType, c.opts)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "ticker registry fetched",
		slog.Int("tickers", len(tickers)),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))

	return tickers, nil
}

// Parse extracts ticker rows from a registry page. contentType may carry a
// charset; the page is transcoded to UTF-8 before parsing.
func Parse(body []byte, contentType string, opts Options) ([]domain.TickerInfo, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, apperrors.NewRegistryFormatError(fmt.Sprintf("decode registry page: %v", err))
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, apperrors.NewRegistryFormatError(fmt.Sprintf("parse registry page: %v", err))
	}

	table := findTable(doc, opts.TableClass)
	if table == nil {
		return nil, apperrors.NewRegistryFormatError(fmt.Sprintf("registry table with class %q not found", opts.TableClass))
	}

	need := max(opts.TickerColumn, opts.NameColumn, opts.IndustryColumn) + 1
	tickers := make([]domain.TickerInfo, 0, 256)

	for i, row := range rows(table) {
		if i == 0 {
			continue // header
		}
		cells := cellTexts(row)
		if len(cells) < need {
			continue
		}
		code := cells[opts.TickerColumn]
		if code == "" {
			continue
		}
		tickers = append(tickers, domain.TickerInfo{
			Ticker:   code + opts.Suffix,
			Name:     cells[opts.NameColumn],
			Industry: cells[opts.IndustryColumn],
		})
	}

	return tickers, nil
}

func findTable(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Table && hasClass(n, class) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if t := findTable(child, class); t != nil {
			return t
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// rows returns the table's rows in document order, skipping nested tables.
func rows(table *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			switch child.DataAtom {
			case atom.Tr:
				out = append(out, child)
			case atom.Table:
				// nested table
			default:
				walk(child)
			}
		}
	}
	walk(table)
	return out
}

// cellTexts returns the trimmed text of each td cell. Header rows built from
// th cells therefore produce no cells.
func cellTexts(tr *html.Node) []string {
	var cells []string
	for child := tr.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == atom.Td {
			cells = append(cells, strings.TrimSpace(textOf(child)))
		}
	}
	return cells
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.ReplaceAll(b.String(), "\u00a0", " ")
}
