package directory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/dataflows"
)

// ideographicSpace separates code and name in the ISIN table's first column.
const ideographicSpace = "　"

type isinFetcher struct {
	client  *resty.Client
	url     string
	section string
	retry   *dataflows.RetryConfig
}

func newISINFetcher(cfg *config.Config) *isinFetcher {
	client := resty.New()
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; DivGo/1.0)")

	url := cfg.DirectoryURL
	if url == "" {
		url = config.DefaultDirectoryURL
	}
	section := cfg.DirectorySection
	if section == "" {
		section = "ETF"
	}

	return &isinFetcher{
		client:  client,
		url:     url,
		section: section,
		retry:   dataflows.DefaultRetryConfig(),
	}
}

// Fetch downloads the Big5 listing page and returns the rows of the
// configured section.
func (f *isinFetcher) Fetch(ctx context.Context) (map[string]string, error) {
	var result map[string]string
	err := dataflows.WithRetry(ctx, f.retry, func() error {
		resp, err := f.client.R().SetContext(ctx).Get(f.url)
		if err != nil {
			return fmt.Errorf("failed to fetch ISIN listing: %w", err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			return dataflows.Permanent(fmt.Errorf("ISIN listing not found at %s", f.url))
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("HTTP error %d when fetching ISIN listing", resp.StatusCode())
		}

		body := traditionalchinese.Big5.NewDecoder().Reader(bytes.NewReader(resp.Body()))
		parsed, err := ParseISINPage(body, f.section)
		if err != nil {
			return dataflows.Permanent(err)
		}
		result = parsed
		return nil
	})
	return result, err
}

// ParseISINPage extracts symbol to name pairs from a decoded ISIN listing.
// Single-cell rows are section headers; only rows under section are kept.
func ParseISINPage(r io.Reader, section string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	section = strings.TrimSpace(section)
	out := make(map[string]string)
	current := ""

	doc.Find("tr").Each(func(i int, s *goquery.Selection) {
		cells := s.Find("td")
		switch cells.Length() {
		case 0:
			return
		case 1:
			current = strings.TrimSpace(cells.First().Text())
			return
		}
		if !strings.EqualFold(current, section) {
			return
		}

		first := strings.TrimSpace(cells.First().Text())
		code, name, ok := strings.Cut(first, ideographicSpace)
		if !ok {
			return
		}
		code = strings.TrimSpace(code)
		name = strings.TrimSpace(name)
		if code == "" || name == "" {
			return
		}
		out[dataflows.NormalizeSymbol(code)] = name
	})

	return out, nil
}
