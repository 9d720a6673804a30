// Package extract pulls transcript text out of non-plain sources: PDF files
// and web pages. Used by the CLI so agents can feed exported call records
// straight into the analyzer.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

const (
	fetchTimeout = 10 * time.Second
	maxFetchSize = 5 << 20 // 5MB
)

// FromPDF extracts the plain text of a PDF file.
func FromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, reader); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("pdf %s contains no extractable text", path)
	}
	return text, nil
}

// FromURL fetches a page and reduces it to its visible text.
func FromURL(ctx context.Context, client *http.Client, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	text, err := HTMLToText(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", url, err)
	}
	if text == "" {
		return "", fmt.Errorf("page %s contains no text", url)
	}
	return text, nil
}

// HTMLToText strips markup, returning the document's visible text with
// whitespace collapsed. Script and style contents are dropped.
func HTMLToText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)

	var parts []string
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.Join(parts, " "), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			if skipTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skipTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if t := strings.Join(strings.Fields(string(z.Text())), " "); t != "" {
				parts = append(parts, t)
			}
		}
	}
}

func skipTag(name string) bool {
	switch name {
	case "script", "style", "noscript":
		return true
	}
	return false
}
