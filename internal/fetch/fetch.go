// Package fetch runs the shell's outbound HTTP requests. Requests are fired
// in the background; their results are written to an Outbox instead of being
// returned to the dispatcher.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/tecnoter/ttsh/internal/ansi"
	"github.com/tecnoter/ttsh/internal/logging"
	"github.com/tecnoter/ttsh/internal/output"
)

// MaxDisplayBytes caps the body curl prints.
const MaxDisplayBytes = 2000

const truncatedSuffix = "... [TRUNCATED]"

// HTTPClient is the capability Fetcher uses to perform requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher performs background requests on behalf of one session. Requests
// end when ctx is cancelled; there is no other timeout.
type Fetcher struct {
	ctx    context.Context
	client HTTPClient
	outbox *Outbox
	log    logging.Logger
	wg     sync.WaitGroup
}

// New creates a Fetcher writing to outbox. A nil client uses
// http.DefaultClient and a nil logger uses logging.Std.
func New(ctx context.Context, client HTTPClient, outbox *Outbox, logger logging.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{ctx: ctx, client: client, outbox: outbox, log: logging.OrStd(logger)}
}

// Wait blocks until every request started so far has finished.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

// ContentURL is the JSON rendition of a content item's page.
func ContentURL(itemURL string) string {
	if strings.HasSuffix(itemURL, "/") {
		return itemURL + "index.json"
	}
	return itemURL + "/index.json"
}

// hugoContent is the JSON output format the content site publishes.
type hugoContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FetchContent reads the JSON rendition of a content item in the background
// and prints its title and body.
func (f *Fetcher) FetchContent(itemURL string, debug bool) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.fetchContent(ContentURL(itemURL), debug)
	}()
}

func (f *Fetcher) fetchContent(target string, debug bool) {
	if debug {
		f.log.Printf("DEBUG: cat: fetching %s", target)
	}
	req, err := http.NewRequestWithContext(f.ctx, http.MethodGet, target, nil)
	if err != nil {
		f.print("cat: invalid request sequence")
		return
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.print(fmt.Sprintf("cat: network error fetching %s", target))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.log.Printf("ERROR: cat: error %d loading %s", resp.StatusCode, target)
		f.print(fmt.Sprintf("cat: error %d loading %s", resp.StatusCode, target))
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.print(fmt.Sprintf("cat: network error fetching %s", target))
		return
	}

	var item hugoContent
	if err := json.Unmarshal(body, &item); err != nil {
		if debug {
			f.log.Printf("DEBUG: cat: JSON parse error: %v", err)
		}
		f.print(string(body))
		return
	}

	f.print(fmt.Sprintf("\n# %s\n", item.Title))
	f.print(renderContent(item.Content))
}

// FetchURL downloads url in the background and prints at most
// MaxDisplayBytes of it. HTML is reduced to its text.
func (f *Fetcher) FetchURL(rawURL string, debug bool) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.fetchURL(rawURL, debug)
	}()
}

func (f *Fetcher) fetchURL(rawURL string, debug bool) {
	if debug {
		f.log.Printf("DEBUG: curl: fetching %s", rawURL)
	}
	if !f.print(fmt.Sprintf("fetching %s...", rawURL)) {
		return
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		f.print("curl: invalid URL")
		return
	}
	req, err := http.NewRequestWithContext(f.ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		f.print("curl: invalid URL")
		return
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.print("curl: network error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.log.Printf("ERROR: curl: error %d fetching %s", resp.StatusCode, rawURL)
		f.print(fmt.Sprintf("curl: error %d", resp.StatusCode))
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.print("curl: failed to parse response")
		return
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		if extracted, err := extractText(text); err == nil {
			text = extracted
		}
	}
	// Escape sequences from upstream are never passed through.
	f.print(Truncate(ansi.StripAnsi(text), MaxDisplayBytes))
}

func (f *Fetcher) print(text string) bool {
	return f.outbox.Send(f.ctx, output.Text(text))
}

// Truncate clips s to at most limit bytes, backing off to a rune boundary,
// and marks the cut.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedSuffix
}

// renderContent turns an HTML content body into Markdown. Bodies that are
// not HTML, or fail to convert, are returned unchanged.
func renderContent(content string) string {
	if !strings.Contains(content, "<") {
		return content
	}
	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		HorizontalRule:   "---",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		EmDelimiter:      "*",
	})
	converter.Remove("script", "style", "meta", "link")

	markdown, err := converter.ConvertString(content)
	if err != nil {
		return content
	}
	return markdown
}

// extractText returns the visible text of an HTML document with blank lines
// collapsed.
func extractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, iframe, object, embed").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
