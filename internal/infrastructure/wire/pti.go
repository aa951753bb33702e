package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MarketWire/internal/config"
	"MarketWire/internal/domain"
	"MarketWire/internal/scanner"
)

const (
	ptiTimeQueryLayout = "2006/01/02 15:04:05"
	ptiPublishedLayout = "Monday, Jan 2, 2006 15:04:05"
	ptiStateFile       = "pti_last_run"
)

// PTIScanner fetches wire articles from the PTI editorial JSON endpoint for
// the window since the previous successful run. The watermark lives in a
// small state file so restarts do not re-fetch the whole lookback window;
// re-delivered articles are harmless either way because the orchestrator
// dedups on content.
type PTIScanner struct {
	baseURL    string
	centerCode string
	window     time.Duration
	statePath  string
	loc        *time.Location
	client     *http.Client
	logger     *slog.Logger
}

var _ scanner.Source = (*PTIScanner)(nil)

// NewPTIScanner wires the endpoint settings; client defaults to a 30s-timeout client.
func NewPTIScanner(cfg config.WireConfig, loc *time.Location, client *http.Client, logger *slog.Logger) *PTIScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	window := time.Duration(cfg.WindowMinutes) * time.Minute
	if window <= 0 {
		window = 30 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PTIScanner{
		baseURL:    cfg.BaseURL,
		centerCode: cfg.CenterCode,
		window:     window,
		statePath:  filepath.Join(cfg.StateDir, ptiStateFile),
		loc:        loc,
		client:     client,
		logger:     logger,
	}
}

// Name identifies the strategy inside the registry.
func (p *PTIScanner) Name() string {
	return "pti"
}

// Fetch pulls all articles published between the watermark and req.Now.
func (p *PTIScanner) Fetch(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	now := req.Now.In(p.loc)
	from := p.lastRunTime(now)

	fetchURL, err := p.buildURL(from, now)
	if err != nil {
		return nil, err
	}

	p.debug("fetch window", "feed", req.FeedName, "from", from.Format(time.RFC3339), "to", now.Format(time.RFC3339))

	items, err := p.fetchItems(ctx, fetchURL)
	if err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(items))
	seen := map[string]struct{}{}
	for _, item := range items {
		article, ok := p.decodeItem(item, now)
		if !ok {
			continue
		}
		if _, dup := seen[article.FileID]; dup {
			continue
		}
		seen[article.FileID] = struct{}{}
		articles = append(articles, article)
	}

	p.saveRunTime(now)
	return articles, nil
}

func (p *PTIScanner) buildURL(from, to time.Time) (string, error) {
	parsed, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid wire base url %s: %w", p.baseURL, err)
	}

	query := parsed.Query()
	query.Set("centercode", p.centerCode)
	query.Set("FromTime", from.Format(ptiTimeQueryLayout))
	query.Set("EndTime", to.Format(ptiTimeQueryLayout))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (p *PTIScanner) fetchItems(ctx context.Context, fetchURL string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "MarketWire/1.0")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request wire feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wire feed returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read wire response: %w", err)
	}

	return parseFeedBody(raw)
}

// parseFeedBody tolerates the endpoint's two shapes (a bare array or an
// object with a Table field) and the ASMX habit of wrapping the JSON in a
// <string> element.
func parseFeedBody(raw []byte) ([]map[string]any, error) {
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return nil, nil
	}

	if strings.HasPrefix(body, "<") {
		body = strings.ReplaceAll(body, "<string>", "")
		body = strings.ReplaceAll(body, "</string>", "")
		if idx := strings.Index(body, "?>"); idx >= 0 {
			body = body[idx+2:]
		}
		body = strings.TrimSpace(body)
	}

	if body == "" || !(strings.HasPrefix(body, "[") || strings.HasPrefix(body, "{")) {
		return nil, fmt.Errorf("wire feed returned non-JSON payload")
	}

	if strings.HasPrefix(body, "[") {
		var items []map[string]any
		if err := json.Unmarshal([]byte(body), &items); err != nil {
			return nil, fmt.Errorf("decode wire array: %w", err)
		}
		return items, nil
	}

	var wrapped struct {
		Table []map[string]any `json:"Table"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
		return nil, fmt.Errorf("decode wire object: %w", err)
	}
	return wrapped.Table, nil
}

// decodeItem lifts the pipeline-relevant fields out of one wire row and
// preserves everything else verbatim as passthrough metadata.
func (p *PTIScanner) decodeItem(item map[string]any, now time.Time) (domain.Article, bool) {
	fields := map[string]string{}
	for key, value := range item {
		if s, ok := value.(string); ok {
			fields[key] = s
		}
	}

	fileID := strings.TrimSpace(fields["FileName"])
	if fileID == "" {
		return domain.Article{}, false
	}

	headline := strings.TrimSpace(fields["Headline"])
	body := StripHTML(fields["story"])
	if body == "" {
		body = headline
	}

	publishedAt := now
	if raw := strings.TrimSpace(fields["PublishedAt"]); raw != "" {
		if parsed, err := time.ParseInLocation(ptiPublishedLayout, raw, p.loc); err == nil {
			publishedAt = parsed
		}
	}

	passthrough := make(map[string]string, len(fields))
	for key, value := range fields {
		switch key {
		case "FileName", "Headline", "story":
			continue
		}
		passthrough[key] = value
	}

	return domain.Article{
		FileID:      fileID,
		Headline:    headline,
		Body:        body,
		PublishedAt: publishedAt,
		Passthrough: passthrough,
	}, true
}

// StripHTML extracts readable text from a wire story body. Paragraph nodes
// are preferred; plain text already passes through unchanged.
func StripHTML(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	if !strings.Contains(html, "<") {
		return html
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n\n")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (p *PTIScanner) lastRunTime(now time.Time) time.Time {
	raw, err := os.ReadFile(p.statePath)
	if err == nil {
		if last, perr := time.Parse(time.RFC3339, strings.TrimSpace(string(raw))); perr == nil {
			return last.In(p.loc)
		}
	}
	return now.Add(-p.window)
}

func (p *PTIScanner) saveRunTime(now time.Time) {
	if err := os.WriteFile(p.statePath, []byte(now.Format(time.RFC3339)), 0o644); err != nil {
		p.debug("cannot persist wire watermark", "path", p.statePath, "error", err)
	}
}

func (p *PTIScanner) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
