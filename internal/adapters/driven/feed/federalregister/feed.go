// Package federalregister provides a document feed adapter that pulls
// Executive Orders from the Federal Register API.
package federalregister

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
	"github.com/policypal/policypal/internal/logger"
)

// Ensure Feed implements the interface.
var _ driven.DocumentFeed = (*Feed)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://www.federalregister.gov/api/v1"
	DefaultTimeout = 60 * time.Second
	DefaultPerPage = 100

	// DefaultRequestsPerSecond keeps the feed well inside the Federal
	// Register's public rate limit.
	DefaultRequestsPerSecond = 2
)

// Config holds configuration for the Federal Register feed.
type Config struct {
	// BaseURL is the API base URL (default: https://www.federalregister.gov/api/v1).
	BaseURL string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// PerPage is the listing page size (default: 100, the API maximum).
	PerPage int

	// RequestsPerSecond throttles all outgoing requests, including the
	// per-order raw text fetches (default: 2).
	RequestsPerSecond float64
}

// Feed fetches Executive Orders from the Federal Register API. The API
// lists order metadata; the full text is fetched separately per order
// from its raw text URL.
type Feed struct {
	client  *http.Client
	baseURL string
	perPage int
	limiter *rate.Limiter
}

// listResponse is the Federal Register documents listing format.
type listResponse struct {
	Count       int          `json:"count"`
	NextPageURL string       `json:"next_page_url"`
	Results     []listResult `json:"results"`
}

// listResult is one order in a listing page.
type listResult struct {
	ExecutiveOrderNumber json.Number `json:"executive_order_number"`
	Title                string      `json:"title"`
	RawTextURL           string      `json:"raw_text_url"`
	HTMLURL              string      `json:"html_url"`
	SigningDate          string      `json:"signing_date"`
	PublicationDate      string      `json:"publication_date"`
	President            *presidentRef `json:"president"`
}

// presidentRef is the API's nested president record.
type presidentRef struct {
	Name string `json:"name"`
}

// NewFeed creates a new Federal Register feed.
func NewFeed(cfg Config) *Feed {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Feed{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		perPage: cfg.PerPage,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Fetch returns the Executive Orders published in the given year,
// following listing pagination and fetching each order's full text.
// Orders missing a number, a signing date or a text URL are skipped
// with a warning; a failing page or text fetch aborts the whole fetch.
func (f *Feed) Fetch(ctx context.Context, year int) ([]domain.Document, error) {
	logger.Section("Federal Register Fetch")
	logger.Info("Fetching Executive Orders for %d", year)

	var docs []domain.Document

	pageURL := f.listURL(year)
	for pageURL != "" {
		var page listResponse
		if err := f.getJSON(ctx, pageURL, &page); err != nil {
			return nil, fmt.Errorf("federalregister: listing orders: %w", err)
		}
		logger.Debug("Page returned %d of %d orders", len(page.Results), page.Count)

		for _, result := range page.Results {
			doc, ok, err := f.buildDocument(ctx, result)
			if err != nil {
				return nil, err
			}
			if ok {
				docs = append(docs, doc)
			}
		}
		pageURL = page.NextPageURL
	}

	logger.Info("Fetched %d Executive Orders for %d", len(docs), year)
	return docs, nil
}

// buildDocument turns one listing result into a full document, fetching
// its raw text. Returns ok=false for results that cannot be ingested.
func (f *Feed) buildDocument(ctx context.Context, result listResult) (domain.Document, bool, error) {
	orderNumber := result.ExecutiveOrderNumber.String()
	if orderNumber == "" {
		logger.Warn("Skipping order without a number: %q", result.Title)
		return domain.Document{}, false, nil
	}
	if result.RawTextURL == "" {
		logger.Warn("Order %s has no raw text URL, skipping", orderNumber)
		return domain.Document{}, false, nil
	}

	published, err := parseDate(result.SigningDate, result.PublicationDate)
	if err != nil {
		logger.Warn("Order %s has no usable date, skipping: %v", orderNumber, err)
		return domain.Document{}, false, nil
	}

	fullText, err := f.getText(ctx, result.RawTextURL)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("federalregister: order %s text: %w", orderNumber, err)
	}

	president, administration := presidentAndAdministration(result.President)

	logger.Debug("Fetched order %s: %s (%s)", orderNumber, result.Title, president)
	return domain.Document{
		OrderNumber:    orderNumber,
		Title:          result.Title,
		President:      president,
		Administration: administration,
		URL:            result.HTMLURL,
		PublishedDate:  published,
		FullText:       fullText,
	}, true, nil
}

// listURL builds the year-filtered executive order listing URL.
func (f *Feed) listURL(year int) string {
	params := url.Values{}
	params.Add("conditions[type][]", "PRESDOCU")
	params.Add("conditions[presidential_document_type][]", "executive_order")
	params.Add("conditions[correction]", "0")
	params.Add("conditions[publication_date][year]", fmt.Sprintf("%d", year))
	for _, field := range []string{
		"executive_order_number", "title", "raw_text_url", "html_url",
		"signing_date", "publication_date", "president",
	} {
		params.Add("fields[]", field)
	}
	params.Set("per_page", fmt.Sprintf("%d", f.perPage))
	params.Set("order", "executive_order_number")

	return f.baseURL + "/documents.json?" + params.Encode()
}

// getJSON performs a rate-limited GET and decodes the JSON response.
func (f *Feed) getJSON(ctx context.Context, rawURL string, out any) error {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// getText performs a rate-limited GET and returns the body verbatim.
func (f *Feed) getText(ctx context.Context, rawURL string) (string, error) {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (f *Feed) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// parseDate prefers the signing date and falls back to the publication
// date. Both are ISO dates in the API.
func parseDate(signing, publication string) (time.Time, error) {
	for _, s := range []string{signing, publication} {
		if s == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no parseable date in %q/%q", signing, publication)
}

// presidentAndAdministration derives display metadata from the API's
// president record. The label is stable across an order's whole term so
// corpus summaries group by administration, not by year.
func presidentAndAdministration(p *presidentRef) (string, string) {
	if p == nil || p.Name == "" {
		return "Unknown", "Unknown Administration"
	}
	return p.Name, surname(p.Name) + " Administration"
}

// surname picks the family name, skipping generational suffixes
// ("Joseph R. Biden Jr." -> "Biden").
func surname(name string) string {
	parts := strings.Fields(name)
	for i := len(parts) - 1; i >= 0; i-- {
		switch strings.TrimSuffix(strings.ToLower(parts[i]), ".") {
		case "jr", "sr", "ii", "iii", "iv":
			continue
		}
		return parts[i]
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
