// Package fonts provides the font catalog backing the text style panel:
// the Google Webfonts listing with a small fixed fallback so item
// creation and editing never block on catalog availability.
package fonts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultAPIBase = "https://www.googleapis.com/webfonts/v1/webfonts"

// Font is one catalog entry.
type Font struct {
	Family   string   `json:"family"`
	Variants []string `json:"variants"`
	Category string   `json:"category"`
}

// fallbackFonts is served whenever the upstream catalog is unreachable
// or unconfigured.
var fallbackFonts = []Font{
	{Family: "Roboto", Variants: []string{"regular", "700"}, Category: "sans-serif"},
	{Family: "Open Sans", Variants: []string{"regular", "700"}, Category: "sans-serif"},
	{Family: "Lato", Variants: []string{"regular", "700"}, Category: "sans-serif"},
	{Family: "Playfair Display", Variants: []string{"regular", "700"}, Category: "serif"},
	{Family: "Source Code Pro", Variants: []string{"regular"}, Category: "monospace"},
}

// Catalog lists available fonts, sorted by popularity upstream.
type Catalog struct {
	apiKey  string
	apiBase string
	client  *http.Client
	log     *logrus.Entry
}

// NewCatalog builds a catalog client. An empty API key is allowed; the
// catalog then always serves the fallback list.
func NewCatalog(apiKey string) *Catalog {
	return &Catalog{
		apiKey:  apiKey,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     logrus.WithField("component", "fonts"),
	}
}

// List returns the catalog, degrading to the fixed fallback list on any
// failure. It never returns an error: the editor must not block on the
// catalog.
func (c *Catalog) List(ctx context.Context) []Font {
	if c.apiKey == "" {
		return fallbackFonts
	}

	endpoint := fmt.Sprintf("%s?key=%s&sort=popularity", c.apiBase, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.WithError(err).Warn("Font catalog request build failed")
		return fallbackFonts
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("Font catalog unreachable, serving fallback list")
		return fallbackFonts
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.WithField("status", resp.StatusCode).Warn("Font catalog error, serving fallback list")
		return fallbackFonts
	}

	var payload struct {
		Items []Font `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.WithError(err).Warn("Font catalog response unreadable, serving fallback list")
		return fallbackFonts
	}
	if len(payload.Items) == 0 {
		return fallbackFonts
	}
	return payload.Items
}

// StylesheetURL resolves a family to its loadable CSS location. It is a
// pure function and works even when the catalog itself is down.
func StylesheetURL(family string) string {
	return fmt.Sprintf("https://fonts.googleapis.com/css2?family=%s&display=swap",
		strings.ReplaceAll(strings.TrimSpace(family), " ", "+"))
}
