// Package kbbi talks to the online Kamus Besar Bahasa Indonesia and adapts it
// to the dialog's lookup gateway contract.
package kbbi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	loginPath = "/Account/Login"
	entryPath = "/entri/"

	verificationTokenField = "__RequestVerificationToken"
)

// ErrNotFound reports that the dictionary has no entry for the word.
var ErrNotFound = errors.New("kbbi: entri tidak ditemukan")

// ErrDailyLimit reports that the provider refused the search because the
// request quota for this session was exhausted.
var ErrDailyLimit = errors.New("kbbi: batas pencarian harian tercapai")

// Client scrapes kbbi.kemdikbud.go.id. The zero credentials case works as an
// anonymous session; Login upgrades the session via the site's account form.
// The HTTP client must carry a cookie jar so the session survives.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client against baseURL using the provided HTTP client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Login authenticates the session with a KBBI account. It fetches the login
// form for its anti-forgery token and then submits the credentials.
func (c *Client) Login(ctx context.Context, username, password string) error {
	token, err := c.fetchVerificationToken(ctx)
	if err != nil {
		return fmt.Errorf("kbbi: fetch login form: %w", err)
	}

	form := url.Values{}
	form.Set(verificationTokenField, token)
	form.Set("Posel", username)
	form.Set("KataSandi", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("kbbi: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kbbi: login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kbbi: login status %s", resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("kbbi: parse login response: %w", err)
	}
	if doc.Find(".validation-summary-errors").Length() > 0 {
		return fmt.Errorf("kbbi: login rejected for %s", username)
	}
	return nil
}

// Lookup fetches the entry page for word and returns its definitions as one
// display string. It returns ErrNotFound when the dictionary has no entry.
func (c *Client) Lookup(ctx context.Context, word string) (string, error) {
	target := c.baseURL + entryPath + url.PathEscape(strings.TrimSpace(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("kbbi: build entry request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("kbbi: entry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("kbbi: entry status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("kbbi: parse entry page: %w", err)
	}

	page := doc.Text()
	if strings.Contains(page, "Entri tidak ditemukan") {
		return "", ErrNotFound
	}
	if strings.Contains(page, "Batas Sehari") || strings.Contains(page, "telah mencapai batas") {
		return "", ErrDailyLimit
	}

	definitions := parseDefinitions(doc)
	if len(definitions) == 0 {
		return "", ErrNotFound
	}
	return formatDefinitions(definitions), nil
}

func (c *Client) fetchVerificationToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+loginPath, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %s", resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	token, ok := doc.Find(`input[name="` + verificationTokenField + `"]`).Attr("value")
	if !ok || token == "" {
		return "", errors.New("verification token not found")
	}
	return token, nil
}

// parseDefinitions extracts the definition list items of an entry page. The
// site renders senses as ordered list items and single-sense entries inside
// an adjusted paragraph list.
func parseDefinitions(doc *goquery.Document) []string {
	var defs []string
	doc.Find("ol > li, ul.adjusted-par > li").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" {
			defs = append(defs, text)
		}
	})
	return defs
}

func formatDefinitions(defs []string) string {
	if len(defs) == 1 {
		return defs[0]
	}
	var b strings.Builder
	for i, d := range defs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, d)
	}
	return b.String()
}
