package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Login establishes an authenticated session. It fetches the login page,
// lifts the anti-forgery token out of the markup, and submits the
// credentials as a form POST. Success is judged heuristically by searching
// the response for authenticated-session markers; a miss is only a warning,
// since the markers are a moving target and the download attempt is the
// real test. Transport failures are fatal.
func (c *Client) Login(ctx context.Context, username, password string) error {
	page, _, err := c.fetch(ctx, c.cfg.LoginURL, "text/html,application/xhtml+xml,*/*", "")
	if err != nil {
		return fmt.Errorf("failed to fetch login page: %w", err)
	}

	token := c.extractToken(page)
	if token == "" {
		log.Printf("[portal] no anti-forgery token found on login page, submitting without one")
	}

	form := url.Values{}
	form.Set(c.cfg.UsernameField, username)
	form.Set(c.cfg.PasswordField, password)
	if token != "" && c.cfg.TokenField != "" {
		form.Set(c.cfg.TokenField, token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.cfg.LoginURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	if !containsFoldAny(string(body), c.cfg.LoginMarkers) {
		// Possibly a false negative; the download will fail soon enough if
		// the session really is unauthenticated.
		log.Printf("[portal] warning: no login markers %v found in response, continuing anyway", c.cfg.LoginMarkers)
	} else {
		log.Printf("[portal] login looks successful")
	}

	return nil
}

// extractToken pulls the anti-forgery token from the login page markup:
// the configured input field first, then any input whose name mentions
// "token", then a csrf meta tag. Missing token yields "".
func (c *Client) extractToken(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		log.Printf("[portal] failed to parse login page markup: %v", err)
		return ""
	}

	if c.cfg.TokenField != "" {
		sel := doc.Find(fmt.Sprintf("input[name='%s']", c.cfg.TokenField))
		if v, ok := sel.First().Attr("value"); ok && v != "" {
			return v
		}
	}

	token := ""
	doc.Find("input").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if strings.Contains(strings.ToLower(name), "token") {
			if v, ok := s.Attr("value"); ok && v != "" {
				token = v
				return false
			}
		}
		return true
	})
	if token != "" {
		return token
	}

	if v, ok := doc.Find("meta[name='csrf-token']").First().Attr("content"); ok {
		return v
	}
	return ""
}
