package linkedin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
)

// AuthStatus reports the session's authorization state.
type AuthStatus struct {
	LoggedIn    bool
	AccountName string
	URL         string
}

// isGuest inspects the current page without navigating. Conservative:
// only a guest redirect URL or a guest marker with no signed-in nav
// counts, so a slow-loading page is not mistaken for a lost session.
func (c *Client) isGuest(page *rod.Page) bool {
	url := c.currentURL(page)
	if strings.Contains(url, loginPath) || strings.Contains(url, "/signup") || strings.Contains(url, "/authwall") {
		return true
	}
	if els, _, _ := c.elements(page, c.sel.guest); len(els) > 0 {
		if navEls, _, _ := c.elements(page, c.sel.nav); len(navEls) == 0 {
			return true
		}
	}
	return false
}

// CheckLogin navigates to the home page if needed and reports whether a
// session is active, including the account holder's name when it can be
// read off the page.
func (c *Client) CheckLogin(ctx context.Context) (*AuthStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.page()
	if err != nil {
		return nil, err
	}
	page = page.Context(ctx)

	url := c.currentURL(page)
	if !strings.HasPrefix(url, c.cfg.BaseURL) {
		if err := page.Timeout(c.cfg.NavTimeout).Navigate(c.cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", c.cfg.BaseURL, err)
		}
		page.Timeout(c.cfg.NavTimeout).WaitLoad()
	}

	status := &AuthStatus{URL: c.currentURL(page)}

	// The signed-in nav appears quickly when a session exists; a short
	// wait is enough to tell the two states apart.
	if err := c.waitAnyVisible(page, c.sel.nav, 3*time.Second); err != nil {
		fmt.Printf("[Auth] Not logged in (no nav bar)\n")
		return status, nil
	}
	if c.isGuest(page) {
		fmt.Printf("[Auth] Not logged in (guest page)\n")
		status.URL = c.currentURL(page)
		return status, nil
	}

	status.LoggedIn = true
	status.AccountName = c.accountName(page)
	if status.AccountName != "" {
		fmt.Printf("[Auth] Logged in as %s\n", status.AccountName)
	} else {
		fmt.Printf("[Auth] Logged in\n")
	}
	return status, nil
}

// SignOut clears cookies, cache, and derived lookups, then reloads so
// the page lands on the guest experience. Safe to call when already
// signed out.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.page()
	if err != nil {
		return err
	}
	page = page.Context(ctx)

	if !strings.HasPrefix(c.currentURL(page), c.cfg.BaseURL) {
		if err := page.Timeout(c.cfg.NavTimeout).Navigate(c.cfg.BaseURL); err != nil {
			return fmt.Errorf("failed to open %s: %w", c.cfg.BaseURL, err)
		}
		page.Timeout(c.cfg.NavTimeout).WaitLoad()
	}

	if err := c.session.ClearSiteData(); err != nil {
		return err
	}
	c.cache.clear()

	if err := page.Reload(); err != nil {
		fmt.Printf("[Auth] Warning: reload after sign-out failed: %v\n", err)
	} else {
		page.Timeout(c.cfg.NavTimeout).WaitLoad()
	}
	fmt.Printf("[Auth] Signed out\n")
	return nil
}

// accountName reads the signed-in account holder's name off the page.
// The nav photo carries it in the alt text; the other spots carry it as
// text. Cached until sign-out.
func (c *Client) accountName(page *rod.Page) string {
	if name, ok := c.cache.get("account-name"); ok {
		return name
	}
	for _, sel := range c.sel.accountName {
		els, err := page.Elements(sel)
		if err != nil || len(els) == 0 {
			continue
		}
		el := els[0]
		if alt, err := el.Attribute("alt"); err == nil && alt != nil {
			name := cleanText(strings.TrimSuffix(*alt, "'s profile photo"))
			if name != "" {
				c.cache.put("account-name", name)
				return name
			}
		}
		if text, err := el.Text(); err == nil {
			if name := cleanText(text); name != "" {
				c.cache.put("account-name", name)
				return name
			}
		}
	}
	return ""
}
