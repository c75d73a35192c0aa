package linkedin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/anthropics/linkedin-agent-bridge/internal/conf"
	"github.com/anthropics/linkedin-agent-bridge/internal/infra/browser"
)

// Client drives the LinkedIn messaging UI through a single browser page.
// There is exactly one page, so a mutex serializes every operation; a
// caller owns the page for the full duration of its call.
type Client struct {
	session *browser.Session
	cfg     conf.LinkedInConfig
	diagDir string

	// merged selector chains (built-in defaults + YAML overrides)
	sel chains

	mu    sync.Mutex
	cache *lookupCache
}

// chains holds the effective selector chains after overrides are applied.
type chains struct {
	container        []string
	conversationList []string
	cards            []string
	name             []string
	unread           []string
	timestamp        []string
	snippet          []string
	pending          []string

	threadItems []string
	divider     []string
	body        []string
	clock       []string
	sender      []string
	otherMarker []string

	editor          []string
	sendButton      []string
	newButton       []string
	typeahead       []string
	typeaheadResult []string

	nav         []string
	guest       []string
	accountName []string

	threadURLFragment string
}

// NewClient builds a messaging client over the given browser session.
// Selector overrides may be nil, in which case the built-in chains apply.
func NewClient(session *browser.Session, cfg conf.LinkedInConfig, overrides *conf.SelectorsConfig, diagnosticsDir string) *Client {
	if overrides == nil {
		overrides = &conf.SelectorsConfig{}
	}
	c := &Client{
		session: session,
		cfg:     cfg,
		diagDir: diagnosticsDir,
		cache:   newLookupCache(lookupCacheLimit),
	}
	c.sel = chains{
		container:        chainOrDefault(overrides.List.Container, containerSelectors),
		conversationList: chainOrDefault(overrides.List.Conversations, conversationListSelectors),
		cards:            chainOrDefault(overrides.List.Cards, cardSelectors),
		name:             chainOrDefault(overrides.List.Name, nameSelectors),
		unread:           chainOrDefault(overrides.List.Unread, unreadSelectors),
		timestamp:        chainOrDefault(overrides.List.Timestamp, timestampSelectors),
		snippet:          chainOrDefault(overrides.List.Snippet, snippetSelectors),
		pending:          chainOrDefault(overrides.List.Pending, pendingSelectors),

		threadItems: chainOrDefault(overrides.Thread.Items, threadItemSelectors),
		divider:     chainOrDefault(overrides.Thread.Divider, dividerSelectors),
		body:        chainOrDefault(overrides.Thread.Body, bodySelectors),
		clock:       chainOrDefault(overrides.Thread.Clock, clockSelectors),
		sender:      chainOrDefault(overrides.Thread.Sender, senderSelectors),
		otherMarker: chainOrDefault(overrides.Thread.OtherMarker, otherMarkerSelectors),

		editor:          chainOrDefault(overrides.Compose.Editor, editorSelectors),
		sendButton:      chainOrDefault(overrides.Compose.SendButton, sendButtonSelectors),
		newButton:       chainOrDefault(overrides.Compose.NewButton, newButtonSelectors),
		typeahead:       chainOrDefault(overrides.Compose.Typeahead, typeaheadSelectors),
		typeaheadResult: chainOrDefault(overrides.Compose.Result, typeaheadResultSelectors),

		nav:         chainOrDefault(overrides.Auth.Nav, navSelectors),
		guest:       chainOrDefault(overrides.Auth.GuestSignIn, guestSelectors),
		accountName: chainOrDefault(overrides.Auth.AccountName, accountNameSelectors),

		threadURLFragment: threadURLFragment,
	}
	if overrides.Thread.URLPattern != "" {
		c.sel.threadURLFragment = overrides.Thread.URLPattern
	}
	return c
}

// page returns the live page, launching the browser if needed.
func (c *Client) page() (*rod.Page, error) {
	return c.session.Page()
}

// currentURL reads the page location without navigating.
func (c *Client) currentURL(page *rod.Page) string {
	info, err := page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// CurrentURL returns the browser's current location.
func (c *Client) CurrentURL(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.page()
	if err != nil {
		return "", err
	}
	return c.currentURL(page), nil
}

// gotoMessaging brings the page to the messaging surface. It prefers
// clicking the nav link (keeps the SPA state warm) and falls back to a
// direct navigation.
func (c *Client) gotoMessaging(page *rod.Page) error {
	url := c.currentURL(page)
	if strings.Contains(url, messagingPath) {
		return nil
	}

	if !strings.HasPrefix(url, c.cfg.BaseURL) {
		if err := page.Timeout(c.cfg.NavTimeout).Navigate(c.cfg.BaseURL); err != nil {
			return fmt.Errorf("failed to open %s: %w", c.cfg.BaseURL, err)
		}
		page.Timeout(c.cfg.NavTimeout).WaitLoad()
	}

	if link, err := page.Timeout(c.cfg.ClickTimeout).Element(selNavMessagingLink); err == nil {
		if err := link.Click(proto.InputMouseButtonLeft, 1); err == nil {
			page.Timeout(c.cfg.NavTimeout).WaitLoad()
			return nil
		}
	}

	if err := page.Timeout(c.cfg.NavTimeout).Navigate(c.cfg.BaseURL + messagingPath); err != nil {
		return fmt.Errorf("failed to open messaging: %w", err)
	}
	page.Timeout(c.cfg.NavTimeout).WaitLoad()
	return nil
}

// waitMessagingContainer gates every list operation: the messaging
// container and the conversation list must both become visible, then the
// page gets a short settle for lazy rows. Timeouts here are hard
// failures.
func (c *Client) waitMessagingContainer(page *rod.Page) error {
	if err := c.waitAnyVisible(page, c.sel.container, c.cfg.NavTimeout); err != nil {
		return fmt.Errorf("messaging container not visible: %w", err)
	}
	if err := c.waitAnyVisible(page, c.sel.conversationList, c.cfg.NavTimeout); err != nil {
		return fmt.Errorf("conversation list not visible: %w", err)
	}
	time.Sleep(2 * time.Second)
	return nil
}

// waitAnyVisible waits for the first selector of the chain to become
// visible. The primary gets the full timeout; on failure the fallbacks
// get one short attempt each, since they exist for changed markup, not
// slow loads.
func (c *Client) waitAnyVisible(page *rod.Page, chain []string, timeout time.Duration) error {
	if len(chain) == 0 {
		return fmt.Errorf("empty selector chain")
	}
	var lastErr error
	for i, sel := range chain {
		t := timeout
		if i > 0 {
			t = 2 * time.Second
		}
		el, err := page.Timeout(t).Element(sel)
		if err != nil {
			lastErr = err
			continue
		}
		if err := el.WaitVisible(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// elements queries without waiting; an empty result is a valid answer.
func (c *Client) elements(page *rod.Page, chain []string) ([]*rod.Element, string, error) {
	return firstMatch(chain, func(sel string) ([]*rod.Element, error) {
		els, err := page.Elements(sel)
		if err != nil {
			return nil, err
		}
		return []*rod.Element(els), nil
	})
}

// childText resolves a chain inside an element and returns the first
// non-empty text, along with the selector that produced it.
func (c *Client) childText(el *rod.Element, chain []string) (string, string) {
	for _, sel := range chain {
		children, err := el.Elements(sel)
		if err != nil || len(children) == 0 {
			continue
		}
		text, err := children[0].Text()
		if err != nil {
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			return t, sel
		}
	}
	return "", ""
}

// childExists reports whether any selector of the chain matches inside el.
func (c *Client) childExists(el *rod.Element, chain []string) bool {
	for _, sel := range chain {
		children, err := el.Elements(sel)
		if err == nil && len(children) > 0 {
			return true
		}
	}
	return false
}

// screenshot writes a full-page capture into the diagnostics directory.
// Failures are logged, never propagated; diagnostics must not mask the
// original condition.
func (c *Client) screenshot(page *rod.Page, name string) {
	if c.diagDir == "" {
		return
	}
	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		fmt.Printf("[LinkedIn] Warning: screenshot failed: %v\n", err)
		return
	}
	if err := os.MkdirAll(c.diagDir, 0o755); err != nil {
		fmt.Printf("[LinkedIn] Warning: failed to create diagnostics dir: %v\n", err)
		return
	}
	path := filepath.Join(c.diagDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Printf("[LinkedIn] Warning: failed to save screenshot: %v\n", err)
		return
	}
	fmt.Printf("[LinkedIn] Debug screenshot saved as %s\n", path)
}

// Stop shuts the underlying browser down.
func (c *Client) Stop() {
	c.session.Stop()
}
