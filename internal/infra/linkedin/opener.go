package linkedin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

// OpenOutcome reports what actually happened during an open: whether the
// card was clicked, whether the card's name still matched the record,
// and where the page ended up.
type OpenOutcome struct {
	Clicked  bool
	Verified bool
	URL      string
}

// OpenConversation re-locates the record's card in the live list and
// clicks it. DOM-origin records are located by their recorded index;
// fallback-origin records are located by name scan. The click itself
// must succeed; the post-click URL confirmation is soft and only
// downgrades the outcome.
func (c *Client) OpenConversation(ctx context.Context, rec *domain.ConversationRecord) (*OpenOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.page()
	if err != nil {
		return nil, err
	}
	page = page.Context(ctx)

	if err := c.gotoMessaging(page); err != nil {
		return nil, err
	}
	if c.isGuest(page) {
		return nil, domain.ErrNotAuthorized
	}
	if err := c.waitMessagingContainer(page); err != nil {
		if c.isGuest(page) {
			return nil, domain.ErrNotAuthorized
		}
		return nil, err
	}

	fmt.Printf("[Enter] Attempting to enter conversation with: %s\n", rec.DisplayName)

	cards, _, err := c.elements(page, prependSelector(rec.Selectors.Card, c.sel.cards))
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation cards: %w", err)
	}
	if len(cards) == 0 {
		fmt.Printf("[Enter] No conversations visible\n")
		return nil, &domain.NotFoundError{Target: rec.DisplayName}
	}

	var card *rod.Element
	verified := true

	if rec.Origin == domain.OriginDOM && rec.Selectors.Card != "" {
		if rec.Selectors.Index >= len(cards) {
			return nil, &domain.OutOfRangeError{Index: rec.Selectors.Index, Count: len(cards)}
		}
		card = cards[rec.Selectors.Index]

		// The list may have reordered since the snapshot; compare the live
		// name against the record before clicking, like for like.
		if rawName, _ := c.childText(card, prependSelector(rec.Selectors.Name, c.sel.name)); rawName != "" {
			actual := domain.Truncate(cleanText(rawName), nameMaxLen)
			if actual != rec.DisplayName {
				fmt.Printf("[Warning] Name mismatch: Expected '%s', found '%s'\n", rec.DisplayName, actual)
				verified = false
			}
		}
	} else {
		// No stored DOM position; find the card by name in the live list.
		var matches []*rod.Element
		for _, el := range cards {
			rawName, _ := c.childText(el, c.sel.name)
			if domain.Truncate(cleanText(rawName), nameMaxLen) == rec.DisplayName {
				matches = append(matches, el)
			}
		}
		if len(matches) == 0 {
			return nil, &domain.NotFoundError{Target: rec.DisplayName}
		}
		if len(matches) > 1 {
			fmt.Printf("[Warning] %d cards match '%s', clicking the first\n", len(matches), rec.DisplayName)
		}
		card = matches[0]
	}

	fmt.Printf("[Enter] Clicking conversation...\n")
	if err := card.ScrollIntoView(); err != nil {
		fmt.Printf("[Warning] Failed to scroll card into view: %v\n", err)
	}
	if err := card.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("failed to click conversation: %w", err)
	}

	outcome := &OpenOutcome{Clicked: true, Verified: verified}

	// Confirm by URL. This wait is soft: threads opened in the overlay
	// pane never change the location, so a timeout is not a failure.
	if c.waitForURLFragment(page, c.sel.threadURLFragment, c.cfg.ClickTimeout) {
		outcome.URL = c.currentURL(page)
		c.cache.put("thread-url:"+rec.Identity, outcome.URL)
	} else {
		fmt.Printf("[Warning] Thread URL not confirmed within %s\n", c.cfg.ClickTimeout)
		outcome.URL = c.currentURL(page)
	}

	fmt.Printf("[Success] Entered conversation with %s\n", rec.DisplayName)
	if rec.Group.IsGroup {
		fmt.Printf("[Info] This is a group chat with %d participants\n", rec.Group.ParticipantCount)
	}
	if rec.Unread {
		fmt.Printf("[Info] Conversation has unread messages\n")
	}
	return outcome, nil
}

// waitForURLFragment polls the page location until it contains fragment
// or the timeout elapses.
func (c *Client) waitForURLFragment(page *rod.Page, fragment string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if strings.Contains(c.currentURL(page), fragment) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(250 * time.Millisecond)
	}
}
