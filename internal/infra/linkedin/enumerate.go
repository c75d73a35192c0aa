package linkedin

import (
	"context"
	"fmt"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

const defaultListLimit = 30

// FetchConversations enumerates the conversation list. Extraction is
// DOM-first; when every selector chain comes up empty it falls back to
// the in-page data API, then embedded state, then one reload retry. A
// genuinely empty list returns zero records and nil error.
func (c *Client) FetchConversations(ctx context.Context, generation string, limit int) ([]*domain.ConversationRecord, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit <= 0 {
		limit = defaultListLimit
	}

	page, err := c.page()
	if err != nil {
		return nil, 0, err
	}
	page = page.Context(ctx)

	fmt.Printf("[Fetch] Getting conversation list (limit: %d)...\n", limit)

	if err := c.gotoMessaging(page); err != nil {
		return nil, 0, err
	}
	if c.isGuest(page) {
		return nil, 0, domain.ErrNotAuthorized
	}

	fmt.Printf("[Fetch] Waiting for messaging container...\n")
	if err := c.waitMessagingContainer(page); err != nil {
		if c.isGuest(page) {
			return nil, 0, domain.ErrNotAuthorized
		}
		c.screenshot(page, errorScreenshotFile)
		return nil, 0, err
	}

	cards, cardSel, err := c.elements(page, c.sel.cards)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query conversation cards: %w", err)
	}

	if len(cards) == 0 {
		fmt.Printf("[Fetch] No conversations found with selectors, trying the data API...\n")
		rows, apiErr := c.fetchViaAPI(page)
		if apiErr != nil {
			fmt.Printf("[Fetch] Data API fallback failed: %v\n", apiErr)
		} else if len(rows) > 0 {
			fmt.Printf("[Fetch] Recovered %d conversations via the data API\n", len(rows))
			return rawRecords(rows, generation, domain.OriginAPI, limit), len(rows), nil
		}

		fmt.Printf("[Fetch] Trying embedded page state...\n")
		rows, stateErr := c.fetchViaState(page)
		if stateErr != nil {
			fmt.Printf("[Fetch] State fallback failed: %v\n", stateErr)
		} else if len(rows) > 0 {
			fmt.Printf("[Fetch] Recovered %d conversations from page state\n", len(rows))
			return rawRecords(rows, generation, domain.OriginState, limit), len(rows), nil
		}

		fmt.Printf("[Fetch] Reloading the page for one retry...\n")
		if err := page.Reload(); err == nil {
			page.Timeout(c.cfg.NavTimeout).WaitLoad()
			if err := c.waitMessagingContainer(page); err == nil {
				cards, cardSel, _ = c.elements(page, c.sel.cards)
			}
		}
	}

	if len(cards) == 0 {
		fmt.Printf("[Fetch] Still no conversations found. Taking debug screenshot...\n")
		c.screenshot(page, debugScreenshotFile)
		return nil, 0, nil
	}

	totalAvailable := len(cards)
	countToProcess := totalAvailable
	if countToProcess > limit {
		countToProcess = limit
	}
	fmt.Printf("[Fetch] Processing %d out of %d conversations...\n", countToProcess, totalAvailable)

	records := make([]*domain.ConversationRecord, 0, countToProcess)
	for i := 0; i < countToProcess; i++ {
		rec := c.cardRecord(cards[i], i, generation, cardSel)
		if rec == nil {
			continue
		}
		records = append(records, rec)
		fmt.Printf("[Fetch] Found conversation: %s\n", rec.DisplayName)
	}

	if totalAvailable > limit {
		fmt.Printf("[Fetch] Note: %d conversations were not processed due to limit\n", totalAvailable-limit)
	}
	return records, totalAvailable, nil
}
