package linkedin

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

// SendToOpenThread types text into the composer of the currently open
// thread and clicks send.
func (c *Client) SendToOpenThread(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.page()
	if err != nil {
		return err
	}
	page = page.Context(ctx)

	if c.isGuest(page) {
		return domain.ErrNotAuthorized
	}

	if err := c.typeAndSend(page, text); err != nil {
		return err
	}
	fmt.Printf("[Compose] Sent message (%d chars)\n", len(text))
	return nil
}

// StartConversation opens the compose flow, resolves recipient through
// the typeahead, and sends text as the first message. The recipient must
// be connected for the typeahead to offer them.
func (c *Client) StartConversation(ctx context.Context, recipient, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.page()
	if err != nil {
		return err
	}
	page = page.Context(ctx)

	if err := c.gotoMessaging(page); err != nil {
		return err
	}
	if c.isGuest(page) {
		return domain.ErrNotAuthorized
	}
	if err := c.waitMessagingContainer(page); err != nil {
		if c.isGuest(page) {
			return domain.ErrNotAuthorized
		}
		return err
	}

	fmt.Printf("[Compose] Starting new conversation with: %s\n", recipient)

	if err := c.clickFirst(page, c.sel.newButton, "compose button"); err != nil {
		return err
	}

	if err := c.waitAnyVisible(page, c.sel.typeahead, c.cfg.ClickTimeout); err != nil {
		return fmt.Errorf("recipient field not found: %w", err)
	}
	fields, _, err := c.elements(page, c.sel.typeahead)
	if err != nil || len(fields) == 0 {
		return fmt.Errorf("recipient field not found")
	}
	if err := fields[0].Input(recipient); err != nil {
		return fmt.Errorf("failed to type recipient: %w", err)
	}

	if err := c.waitAnyVisible(page, c.sel.typeaheadResult, c.cfg.ClickTimeout); err != nil {
		return &domain.NotFoundError{Target: recipient}
	}
	results, _, err := c.elements(page, c.sel.typeaheadResult)
	if err != nil || len(results) == 0 {
		return &domain.NotFoundError{Target: recipient}
	}

	// Prefer the suggestion whose text matches the recipient exactly;
	// otherwise take the top one.
	pick := results[0]
	want := cleanText(recipient)
	for _, r := range results {
		t, err := r.Text()
		if err != nil {
			continue
		}
		if cleanText(t) == want {
			pick = r
			break
		}
	}
	if err := pick.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to select recipient: %w", err)
	}

	if err := c.typeAndSend(page, text); err != nil {
		return err
	}
	fmt.Printf("[Compose] Started conversation with %s\n", recipient)
	return nil
}

// typeAndSend drives the composer that is on screen: focus, type, send.
func (c *Client) typeAndSend(page *rod.Page, text string) error {
	if err := c.waitAnyVisible(page, c.sel.editor, c.cfg.ClickTimeout); err != nil {
		return fmt.Errorf("message composer not found: %w", err)
	}
	editors, _, err := c.elements(page, c.sel.editor)
	if err != nil || len(editors) == 0 {
		return fmt.Errorf("message composer not found")
	}
	editor := editors[0]
	if err := editor.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to focus composer: %w", err)
	}
	if err := editor.Input(text); err != nil {
		return fmt.Errorf("failed to type message: %w", err)
	}

	// The send button only enables once the composer has text.
	if err := c.waitAnyVisible(page, c.sel.sendButton, c.cfg.ClickTimeout); err != nil {
		return fmt.Errorf("send button not found: %w", err)
	}
	buttons, _, err := c.elements(page, c.sel.sendButton)
	if err != nil || len(buttons) == 0 {
		return fmt.Errorf("send button not found")
	}
	if err := buttons[0].Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click send: %w", err)
	}
	page.WaitStable(time.Second)
	return nil
}

// clickFirst waits for the chain and clicks the first element it yields.
func (c *Client) clickFirst(page *rod.Page, chain []string, what string) error {
	if err := c.waitAnyVisible(page, chain, c.cfg.ClickTimeout); err != nil {
		return fmt.Errorf("%s not found: %w", what, err)
	}
	els, _, err := c.elements(page, chain)
	if err != nil || len(els) == 0 {
		return fmt.Errorf("%s not found", what)
	}
	if err := els[0].Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %s: %w", what, err)
	}
	return nil
}
