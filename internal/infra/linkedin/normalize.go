package linkedin

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

// Display caps applied during normalization. Names and previews are
// stored pre-truncated so every downstream surface shows the same text.
const (
	nameMaxLen    = 25
	previewMaxLen = 40
)

// cleanText collapses all whitespace runs (including newlines) into
// single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cardRecord normalizes one conversation card into a record. Returns nil
// when the card has no extractable name; such cards are skipped, they do
// not fail the enumeration.
func (c *Client) cardRecord(card *rod.Element, index int, generation, cardSel string) *domain.ConversationRecord {
	rawName, nameSel := c.childText(card, c.sel.name)
	name := domain.Truncate(cleanText(rawName), nameMaxLen)
	if name == "" {
		fmt.Printf("[Warning] Could not find name for conversation %d\n", index)
		return nil
	}

	preview, _ := c.childText(card, c.sel.snippet)
	preview = domain.Truncate(cleanText(preview), previewMaxLen)

	lastActivity, _ := c.childText(card, c.sel.timestamp)

	return &domain.ConversationRecord{
		Identity:      domain.SyntheticIdentity(generation, index),
		DisplayName:   name,
		Unread:        c.childExists(card, c.sel.unread),
		LastActivity:  strings.TrimSpace(lastActivity),
		Preview:       preview,
		PendingInvite: c.childExists(card, c.sel.pending),
		Group:         domain.GroupFromName(name),
		Selectors: domain.SelectorRef{
			Card:  cardSel,
			Name:  nameSel,
			Index: index,
		},
		Origin: domain.OriginDOM,
	}
}

// rawConversation is the row shape both non-DOM fallbacks produce.
type rawConversation struct {
	URN            string `json:"urn"`
	Name           string `json:"name"`
	Unread         bool   `json:"unread"`
	LastActivityAt int64  `json:"lastActivityAt"`
}

type voyagerResult struct {
	Status        int               `json:"status"`
	Conversations []rawConversation `json:"conversations"`
}

// fetchViaAPI pulls the conversation list from the Voyager API from
// inside the page. The csrf-token header must mirror the JSESSIONID
// cookie value, which LinkedIn stores quoted.
func (c *Client) fetchViaAPI(page *rod.Page) ([]rawConversation, error) {
	cookies, err := proto.NetworkGetCookies{}.Call(page)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	var csrf string
	for _, ck := range cookies.Cookies {
		if ck.Name == "JSESSIONID" {
			csrf = strings.Trim(ck.Value, `"`)
			break
		}
	}
	if csrf == "" {
		return nil, fmt.Errorf("no JSESSIONID cookie, session is gone")
	}

	res, err := page.Eval(jsVoyagerConversations, voyagerConversationsPath, csrf)
	if err != nil {
		return nil, fmt.Errorf("voyager call failed: %w", err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to decode voyager result: %w", err)
	}
	var out voyagerResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode voyager result: %w", err)
	}
	if out.Status != 200 {
		return nil, fmt.Errorf("voyager returned status %d", out.Status)
	}
	return out.Conversations, nil
}

// fetchViaState digs conversation rows out of the JSON islands LinkedIn
// embeds in the page markup.
func (c *Client) fetchViaState(page *rod.Page) ([]rawConversation, error) {
	res, err := page.Eval(jsStateConversations)
	if err != nil {
		return nil, fmt.Errorf("state inspection failed: %w", err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to decode state result: %w", err)
	}
	var rows []rawConversation
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode state result: %w", err)
	}
	return rows, nil
}

// rawRecords converts fallback rows into records. Platform URNs become
// the identity when present, so these survive snapshot replacement;
// positional synthetic identities are minted otherwise.
func rawRecords(rows []rawConversation, generation, origin string, limit int) []*domain.ConversationRecord {
	records := make([]*domain.ConversationRecord, 0, len(rows))
	for i, row := range rows {
		if limit > 0 && len(records) >= limit {
			break
		}
		name := domain.Truncate(cleanText(row.Name), nameMaxLen)
		if name == "" {
			continue
		}
		identity := row.URN
		if identity == "" {
			identity = domain.SyntheticIdentity(generation, i)
		}
		var lastActivity string
		if row.LastActivityAt > 0 {
			lastActivity = time.UnixMilli(row.LastActivityAt).Format("Jan 2")
		}
		records = append(records, &domain.ConversationRecord{
			Identity:     identity,
			DisplayName:  name,
			Unread:       row.Unread,
			LastActivity: lastActivity,
			Group:        domain.GroupFromName(name),
			Selectors:    domain.SelectorRef{Index: i},
			Origin:       origin,
		})
	}
	return records
}
