package linkedin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

type itemKind int

const (
	itemDivider itemKind = iota
	itemMessage
)

// threadItem is one event scraped from an open thread, before timestamp
// and sender resolution. Kept DOM-free so the reducer below is testable
// on its own.
type threadItem struct {
	Kind   itemKind
	Text   string // divider label or message body
	Clock  string // "3:45 PM" on the first message of a sender run, else empty
	Sender string // sender name on the first message of a sender run, else empty
	Other  bool   // true when the counterpart marker is present
}

// ReadThread extracts the messages of the currently open thread in
// chronological order. An empty slice with nil error means the pane had
// no extractable messages.
func (c *Client) ReadThread(ctx context.Context) ([]*domain.MessageRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.page()
	if err != nil {
		return nil, err
	}
	page = page.Context(ctx)

	if c.isGuest(page) {
		return nil, domain.ErrNotAuthorized
	}

	// Give the thread pane a moment to render, then query without
	// waiting; zero events is a valid outcome.
	c.waitAnyVisible(page, c.sel.threadItems, c.cfg.ClickTimeout)

	events, _, err := c.elements(page, c.sel.threadItems)
	if err != nil {
		return nil, fmt.Errorf("failed to query thread events: %w", err)
	}
	fmt.Printf("[Thread] Found %d thread events\n", len(events))

	var items []threadItem
	for _, el := range events {
		// A single event element can carry both a date heading and a
		// message group.
		if label, _ := c.childText(el, c.sel.divider); label != "" {
			items = append(items, threadItem{Kind: itemDivider, Text: label})
		}
		body, _ := c.childText(el, c.sel.body)
		if body == "" {
			continue
		}
		clock, _ := c.childText(el, c.sel.clock)
		sender, _ := c.childText(el, c.sel.sender)
		items = append(items, threadItem{
			Kind:   itemMessage,
			Text:   body,
			Clock:  strings.TrimSpace(clock),
			Sender: cleanText(sender),
			Other:  c.selfOrChildMatches(el, c.sel.otherMarker),
		})
	}

	messages := reduceThread(items, time.Now())
	fmt.Printf("[Thread] Extracted %d messages\n", len(messages))
	return messages, nil
}

// selfOrChildMatches reports whether the element itself or any
// descendant matches a selector of the chain.
func (c *Client) selfOrChildMatches(el *rod.Element, chain []string) bool {
	for _, sel := range chain {
		if ok, err := el.Matches(sel); err == nil && ok {
			return true
		}
	}
	return c.childExists(el, chain)
}

// reduceThread resolves timestamps, senders, and roles across a scraped
// event sequence. Date dividers set the date for everything after them;
// a message only gets a timestamp when both its date and its own clock
// stamp are known. Sender and role stick across a sender run: messages
// without sender meta inherit from the previous message.
func reduceThread(items []threadItem, now time.Time) []*domain.MessageRecord {
	var out []*domain.MessageRecord

	var currentDate time.Time
	haveDate := false
	lastSender := ""
	lastRole := domain.RoleSelf

	for _, it := range items {
		switch it.Kind {
		case itemDivider:
			if d, ok := parseDividerDate(it.Text, now); ok {
				currentDate = d
				haveDate = true
			} else {
				// Unknown heading; better no timestamp than a wrong one.
				haveDate = false
			}
		case itemMessage:
			sender := it.Sender
			role := lastRole
			if sender != "" {
				role = domain.RoleSelf
				if it.Other {
					role = domain.RoleCounterpart
				}
				lastSender = sender
				lastRole = role
			} else {
				if it.Other {
					role = domain.RoleCounterpart
					lastRole = role
				}
				sender = lastSender
			}

			var ts *time.Time
			if haveDate && it.Clock != "" {
				if t, ok := combineClock(currentDate, it.Clock); ok {
					ts = &t
				}
			}

			out = append(out, &domain.MessageRecord{
				SenderRole: role,
				Sender:     sender,
				Text:       it.Text,
				Timestamp:  ts,
			})
		}
	}
	return out
}

var monthsByName = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseDividerDate turns a date heading into a calendar date. Handles
// "Today", "Yesterday", weekday names (the most recent such day), and
// month-day forms with or without a year, case-insensitively.
func parseDividerDate(label string, now time.Time) (time.Time, bool) {
	l := strings.ToLower(cleanText(strings.ReplaceAll(label, ",", " ")))
	if l == "" {
		return time.Time{}, false
	}
	today := dateOf(now)

	switch l {
	case "today":
		return today, true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), l) {
			d := today
			for i := 0; i < 7; i++ {
				d = d.AddDate(0, 0, -1)
				if d.Weekday() == wd {
					return d, true
				}
			}
		}
	}

	fields := strings.Fields(l)
	if len(fields) == 2 || len(fields) == 3 {
		month, ok := monthsByName[fields[0]]
		if !ok {
			return time.Time{}, false
		}
		day, err := strconv.Atoi(fields[1])
		if err != nil || day < 1 || day > 31 {
			return time.Time{}, false
		}
		year := now.Year()
		if len(fields) == 3 {
			year, err = strconv.Atoi(fields[2])
			if err != nil {
				return time.Time{}, false
			}
		}
		d := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
		// A yearless date in the future must be from last year.
		if len(fields) == 2 && d.After(today) {
			d = d.AddDate(-1, 0, 0)
		}
		return d, true
	}

	return time.Time{}, false
}

// combineClock merges a clock stamp ("3:45 PM" or "15:45") onto a date.
func combineClock(date time.Time, clock string) (time.Time, bool) {
	normalized := strings.ToUpper(cleanText(clock))
	for _, layout := range []string{"3:04 PM", "15:04"} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(),
				t.Hour(), t.Minute(), 0, 0, date.Location()), true
		}
	}
	return time.Time{}, false
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
