package repo

import (
	"context"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

// OpenResult reports the outcome of opening a thread. Clicked and
// Verified are surfaced separately so the orchestration layer decides
// the policy for name drift after a click.
type OpenResult struct {
	Clicked  bool
	Verified bool
	URL      string
}

// LoginStatus reports the authorization state of the browser session.
type LoginStatus struct {
	LoggedIn    bool
	AccountName string
	URL         string
}

// MessagingRepo is the platform messaging interface.
// Implemented by driving the rendered web UI; every call owns the page
// for its full duration, so calls never interleave page operations.
type MessagingRepo interface {
	// FetchConversations enumerates the conversation list. generation is
	// the snapshot generation used to mint synthetic identities. Returns
	// the normalized records (at most limit) and the true total count.
	// A zero-result return with nil error means an empty list, not a
	// failure.
	FetchConversations(ctx context.Context, generation string, limit int) ([]*domain.ConversationRecord, int, error)

	// OpenConversation re-locates the record's card in the live list and
	// clicks it. Bounds violations return an OutOfRangeError; a name
	// mismatch after the click is reported through OpenResult.Verified.
	OpenConversation(ctx context.Context, rec *domain.ConversationRecord) (*OpenResult, error)

	// ReadThread extracts the messages of the currently open thread.
	ReadThread(ctx context.Context) ([]*domain.MessageRecord, error)

	// SendToOpenThread types and sends text into the currently open thread.
	SendToOpenThread(ctx context.Context, text string) error

	// StartConversation composes a new thread to recipient and sends text.
	StartConversation(ctx context.Context, recipient, text string) error

	// CheckLogin reports whether the session is authorized.
	CheckLogin(ctx context.Context) (*LoginStatus, error)

	// SignOut ends the session and clears cookies, cache, and any
	// derived lookup caches.
	SignOut(ctx context.Context) error

	// CurrentURL returns the page's current location.
	CurrentURL(ctx context.Context) (string, error)
}
