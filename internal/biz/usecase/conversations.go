package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
)

const defaultListLimit = 30

// ConversationUsecase handles conversation enumeration and thread access
type ConversationUsecase struct {
	messagingRepo repo.MessagingRepo
	snapshotRepo  repo.SnapshotRepo
	visitRepo     repo.VisitRepo

	mu      sync.Mutex
	current *domain.ConversationRecord
}

// NewConversationUsecase creates a new conversation usecase
func NewConversationUsecase(
	messagingRepo repo.MessagingRepo,
	snapshotRepo repo.SnapshotRepo,
	visitRepo repo.VisitRepo,
) *ConversationUsecase {
	return &ConversationUsecase{
		messagingRepo: messagingRepo,
		snapshotRepo:  snapshotRepo,
		visitRepo:     visitRepo,
	}
}

// EnterResult reports how an open attempt went. Clicked and Verified are
// both surfaced because name drift after a click is tolerated, and the
// caller owns that policy.
type EnterResult struct {
	Record   *domain.ConversationRecord
	Clicked  bool
	Verified bool
	URL      string
}

// ListConversations enumerates the inbox, replaces the stored snapshot
// and returns it. The stored snapshot always holds the full batch;
// includeWords only narrows the Records of the returned copy.
func (uc *ConversationUsecase) ListConversations(ctx context.Context, limit int, includeWords []string) (*domain.Snapshot, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	generation := uuid.NewString()
	records, total, err := uc.messagingRepo.FetchConversations(ctx, generation, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch conversations: %w", err)
	}

	unread := 0
	for _, r := range records {
		if r.Unread {
			unread++
		}
	}

	snap := &domain.Snapshot{
		Generation: generation,
		TakenAt:    time.Now(),
		Records:    records,
		Summary: domain.SnapshotSummary{
			TotalAvailable: total,
			TotalProcessed: len(records),
			UnreadCount:    unread,
			LimitReached:   total > len(records),
		},
	}

	if err := uc.snapshotRepo.ReplaceConversations(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	fmt.Printf("[Conversations] Snapshot %s: %d of %d conversations, %d unread\n",
		generation, snap.Summary.TotalProcessed, snap.Summary.TotalAvailable, snap.Summary.UnreadCount)

	if len(includeWords) > 0 {
		filtered := *snap
		filtered.Records = snap.FilterByWords(includeWords)
		return &filtered, nil
	}
	return snap, nil
}

// EnterByName opens the conversation whose display name exactly matches
// (trimmed). Zero matches is NotFound, several is Ambiguous.
func (uc *ConversationUsecase) EnterByName(ctx context.Context, name string) (*EnterResult, error) {
	snap, err := uc.latestOrFresh(ctx)
	if err != nil {
		return nil, err
	}

	matches := snap.FindByName(name)
	switch len(matches) {
	case 0:
		return nil, &domain.NotFoundError{Target: name}
	case 1:
	default:
		return nil, &domain.AmbiguousError{Name: name, Matches: matches}
	}

	return uc.open(ctx, matches[0])
}

// EnterByIdentity opens a conversation by the identity from a previous
// snapshot. Synthetic identities are only honored against the snapshot
// that minted them.
func (uc *ConversationUsecase) EnterByIdentity(ctx context.Context, id string) (*EnterResult, error) {
	snap, err := uc.snapshotRepo.LatestConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	if generation, _, ok := domain.ParseSyntheticIdentity(id); ok {
		if snap == nil || snap.Generation != generation {
			return nil, fmt.Errorf("identity %q: %w", id, domain.ErrStaleIdentity)
		}
	}
	if snap == nil {
		return nil, &domain.NotFoundError{Target: id}
	}

	matches := snap.FindByIdentity(id)
	switch len(matches) {
	case 0:
		return nil, &domain.NotFoundError{Target: id}
	case 1:
	default:
		// Identity lookups must never be ambiguous
		return nil, fmt.Errorf("identity %q appears %d times in the snapshot", id, len(matches))
	}

	return uc.open(ctx, matches[0])
}

// ReadConversation reads the currently open thread, persists the thread
// snapshot and updates the visit ledger.
func (uc *ConversationUsecase) ReadConversation(ctx context.Context) (*domain.ThreadSnapshot, error) {
	current := uc.Current()
	if current == nil {
		return nil, fmt.Errorf("no conversation is open; enter one first")
	}

	messages, err := uc.messagingRepo.ReadThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("read thread: %w", err)
	}

	url, err := uc.messagingRepo.CurrentURL(ctx)
	if err != nil {
		url = ""
	}

	thread := &domain.ThreadSnapshot{
		ConversationID: current.Identity,
		Name:           current.DisplayName,
		URL:            url,
		Messages:       messages,
		TakenAt:        time.Now(),
	}

	if err := uc.snapshotRepo.SaveThread(ctx, thread); err != nil {
		fmt.Printf("[Conversations] Warning: could not save thread snapshot: %v\n", err)
	}
	if err := uc.visitRepo.RecordRead(ctx, current.Identity, len(messages)); err != nil {
		fmt.Printf("[Conversations] Warning: could not record read: %v\n", err)
	}

	fmt.Printf("[Conversations] Read %d messages from %s\n", len(messages), current.DisplayName)
	return thread, nil
}

// Current returns the currently open conversation, or nil
func (uc *ConversationUsecase) Current() *domain.ConversationRecord {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.current
}

// Reset forgets the currently open conversation (sign-out)
func (uc *ConversationUsecase) Reset() {
	uc.mu.Lock()
	uc.current = nil
	uc.mu.Unlock()
}

func (uc *ConversationUsecase) open(ctx context.Context, rec *domain.ConversationRecord) (*EnterResult, error) {
	result, err := uc.messagingRepo.OpenConversation(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}

	uc.mu.Lock()
	uc.current = rec
	uc.mu.Unlock()

	if err := uc.visitRepo.RecordOpen(ctx, rec.Identity, rec.DisplayName); err != nil {
		fmt.Printf("[Conversations] Warning: could not record open: %v\n", err)
	}

	return &EnterResult{
		Record:   rec,
		Clicked:  result.Clicked,
		Verified: result.Verified,
		URL:      result.URL,
	}, nil
}

// latestOrFresh returns the stored snapshot, enumerating once when none
// exists yet.
func (uc *ConversationUsecase) latestOrFresh(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := uc.snapshotRepo.LatestConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap != nil {
		return snap, nil
	}

	fmt.Println("[Conversations] No snapshot yet, enumerating first")
	return uc.ListConversations(ctx, defaultListLimit, nil)
}
