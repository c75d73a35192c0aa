package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/usecase"
	"github.com/anthropics/linkedin-agent-bridge/internal/conf"
)

const (
	watcherListLimit  = 30
	digestTurnTimeout = 3 * time.Minute
	visitRetention    = 30 * 24 * time.Hour
	sessionRetention  = 7 * 24 * time.Hour
)

// Watcher polls the conversation list and reports threads that turned
// unread since the previous poll. With digest enabled it also asks the
// agent for a short summary of the new arrivals. It doubles as the
// housekeeping loop for the visit and session stores.
type Watcher struct {
	conversations *usecase.ConversationUsecase
	visitRepo     repo.VisitRepo
	sessionRepo   repo.SessionRepo
	agentRepo     repo.AgentRepo
	prompts       *conf.PromptsConfig

	interval time.Duration
	digest   bool

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// unread display names seen on the previous poll
	known map[string]bool
}

// NewWatcher creates a new unread watcher
func NewWatcher(conversations *usecase.ConversationUsecase, visitRepo repo.VisitRepo, sessionRepo repo.SessionRepo, agentRepo repo.AgentRepo, prompts *conf.PromptsConfig, cfg conf.WatchConfig) *Watcher {
	return &Watcher{
		conversations: conversations,
		visitRepo:     visitRepo,
		sessionRepo:   sessionRepo,
		agentRepo:     agentRepo,
		prompts:       prompts,
		interval:      cfg.Interval,
		digest:        cfg.Digest,
		stopCh:        make(chan struct{}),
		known:         make(map[string]bool),
	}
}

// Start starts the watcher loop. A zero interval disables it.
func (w *Watcher) Start() {
	if w.running {
		return
	}
	if w.interval <= 0 {
		fmt.Println("[Watcher] Disabled (no interval configured)")
		return
	}
	w.running = true
	w.wg.Add(1)
	go w.loop()
	fmt.Printf("[Watcher] Started with poll interval %v\n", w.interval)
}

// Stop stops the watcher
func (w *Watcher) Stop() {
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	w.wg.Wait()
	fmt.Println("[Watcher] Stopped")
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	// Initial poll seeds the known set without announcing anything,
	// otherwise every already-unread thread would fire on startup.
	w.poll(true)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.poll(false)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) poll(seed bool) {
	ctx := context.Background()

	snapshot, err := w.conversations.ListConversations(ctx, watcherListLimit, nil)
	if err != nil {
		fmt.Printf("[Watcher] Error listing conversations: %v\n", err)
		return
	}

	unread := snapshot.UnreadRecords()
	current := make(map[string]bool, len(unread))
	var fresh []*domain.ConversationRecord
	for _, record := range unread {
		current[record.DisplayName] = true
		if !w.known[record.DisplayName] {
			fresh = append(fresh, record)
		}
	}
	w.known = current

	if seed {
		fmt.Printf("[Watcher] Baseline: %d unread conversation(s)\n", len(unread))
		w.pruneVisits(ctx)
		return
	}

	if len(fresh) > 0 {
		names := make([]string, len(fresh))
		for i, record := range fresh {
			names[i] = record.DisplayName
		}
		fmt.Printf("[Watcher] %d newly unread conversation(s): %s\n", len(fresh), strings.Join(names, ", "))

		if w.digest {
			w.runDigest(ctx, fresh)
		}
	}

	w.pruneVisits(ctx)
}

// runDigest asks the agent for a short summary of the newly unread
// threads. It runs on a throwaway thread so it never touches the
// history of an interactive session.
func (w *Watcher) runDigest(ctx context.Context, records []*domain.ConversationRecord) {
	var lines []string
	for _, record := range records {
		line := "- " + record.DisplayName
		if record.Preview != "" {
			line += ": " + record.Preview
		}
		lines = append(lines, line)
	}

	prompt := w.prompts.FormatDigest(strings.Join(lines, "\n"))

	response, _, err := w.agentRepo.DebugConversation(ctx, prompt, digestTurnTimeout)
	if err != nil {
		fmt.Printf("[Watcher] Digest turn failed: %v\n", err)
		return
	}
	fmt.Printf("[Watcher] Digest:\n%s\n", response)
}

func (w *Watcher) pruneVisits(ctx context.Context) {
	deleted, err := w.visitRepo.CleanupStale(ctx, time.Now().Add(-visitRetention))
	if err != nil {
		fmt.Printf("[Watcher] Error pruning stale visits: %v\n", err)
	} else if deleted > 0 {
		fmt.Printf("[Watcher] Pruned %d stale visit(s)\n", deleted)
	}

	if w.sessionRepo == nil {
		return
	}
	deleted, err = w.sessionRepo.CleanupStale(ctx, time.Now().Add(-sessionRetention))
	if err != nil {
		fmt.Printf("[Watcher] Error pruning stale sessions: %v\n", err)
	} else if deleted > 0 {
		fmt.Printf("[Watcher] Pruned %d stale session(s)\n", deleted)
	}
}
