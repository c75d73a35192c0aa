package domain

import (
	"fmt"
	"strings"
	"time"
)

// Origin of a conversation record: which extraction strategy produced it.
const (
	OriginDOM   = "dom"
	OriginAPI   = "api"
	OriginState = "state"
)

// GroupMetadata is the heuristic group classification of a conversation.
type GroupMetadata struct {
	IsGroup          bool `json:"is_group"`
	ParticipantCount int  `json:"participant_count"`
}

// GroupFromName derives group metadata from a display name.
// Multi-party threads render participants comma-separated; names that
// legitimately contain commas are misclassified.
func GroupFromName(name string) GroupMetadata {
	count := strings.Count(name, ",") + 1
	return GroupMetadata{
		IsGroup:          count > 1,
		ParticipantCount: count,
	}
}

// SelectorRef records the selector pattern and positional index that
// produced a record. DOM handles do not survive re-renders, so this is
// what re-locates the same logical card later.
type SelectorRef struct {
	Card  string `json:"card"`
	Name  string `json:"name,omitempty"`
	Index int    `json:"index"`
}

// ConversationRecord is one conversation as seen by the latest enumeration.
type ConversationRecord struct {
	Identity      string        `json:"identity"`
	DisplayName   string        `json:"display_name"`
	Unread        bool          `json:"unread"`
	UnreadCount   int           `json:"unread_count,omitempty"`
	LastActivity  string        `json:"last_activity,omitempty"`
	Preview       string        `json:"preview,omitempty"`
	PendingInvite bool          `json:"pending_invite,omitempty"`
	Group         GroupMetadata `json:"group_metadata"`
	Selectors     SelectorRef   `json:"selectors_used"`
	Origin        string        `json:"origin,omitempty"`
}

// MatchesName reports whether the record's display name equals name
// (exact, case-sensitive, trimmed).
func (r *ConversationRecord) MatchesName(name string) bool {
	return strings.TrimSpace(r.DisplayName) == strings.TrimSpace(name)
}

const syntheticPrefix = "snap:"

// SyntheticIdentity builds a positional identity bound to one snapshot
// generation. It is valid only while that snapshot is the latest one.
func SyntheticIdentity(generation string, index int) string {
	return fmt.Sprintf("%s%s:%d", syntheticPrefix, generation, index)
}

// IsSyntheticIdentity reports whether id is snapshot-bound rather than
// platform-assigned.
func IsSyntheticIdentity(id string) bool {
	return strings.HasPrefix(id, syntheticPrefix)
}

// ParseSyntheticIdentity splits a synthetic identity into its snapshot
// generation and positional index.
func ParseSyntheticIdentity(id string) (generation string, index int, ok bool) {
	if !IsSyntheticIdentity(id) {
		return "", 0, false
	}
	rest := strings.TrimPrefix(id, syntheticPrefix)
	sep := strings.LastIndex(rest, ":")
	if sep <= 0 {
		return "", 0, false
	}
	if _, err := fmt.Sscanf(rest[sep+1:], "%d", &index); err != nil {
		return "", 0, false
	}
	return rest[:sep], index, true
}

// SnapshotSummary mirrors the summary block persisted with each snapshot.
type SnapshotSummary struct {
	TotalAvailable int  `json:"total_available"`
	TotalProcessed int  `json:"total_processed"`
	UnreadCount    int  `json:"unread_count"`
	LimitReached   bool `json:"limit_reached"`
}

// Snapshot is the full replacement set of conversation records produced
// by one enumeration. Lookups by name or identity always run against the
// latest snapshot, never a historical one.
type Snapshot struct {
	Generation string                `json:"generation"`
	TakenAt    time.Time             `json:"taken_at"`
	Records    []*ConversationRecord `json:"conversations"`
	Summary    SnapshotSummary       `json:"summary"`
}

// FindByName returns all records whose display name equals name.
// Callers must handle zero, one, and many matches distinctly.
func (s *Snapshot) FindByName(name string) []*ConversationRecord {
	var matches []*ConversationRecord
	for _, r := range s.Records {
		if r.MatchesName(name) {
			matches = append(matches, r)
		}
	}
	return matches
}

// FindByIdentity returns all records carrying the given identity.
// More than one match is an invariant violation the caller must report.
func (s *Snapshot) FindByIdentity(id string) []*ConversationRecord {
	var matches []*ConversationRecord
	for _, r := range s.Records {
		if r.Identity == id {
			matches = append(matches, r)
		}
	}
	return matches
}

// FilterByWords keeps records whose display name contains any of the
// given words, case-insensitively. An empty word list keeps everything.
func (s *Snapshot) FilterByWords(words []string) []*ConversationRecord {
	if len(words) == 0 {
		return s.Records
	}
	var matches []*ConversationRecord
	for _, r := range s.Records {
		lower := strings.ToLower(r.DisplayName)
		for _, w := range words {
			if w == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(w)) {
				matches = append(matches, r)
				break
			}
		}
	}
	return matches
}

// UnreadRecords returns the records flagged unread.
func (s *Snapshot) UnreadRecords() []*ConversationRecord {
	var unread []*ConversationRecord
	for _, r := range s.Records {
		if r.Unread {
			unread = append(unread, r)
		}
	}
	return unread
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
