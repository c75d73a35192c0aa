package domain

import "time"

// Role classifies who sent a message within an open thread.
type Role string

const (
	RoleSelf        Role = "self"
	RoleCounterpart Role = "counterpart"
)

// MessageRecord is one extracted message. Timestamp is nil unless both a
// date divider and a time fragment preceded the message in the thread;
// it is never guessed.
type MessageRecord struct {
	SenderRole Role       `json:"sender_role"`
	Sender     string     `json:"sender,omitempty"`
	Text       string     `json:"text"`
	Timestamp  *time.Time `json:"timestamp"`
}

// ThreadSnapshot is the persisted read of one opened thread, keyed by the
// conversation identity. It is never invalidated automatically.
type ThreadSnapshot struct {
	ConversationID string           `json:"conversation_id"`
	Name           string           `json:"name,omitempty"`
	URL            string           `json:"url,omitempty"`
	Messages       []*MessageRecord `json:"messages"`
	TakenAt        time.Time        `json:"taken_at"`
}

// CounterpartCount returns how many messages came from the other party.
func (t *ThreadSnapshot) CounterpartCount() int {
	n := 0
	for _, m := range t.Messages {
		if m.SenderRole == RoleCounterpart {
			n++
		}
	}
	return n
}

// LastMessage returns the final message of the thread, or nil when empty.
func (t *ThreadSnapshot) LastMessage() *MessageRecord {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}
