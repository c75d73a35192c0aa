package domain

import "time"

// Visit is the per-conversation activity ledger row: when a thread was
// last opened and read, and how many messages the last read returned.
type Visit struct {
	ConversationID string
	Name           string
	OpenCount      int
	LastOpenedAt   time.Time
	LastReadAt     time.Time
	MessageCount   int
	UpdatedAt      time.Time
}

// RecordOpen marks a successful thread open.
func (v *Visit) RecordOpen() {
	now := time.Now()
	v.OpenCount++
	v.LastOpenedAt = now
	v.UpdatedAt = now
}

// RecordRead marks a completed message extraction of count messages.
func (v *Visit) RecordRead(count int) {
	now := time.Now()
	v.MessageCount = count
	v.LastReadAt = now
	v.UpdatedAt = now
}

// IdleLongerThan reports whether the visit has seen no activity for at
// least d.
func (v *Visit) IdleLongerThan(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	return time.Since(v.UpdatedAt) > d
}
