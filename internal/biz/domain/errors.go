package domain

import (
	"errors"
	"fmt"
)

// ErrNotAuthorized signals that no logged-in session exists. It is the
// one failure that changes control flow rather than reporting a data
// problem: the orchestrator must trigger a login, not retry.
var ErrNotAuthorized = errors.New("not authorized: no active LinkedIn session")

// ErrStaleIdentity signals a synthetic identity minted by a snapshot
// that has since been replaced. Stale identities are rejected, never
// re-resolved against the new snapshot.
var ErrStaleIdentity = errors.New("stale conversation identity: snapshot has been replaced")

// NotFoundError reports a target absent from the latest snapshot.
type NotFoundError struct {
	Target string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("conversation %q not found in the latest snapshot", e.Target)
}

// AmbiguousError reports a by-name lookup matching several records.
// Identity lookups never produce it.
type AmbiguousError struct {
	Name    string
	Matches []*ConversationRecord
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("name %q is ambiguous: %d conversations match", e.Name, len(e.Matches))
}

// OutOfRangeError reports a stored card index that no longer fits the
// live card list.
type OutOfRangeError struct {
	Index int
	Count int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("card index %d out of range (%d cards in current list)", e.Index, e.Count)
}

// ErrorCode maps an error to the code carried in tool-result envelopes.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var nf *NotFoundError
	var amb *AmbiguousError
	var oor *OutOfRangeError
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrStaleIdentity):
		return "stale_identity"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &amb):
		return "ambiguous"
	case errors.As(err, &oor):
		return "out_of_range"
	default:
		return "error"
	}
}
