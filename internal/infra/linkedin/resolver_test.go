package linkedin

import (
	"errors"
	"testing"
)

func TestFirstMatchReturnsFirstNonEmpty(t *testing.T) {
	chain := []string{".primary", ".alt-one", ".alt-two"}
	byChain := map[string][]string{
		".primary": {},
		".alt-one": {"a", "b"},
		".alt-two": {"c"},
	}

	items, sel, err := firstMatch(chain, func(s string) ([]string, error) {
		return byChain[s], nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel != ".alt-one" {
		t.Errorf("winning selector = %q, want %q", sel, ".alt-one")
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}

	// With a single matching selector the chain order does not change
	// the outcome, only how many misses precede it.
	reordered := []string{".alt-one", ".primary", ".alt-two"}
	items2, sel2, err := firstMatch(reordered, func(s string) ([]string, error) {
		return byChain[s], nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel2 != sel || len(items2) != len(items) {
		t.Errorf("reordered chain gave sel=%q items=%d, want sel=%q items=%d",
			sel2, len(items2), sel, len(items))
	}
}

func TestFirstMatchEmptyChainMeansEmpty(t *testing.T) {
	items, sel, err := firstMatch([]string{".a", ".b"}, func(s string) ([]string, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel != "" || items != nil {
		t.Errorf("expected empty result, got sel=%q items=%v", sel, items)
	}
}

func TestFirstMatchSurfacesErrorOnlyWhenNothingMatched(t *testing.T) {
	boom := errors.New("query failed")

	// An error on an early selector is swallowed once a later one matches.
	items, sel, err := firstMatch([]string{".bad", ".good"}, func(s string) ([]string, error) {
		if s == ".bad" {
			return nil, boom
		}
		return []string{"x"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel != ".good" || len(items) != 1 {
		t.Errorf("got sel=%q items=%d, want .good with 1 item", sel, len(items))
	}

	// With no match anywhere the error comes back.
	_, _, err = firstMatch([]string{".bad"}, func(s string) ([]string, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected the query error, got %v", err)
	}
}

func TestChainOrDefault(t *testing.T) {
	builtin := []string{".built-in"}
	if got := chainOrDefault(nil, builtin); len(got) != 1 || got[0] != ".built-in" {
		t.Errorf("nil override should keep built-in, got %v", got)
	}
	if got := chainOrDefault([]string{".custom"}, builtin); len(got) != 1 || got[0] != ".custom" {
		t.Errorf("override should win, got %v", got)
	}
}

func TestPrependSelector(t *testing.T) {
	chain := []string{".a", ".b"}

	got := prependSelector(".stored", chain)
	if len(got) != 3 || got[0] != ".stored" {
		t.Errorf("stored selector should lead: %v", got)
	}

	// Already in the chain: moved to the front, not duplicated.
	got = prependSelector(".b", chain)
	if len(got) != 2 || got[0] != ".b" || got[1] != ".a" {
		t.Errorf("expected [.b .a], got %v", got)
	}

	if got := prependSelector("", chain); len(got) != 2 {
		t.Errorf("empty selector should leave the chain alone: %v", got)
	}
}
