package linkedin

// firstMatch tries each selector in the chain against q and returns the
// elements from the first one that yields any, along with the winning
// selector. An empty result with nil error means the whole chain came up
// empty, which callers treat as "nothing there", not failure.
func firstMatch[T any](chain []string, q func(sel string) ([]T, error)) ([]T, string, error) {
	var lastErr error
	for _, sel := range chain {
		items, err := q(sel)
		if err != nil {
			lastErr = err
			continue
		}
		if len(items) > 0 {
			return items, sel, nil
		}
	}
	if lastErr != nil {
		return nil, "", lastErr
	}
	return nil, "", nil
}

// chainOrDefault substitutes a configured override chain for the built-in
// one when the override has entries.
func chainOrDefault(override, builtin []string) []string {
	if len(override) > 0 {
		return override
	}
	return builtin
}

// prependSelector puts a previously recorded selector at the front of a
// chain so a replayed query tries the exact selector that matched last
// time before falling back.
func prependSelector(sel string, chain []string) []string {
	if sel == "" {
		return chain
	}
	out := make([]string, 0, len(chain)+1)
	out = append(out, sel)
	for _, s := range chain {
		if s != sel {
			out = append(out, s)
		}
	}
	return out
}
