package domain

// RawRecord is an unnormalized flashcard record as delivered by the
// generation service. Generated content drifts between schema revisions, so
// every accessor reads a list of candidate keys first-match-wins and returns
// a zero value when nothing usable is present. Accessors never panic.
type RawRecord map[string]any

// String returns the first non-empty string found under the given keys.
func (r RawRecord) String(keys ...string) string {
	if r == nil {
		return ""
	}
	for _, k := range keys {
		if s, ok := r[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Map returns the first nested object found under the given keys, or nil.
func (r RawRecord) Map(keys ...string) RawRecord {
	if r == nil {
		return nil
	}
	for _, k := range keys {
		switch v := r[k].(type) {
		case map[string]any:
			return RawRecord(v)
		case RawRecord:
			return v
		}
	}
	return nil
}

// Strings returns the string elements of the array stored under key.
// Non-string elements are skipped; an absent or mistyped value yields nil.
func (r RawRecord) Strings(key string) []string {
	if r == nil {
		return nil
	}
	arr, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Set stores a value under key, allocating nothing when the record is nil
// (a nil record stays nil; callers that need mutation must start from a
// non-nil record, which normalization guarantees).
func (r RawRecord) Set(key string, value any) {
	if r == nil {
		return
	}
	r[key] = value
}

// Clone returns a shallow copy of the record. Nested objects are shared.
func (r RawRecord) Clone() RawRecord {
	if r == nil {
		return nil
	}
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
