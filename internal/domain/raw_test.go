package domain

import (
	"reflect"
	"testing"
)

func TestRawRecord_String_FirstMatchWins(t *testing.T) {
	t.Parallel()

	r := RawRecord{
		"_id":     "abc",
		"card_id": "def",
	}

	if got := r.String("id", "_id", "card_id"); got != "abc" {
		t.Errorf("String = %q, want %q", got, "abc")
	}
	if got := r.String("missing", "also_missing"); got != "" {
		t.Errorf("String = %q, want empty", got)
	}
}

func TestRawRecord_String_SkipsEmptyAndMistyped(t *testing.T) {
	t.Parallel()

	r := RawRecord{
		"id":      "",
		"_id":     42,
		"card_id": "ok",
	}

	if got := r.String("id", "_id", "card_id"); got != "ok" {
		t.Errorf("String = %q, want %q", got, "ok")
	}
}

func TestRawRecord_NilSafety(t *testing.T) {
	t.Parallel()

	var r RawRecord

	if got := r.String("id"); got != "" {
		t.Errorf("nil String = %q, want empty", got)
	}
	if got := r.Map("content_data"); got != nil {
		t.Errorf("nil Map = %v, want nil", got)
	}
	if got := r.Strings("options"); got != nil {
		t.Errorf("nil Strings = %v, want nil", got)
	}
	// Must not panic.
	r.Set("key", "value")
}

func TestRawRecord_Map(t *testing.T) {
	t.Parallel()

	r := RawRecord{
		"content_data": map[string]any{"subtext": "hello"},
	}

	cd := r.Map("content", "content_data")
	if cd == nil {
		t.Fatal("Map returned nil")
	}
	if got := cd.String("subtext"); got != "hello" {
		t.Errorf("subtext = %q, want %q", got, "hello")
	}
}

func TestRawRecord_Strings(t *testing.T) {
	t.Parallel()

	r := RawRecord{
		"options": []any{"A", "B", 3, "C"},
	}

	got := r.Strings("options")
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Strings = %v, want %v", got, want)
	}
}

func TestRawRecord_Clone(t *testing.T) {
	t.Parallel()

	r := RawRecord{"prompt": "hi"}
	c := r.Clone()
	c.Set("prompt", "changed")

	if got := r.String("prompt"); got != "hi" {
		t.Errorf("original mutated: prompt = %q", got)
	}
}
