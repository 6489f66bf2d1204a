package plugin

import (
	"strings"
	"testing"
)

type decodeTarget struct {
	Symbols []string          `json:"symbols"`
	Names   map[string]string `json:"names,omitempty"`
	Count   *int              `json:"count,omitempty"`
}

func TestDecode(t *testing.T) {
	t.Parallel()
	raw := map[string]any{
		"symbols": []any{"600519.SH", "0700.HK"},
		"names":   map[any]any{"600519.SH": "贵州茅台"},
		"count":   3,
	}
	var got decodeTarget
	if err := Decode(raw, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Symbols) != 2 || got.Symbols[1] != "0700.HK" {
		t.Fatalf("Symbols = %v", got.Symbols)
	}
	if got.Names["600519.SH"] != "贵州茅台" {
		t.Fatalf("Names = %v", got.Names)
	}
	if got.Count == nil || *got.Count != 3 {
		t.Fatalf("Count = %v", got.Count)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	raw := map[string]any{"symbols": []any{"A"}, "symbls": []any{"typo"}}
	var got decodeTarget
	err := Decode(raw, &got)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "symbls") {
		t.Fatalf("error %q should name the offending key", err)
	}
}

func TestDecodeNilMap(t *testing.T) {
	t.Parallel()
	var got decodeTarget
	if err := Decode(nil, &got); err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	if got.Symbols != nil || got.Count != nil {
		t.Fatalf("expected zero value, got %+v", got)
	}
}
