package gold

import (
	"math"
	"testing"
)

func TestToFloat(t *testing.T) {
	t.Parallel()
	if f, ok := toFloat(12.5); !ok || f != 12.5 {
		t.Fatalf("toFloat(12.5) = %v, %v", f, ok)
	}
	if f, ok := toFloat("486.23"); !ok || f != 486.23 {
		t.Fatalf("toFloat(string) = %v, %v", f, ok)
	}
	if _, ok := toFloat(""); ok {
		t.Fatal("empty string should not parse")
	}
	if _, ok := toFloat(nil); ok {
		t.Fatal("nil should not parse")
	}
	if _, ok := toFloat("abc"); ok {
		t.Fatal("non-numeric string should not parse")
	}
}

func TestParseChangePercent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   any
		want *float64
	}{
		{"0.09%", ptr(0.09)},
		{"-0.36%", ptr(-0.36)},
		{"1.5", ptr(1.5)},
		{1.5, ptr(1.5)},
		{"", nil},
		{nil, nil},
		{"n/a", nil},
	}
	for _, tt := range tests {
		got := parseChangePercent(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseChangePercent(%v) = %v, want nil", tt.in, *got)
		case tt.want != nil && (got == nil || math.Abs(*got-*tt.want) > 1e-9):
			t.Errorf("parseChangePercent(%v) = %v, want %v", tt.in, got, *tt.want)
		}
	}
}

func ptr(f float64) *float64 { return &f }

func TestExtractRates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		payload map[string]any
		wantUSD float64
		wantNil bool
	}{
		{
			name:    "top level",
			payload: map[string]any{"rates": map[string]any{"usd": 2480.5}},
			wantUSD: 2480.5,
		},
		{
			name:    "under data",
			payload: map[string]any{"data": map[string]any{"rates": map[string]any{"USD": "2480.5"}}},
			wantUSD: 2480.5,
		},
		{
			name:    "under result",
			payload: map[string]any{"result": map[string]any{"rates": map[string]any{"USD": 2480.5}}},
			wantUSD: 2480.5,
		},
		{
			name:    "missing",
			payload: map[string]any{"success": true},
			wantNil: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rates := extractRates(tt.payload)
			if tt.wantNil {
				if rates != nil {
					t.Fatalf("rates = %v, want nil", rates)
				}
				return
			}
			if rates["USD"] != tt.wantUSD {
				t.Fatalf("rates = %v, want USD=%v", rates, tt.wantUSD)
			}
		})
	}
}

func TestSymbolToCurrency(t *testing.T) {
	t.Parallel()
	tests := []struct {
		symbol string
		want   string
		ok     bool
	}{
		{"XAUUSD", "USD", true},
		{"xauusd", "USD", true},
		{"XAUCNY", "CNY", true},
		{"XAUUSD_CNY", "CNY", true},
		{"AU9999", "", false},
	}
	for _, tt := range tests {
		got, ok := symbolToCurrency(tt.symbol)
		if got != tt.want || ok != tt.ok {
			t.Errorf("symbolToCurrency(%q) = %q, %v", tt.symbol, got, ok)
		}
	}
}

func TestMetalpriceBase(t *testing.T) {
	t.Parallel()
	if base, err := metalpriceBase(ProviderConfig{}); err != nil || base != "XAU" {
		t.Fatalf("default base = %q, %v", base, err)
	}
	if base, err := metalpriceBase(ProviderConfig{BaseCurrency: "xau"}); err != nil || base != "XAU" {
		t.Fatalf("explicit base = %q, %v", base, err)
	}
	if _, err := metalpriceBase(ProviderConfig{BaseCurrency: "XAG"}); err == nil {
		t.Fatal("expected error for non-XAU base")
	}
}

func TestApiErrorMessage(t *testing.T) {
	t.Parallel()
	if got := apiErrorMessage(map[string]any{"error": map[string]any{"info": "bad key"}}); got != "bad key" {
		t.Fatalf("got %q", got)
	}
	if got := apiErrorMessage(map[string]any{"error": "plain"}); got != "plain" {
		t.Fatalf("got %q", got)
	}
	if got := apiErrorMessage(map[string]any{}); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestFormatOptionalPtr(t *testing.T) {
	t.Parallel()
	if got := formatOptionalPtr(nil, 2); got != "—" {
		t.Fatalf("nil = %q", got)
	}
	if got := formatOptionalPtr(ptr(486.234), 2); got != "486.23" {
		t.Fatalf("got %q", got)
	}
}
