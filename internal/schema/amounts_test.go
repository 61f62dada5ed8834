package schema

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"(1,234.50)", -1234.50, true},
		{"$1234.50", 1234.50, true},
		{"₹1234.50", 1234.50, true},
		{"1234.50", 1234.50, true},
		{"£99", 99, true},
		{"-42.5", -42.5, true},
		{"1,000,000", 1000000, true},
		{"  250.00  ", 250, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"12 Jan 2024", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseAmount(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAmountParenthesesAreNegative(t *testing.T) {
	got, ok := ParseAmount("($99.99)")
	if !ok || got != -99.99 {
		t.Fatalf("ParseAmount((\"$99.99\")) = %v, %v; want -99.99, true", got, ok)
	}
}
