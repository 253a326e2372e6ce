package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half away from zero
		{"12.344", "12.34", true},
		{" 2.50 ", "2.5", true},
		{".5", "0.5", true},
		{"0", "0", true},
		{"999999999999.99", "999999999999.99", true},
		{"1000000000000", "", false},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatEuros(t *testing.T) {
	cases := map[string]string{
		"0":       "€0,00",
		"12.3":    "€12,30",
		"1234.56": "€1234,56",
		"-5":      "-€5,00",
	}
	for in, want := range cases {
		if got := FormatEuros(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatEuros(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestPeriod(t *testing.T) {
	if _, err := NewPeriod(2025, 13); err != ErrInvalidMonth {
		t.Fatalf("month 13: got %v", err)
	}
	if _, err := NewPeriod(1800, 1); err != ErrInvalidYear {
		t.Fatalf("year 1800: got %v", err)
	}
	p, err := NewPeriod(2025, 1)
	if err != nil {
		t.Fatal(err)
	}
	if prev := p.Previous(); prev != (Period{Year: 2024, Month: 12}) {
		t.Fatalf("previous of %v = %v", p, prev)
	}
	if next := (Period{Year: 2024, Month: 12}).Next(); next != p {
		t.Fatalf("next of December 2024 = %v", next)
	}
	if p.String() != "January 2025" || p.Key() != "2025-01" {
		t.Fatalf("unexpected rendering %q %q", p.String(), p.Key())
	}
}
