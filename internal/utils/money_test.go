package utils

import (
	"strings"
	"testing"
)

func TestFormatTRY(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12500, "12.500 ₺"},
		{0, "0 ₺"},
		{1234.5, "1.234,50 ₺"},
	}
	for _, tt := range tests {
		if got := FormatTRY(tt.in); got != tt.want {
			t.Fatalf("%v: expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(100.0 / 3); !strings.Contains(got, "33,3") {
		t.Fatalf("expected 33,3 in %q", got)
	}
}

func TestSetLogLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "INFO", " warn ", "error", ""} {
		if err := SetLogLevel(lvl); err != nil {
			t.Fatalf("%q: %v", lvl, err)
		}
	}
	if err := SetLogLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	_ = SetLogLevel("info")
}
