package textutil

import (
	"strings"
	"testing"
)

func TestNormalizeSentenceSpacing(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"taught CS51.So you've taken it", "taught CS51. So you've taken it"},
		{"Hello!How are you?Fine", "Hello! How are you? Fine"},
		{"too  many   spaces", "too many spaces"},
		{"space before , comma", "space before, comma"},
		{"  trimmed  ", "trimmed"},
		{"", ""},
		{"already fine. Next sentence.", "already fine. Next sentence."},
	}
	for _, c := range cases {
		if got := NormalizeSentenceSpacing(c.in); got != c.want {
			t.Errorf("NormalizeSentenceSpacing(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatMMSS(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{59.9, "00:59"},
		{60, "01:00"},
		{125, "02:05"},
		{3600, "60:00"},
		{-5, "00:00"},
	}
	for _, c := range cases {
		if got := FormatMMSS(c.in); got != c.want {
			t.Errorf("FormatMMSS(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSoftBreakLongToken(t *testing.T) {
	got := SoftBreakLongToken("abcdefgh", 3)
	if !strings.Contains(got, "​") {
		t.Fatalf("expected zero-width break in %q", got)
	}
	if strings.ReplaceAll(got, "​", "") != "abcdefgh" {
		t.Errorf("breaking changed content: %q", got)
	}

	if got := SoftBreakLongToken("ab cd", 3); got != "ab cd" {
		t.Errorf("short tokens should be untouched, got %q", got)
	}
	if got := SoftBreakLongToken("abc", 0); got != "abc" {
		t.Errorf("non-positive width should be a no-op, got %q", got)
	}
}
