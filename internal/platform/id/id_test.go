package id

import (
	"strings"
	"testing"
)

func TestNewShape(t *testing.T) {
	t.Parallel()

	value := New()
	if len(value) != 26 {
		t.Fatalf("id length = %d, want 26", len(value))
	}
	if value != strings.ToLower(value) {
		t.Fatalf("id %q is not lowercase", value)
	}
	if strings.Contains(value, "=") {
		t.Fatalf("id %q contains padding", value)
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	if value := New(); !Valid(value) {
		t.Fatalf("generated id %q reported invalid", value)
	}
	for _, bad := range []string{
		"",
		"short",
		strings.Repeat("a", 25),
		strings.Repeat("a", 27),
		strings.ToUpper(New()),
		strings.Repeat("!", 26),
	} {
		if Valid(bad) {
			t.Fatalf("Valid(%q) = true, want false", bad)
		}
	}
}

func TestNewDoesNotRepeat(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		value := New()
		if _, ok := seen[value]; ok {
			t.Fatalf("duplicate id %q after %d generations", value, i)
		}
		seen[value] = struct{}{}
	}
}
