package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("GROCER_TEST_PORT", "")
	if got := Get("GROCER_TEST_PORT", "8080"); got != "8080" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("GROCER_TEST_PORT", "9090")
	if got := Get("GROCER_TEST_PORT", "8080"); got != "9090" {
		t.Fatalf("expected env value, got %q", got)
	}
}

func TestGetTreatsBlankAsUnset(t *testing.T) {
	t.Setenv("GROCER_TEST_FORMAT", "   ")
	if got := Get("GROCER_TEST_FORMAT", "json"); got != "json" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
	t.Setenv("GROCER_TEST_FORMAT", " console ")
	if got := Get("GROCER_TEST_FORMAT", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}
