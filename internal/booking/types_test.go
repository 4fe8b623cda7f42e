package booking

import "testing"

func TestDisplayDate(t *testing.T) {
	if got := DisplayDate("2025-12-01"); got != "2025年12月1日" {
		t.Errorf("unexpected display date: %q", got)
	}
	if got := DisplayDate("2025-01-09"); got != "2025年1月9日" {
		t.Errorf("expected no zero padding, got %q", got)
	}
	if got := DisplayDate("not-a-date"); got != "not-a-date" {
		t.Errorf("expected unparseable input unchanged, got %q", got)
	}
}
