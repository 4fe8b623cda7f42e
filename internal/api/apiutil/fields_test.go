package apiutil

import (
	"testing"
)

func TestParsePositiveInt64Field(t *testing.T) {
	if _, err := ParsePositiveInt64Field("", "service_id"); err == nil {
		t.Error("expected empty value to fail")
	}
	if _, err := ParsePositiveInt64Field("0", "service_id"); err == nil {
		t.Error("expected zero to fail")
	}
	if _, err := ParsePositiveInt64Field("-3", "service_id"); err == nil {
		t.Error("expected negative to fail")
	}
	got, err := ParsePositiveInt64Field(" 42 ", "service_id")
	if err != nil || got != 42 {
		t.Errorf("expected 42, got %d / %v", got, err)
	}
}

func TestParseDateField(t *testing.T) {
	if _, err := ParseDateField("2025/12/01", "date"); err == nil {
		t.Error("expected slash-separated date to fail")
	}
	parsed, err := ParseDateField("2025-12-01", "date")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Format(DateLayout) != "2025-12-01" {
		t.Errorf("unexpected date: %v", parsed)
	}
}
