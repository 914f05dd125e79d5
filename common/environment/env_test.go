package environment_test

import (
	"testing"
	"time"

	"github.com/bdobrica/Hibiki/common/environment"
)

func TestStringOr(t *testing.T) {
	t.Setenv("TEST_STRING", "hello")
	if got := environment.StringOr("TEST_STRING", "default"); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
	if got := environment.StringOr("TEST_STRING_MISSING", "default"); got != "default" {
		t.Errorf("expected %q, got %q", "default", got)
	}
}

func TestRequiredString(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "value")
	v, err := environment.RequiredString("TEST_REQUIRED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "value" {
		t.Errorf("expected %q, got %q", "value", v)
	}

	_, err = environment.RequiredString("TEST_REQUIRED_MISSING")
	if err == nil {
		t.Error("expected error for missing variable, got nil")
	}
}

func TestBoolOr(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	if !environment.BoolOr("TEST_BOOL", false) {
		t.Error("expected true")
	}
	if environment.BoolOr("TEST_BOOL_MISSING", false) {
		t.Error("expected default false")
	}
	t.Setenv("TEST_BOOL_JUNK", "not-a-bool")
	if !environment.BoolOr("TEST_BOOL_JUNK", true) {
		t.Error("expected default true on parse failure")
	}
}

func TestFloatOr(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.85")
	if got := environment.FloatOr("TEST_FLOAT", 0.5); got != 0.85 {
		t.Errorf("expected 0.85, got %v", got)
	}
	if got := environment.FloatOr("TEST_FLOAT_MISSING", 0.5); got != 0.5 {
		t.Errorf("expected default 0.5, got %v", got)
	}
}

func TestDurationOr(t *testing.T) {
	t.Setenv("TEST_DURATION", "15m")
	if got := environment.DurationOr("TEST_DURATION", time.Minute); got != 15*time.Minute {
		t.Errorf("expected 15m, got %v", got)
	}
	if got := environment.DurationOr("TEST_DURATION_MISSING", time.Minute); got != time.Minute {
		t.Errorf("expected default 1m, got %v", got)
	}
}

func TestStringSliceOr(t *testing.T) {
	t.Setenv("TEST_SLICE", "a, b ,, c")
	got := environment.StringSliceOr("TEST_SLICE", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("unexpected slice: %v", got)
	}
	def := []string{"x"}
	if got := environment.StringSliceOr("TEST_SLICE_MISSING", def); len(got) != 1 || got[0] != "x" {
		t.Errorf("expected default, got %v", got)
	}
}
