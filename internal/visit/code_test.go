package visit

import (
	"context"
	"errors"
	"regexp"
	"testing"
)

var codePattern = regexp.MustCompile(`^CIT-[A-Z0-9]{3}-[A-Z0-9]{5}$`)

func neverExists(ctx context.Context, code string) (bool, error) { return false, nil }

func TestGenerateCode_Format(t *testing.T) {
	code, err := GenerateCode(context.Background(), "Meeting", neverExists)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !codePattern.MatchString(code) {
		t.Fatalf("code %q does not match format", code)
	}
	if code[:8] != "CIT-MEE-" {
		t.Fatalf("expected CIT-MEE- prefix for Meeting, got %q", code)
	}
}

func TestCategoryToken(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"Meeting", "MEE"},
		{"College of Computer Studies", "CCS"},
		{"Thesis Defense", "THE"},
		{"Zo o!", "ZOO"},
		{"a", "AXX"},
		{"", "VIS"},
		{"!!!", "VIS"},
	}
	for _, tc := range tests {
		if got := categoryToken(tc.category); got != tc.want {
			t.Fatalf("categoryToken(%q) = %q, want %q", tc.category, got, tc.want)
		}
	}
}

func TestGenerateCode_UniqueAcrossCalls(t *testing.T) {
	seen := map[string]bool{}
	exists := func(ctx context.Context, code string) (bool, error) {
		return seen[code], nil
	}

	for i := 0; i < 200; i++ {
		code, err := GenerateCode(context.Background(), "Meeting", exists)
		if err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q", code)
		}
		seen[code] = true
	}
}

func TestGenerateCode_ExhaustsAfterBoundedRetries(t *testing.T) {
	calls := 0
	alwaysTaken := func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := GenerateCode(context.Background(), "Meeting", alwaysTaken)
	if !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("expected ErrCodeExhausted, got %v", err)
	}
	if calls != codeMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", codeMaxAttempts, calls)
	}
}
