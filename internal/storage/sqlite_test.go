package storage

import (
	"context"
	"errors"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertApplication_ConflictSkip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	app := Application{
		Program:       "Johns Hopkins University - Computer Science",
		DateAdded:     "2026-02-12",
		URL:           "https://example.com/survey/?page=1",
		Status:        ptr("Accepted"),
		Term:          ptr("Fall 2026"),
		Citizenship:   ptr("International"),
		GPA:           ptr(3.9),
		GRE:           ptr(325),
		GREVerbal:     ptr(160),
		GREAW:         ptr(5.0),
		Degree:        ptr("PhD"),
		LLMProgram:    "Computer Science PhD",
		LLMUniversity: "Johns Hopkins University",
	}

	inserted, err := s.InsertApplication(ctx, app)
	if err != nil {
		t.Fatalf("first insert error: %v", err)
	}
	if !inserted {
		t.Fatal("first insert should report a row written")
	}

	// Same URL again: skipped silently, zero rows reported.
	inserted, err = s.InsertApplication(ctx, app)
	if err != nil {
		t.Fatalf("duplicate insert error: %v", err)
	}
	if inserted {
		t.Error("duplicate insert should not report a row written")
	}

	n, err := s.CountApplications(ctx)
	if err != nil {
		t.Fatalf("CountApplications error: %v", err)
	}
	if n != 1 {
		t.Errorf("CountApplications = %d, want 1", n)
	}
}

func TestInsertApplication_NullableFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.InsertApplication(ctx, Application{
		Program:       "Mathematics",
		DateAdded:     "2026-01-05",
		URL:           "https://example.com/survey/?page=2",
		LLMProgram:    "Mathematics Masters",
		LLMUniversity: "Unknown",
	})
	if err != nil {
		t.Fatalf("insert error: %v", err)
	}

	got, err := s.GetApplication(ctx, "https://example.com/survey/?page=2")
	if err != nil {
		t.Fatalf("GetApplication error: %v", err)
	}
	if got.GPA != nil || got.Status != nil || got.Comments != nil {
		t.Errorf("absent fields should read back as nil, got %+v", got)
	}
}

func TestGetApplication_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetApplication(context.Background(), "https://example.com/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetApplication error = %v, want ErrNotFound", err)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{42, 42},
		{100, 100},
		{101, 100},
		{100000, 100},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", DefaultLimit},
		{"abc", DefaultLimit},
		{"3.5", DefaultLimit},
		{"-1", 1},
		{"50", 50},
		{"9999", MaxAllowedLimit},
	}
	for _, tt := range tests {
		if got := ParseLimit(tt.in); got != tt.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
