package util

import (
	"strings"
	"testing"
	"time"

	"compotube/internal/model"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 results"},
		{1, "1 result"},
		{2, "2 results"},
		{1024, "1,024 results"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.n, "result"); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatPublished(t *testing.T) {
	if got := FormatPublished(time.Time{}); got != "Unknown" {
		t.Errorf("FormatPublished(zero) = %q, want Unknown", got)
	}
	if got := FormatPublished(time.Now().Add(-72 * time.Hour)); got != "3 days ago" {
		t.Errorf("FormatPublished(3 days) = %q, want 3 days ago", got)
	}
	if got := FormatPublishedDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); got != "Mar 01, 2024" {
		t.Errorf("FormatPublishedDate = %q", got)
	}
}

func TestFormatResultLine(t *testing.T) {
	item := model.SearchItem{VideoID: "abc", Title: "Cats", ChannelTitle: "Cat Channel"}

	if got, want := FormatResultLine(item, 0), "Cats  Cat Channel · Unknown"; got != want {
		t.Errorf("FormatResultLine = %q, want %q", got, want)
	}

	got := FormatResultLine(item, 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "...") {
		t.Errorf("FormatResultLine(width 10) = %q", got)
	}
}

func TestVideoURL(t *testing.T) {
	if got := VideoURL("abc"); got != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("VideoURL = %q", got)
	}
	if got := VideoURL(" "); got != "" {
		t.Errorf("VideoURL(blank) = %q, want empty", got)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is long", 8, "this ..."},
		{"héllo wörld", 6, "hél..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := TruncateString(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}
