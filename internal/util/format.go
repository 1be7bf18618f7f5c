package util

import (
	"fmt"
	"strings"
	"time"

	"compotube/internal/model"

	"github.com/dustin/go-humanize"
)

// FormatPublished formats a publish time as "3 days ago", or "Unknown" when zero.
func FormatPublished(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return humanize.Time(t)
}

// FormatPublishedDate formats a publish time as "Jan 02, 2006".
func FormatPublishedDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("Jan 02, 2006")
}

// FormatCount formats n with a singular or plural noun: "1 result", "1,024 results".
func FormatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

// FormatResultLine renders a search item on one line for terminal output.
func FormatResultLine(item model.SearchItem, width int) string {
	line := fmt.Sprintf("%s  %s · %s",
		item.Title,
		item.ChannelTitle,
		FormatPublished(item.PublishedAt),
	)
	if width > 0 {
		line = TruncateString(line, width)
	}
	return line
}

// VideoURL returns the watch URL of a video.
func VideoURL(videoID string) string {
	if strings.TrimSpace(videoID) == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + videoID
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
