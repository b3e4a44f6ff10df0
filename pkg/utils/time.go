package utils

import (
	"fmt"
	"time"
)

// TimeAgo returns human-readable time ago string
func TimeAgo(t time.Time) string {
	return timeAgo(time.Since(t))
}

func timeAgo(duration time.Duration) string {
	if duration < time.Minute {
		return "just now"
	}
	if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := int(duration.Hours() / 24)
	if days == 1 {
		return "yesterday"
	}
	if days < 7 {
		return fmt.Sprintf("%d days ago", days)
	}

	weeks := days / 7
	if weeks == 1 {
		return "1 week ago"
	}
	return fmt.Sprintf("%d weeks ago", weeks)
}

// FormatChapterNumber prints 12 as "12" and 10.5 as "10.5"
func FormatChapterNumber(n float64) string {
	return fmt.Sprintf("%g", n)
}
