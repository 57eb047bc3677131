package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AllCategories sentinel category matching every video
const AllCategories = "all"

// ErrInvalidDuration duration string is not m:ss
var ErrInvalidDuration = errors.New("duration must be m:ss")

// ErrVideoNotFound no video with the given id
var ErrVideoNotFound = errors.New("video not found")

// Video 定義影片模型
type Video struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Duration    string  `json:"duration"` // "m:ss"
	Reward      int64   `json:"reward"`
	Thumbnail   string  `json:"thumbnail"`
	Category    string  `json:"category"`
	Watched     bool    `json:"watched"`
	Progress    float64 `json:"progress"` // percent 0-100
	Description string  `json:"description"`
}

// TotalSeconds returns the duration in seconds
func (v Video) TotalSeconds() (int, error) {
	return ParseDuration(v.Duration)
}

// MatchesCategory category 比對不分大小寫, empty or "all" matches every video
func (v Video) MatchesCategory(category string) bool {
	if category == "" || strings.EqualFold(category, AllCategories) {
		return true
	}
	return strings.EqualFold(v.Category, category)
}

// MatchesTerm reports whether term is a case-insensitive substring of the title or description
func (v Video) MatchesTerm(term string) bool {
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(v.Title), t) ||
		strings.Contains(strings.ToLower(v.Description), t)
}

// ParseDuration parses "m:ss" into seconds. Minutes may exceed 59; seconds may not.
func ParseDuration(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil || seconds < 0 || seconds > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	total := minutes*60 + seconds
	if total == 0 {
		return 0, fmt.Errorf("%w: %q is empty", ErrInvalidDuration, s)
	}
	return total, nil
}

// FormatClock formats seconds as m:ss
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
