package digest

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// NoText replaces a blank post text in headlines.
const NoText = "No text"

// SmartTitle builds a one-line headline from a post: whitespace is
// collapsed, at most maxWords words are kept, and the result is cut to
// maxChars runes. An ellipsis marks any truncation.
func SmartTitle(text string, maxWords, maxChars int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return NoText
	}

	truncated := false
	if len(words) > maxWords {
		words = words[:maxWords]
		truncated = true
	}
	title := strings.Join(words, " ")

	if utf8.RuneCountInString(title) > maxChars {
		runes := []rune(title)
		return string(runes[:maxChars-3]) + "..."
	}
	if truncated {
		title += "..."
	}
	return title
}

// FormatNumber abbreviates counts: 1500 -> "1.5K", 2000000 -> "2M".
func FormatNumber(n int64) string {
	switch {
	case n >= 1_000_000:
		return trimZero(strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64)) + "M"
	case n >= 1_000:
		return trimZero(strconv.FormatFloat(float64(n)/1_000, 'f', 1, 64)) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

// FormatGrowth renders a signed percentage with one decimal: "+12.5%".
func FormatGrowth(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', 1, 64)
	if pct >= 0 {
		s = "+" + s
	}
	return s + "%"
}
