// Package validation normalizes user supplied channel references.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidHandle is returned for references that are not a public channel username.
	ErrInvalidHandle = errors.New("invalid channel handle")

	// ErrInvalidTitle is returned for titles that are empty after trimming or too long.
	ErrInvalidTitle = errors.New("invalid channel title")
)

// MaxTitleLength is the longest title accepted on submission, in runes.
const MaxTitleLength = 255

var usernameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{3,30}[a-z0-9]$`)

var linkPrefixes = []string{
	"https://t.me/",
	"http://t.me/",
	"https://telegram.me/",
	"http://telegram.me/",
	"t.me/",
	"telegram.me/",
}

// NormalizeHandle turns "@Name", "name" or a t.me link into the canonical
// "@name" form. Invite links and post links are rejected.
func NormalizeHandle(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)

	for _, prefix := range linkPrefixes {
		if strings.HasPrefix(lower, prefix) {
			lower = strings.TrimSuffix(lower[len(prefix):], "/")
			if strings.ContainsAny(lower, "/?+") {
				return "", fmt.Errorf("%w: %q", ErrInvalidHandle, raw)
			}
			break
		}
	}

	name := strings.TrimPrefix(lower, "@")
	if !usernameRegex.MatchString(name) || strings.Contains(name, "__") {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, raw)
	}

	return "@" + name, nil
}

// IsValidHandle reports whether raw normalizes cleanly.
func IsValidHandle(raw string) bool {
	_, err := NormalizeHandle(raw)
	return err == nil
}

// NormalizeTitle trims a submitted title, falling back to the handle when
// the submitter left it blank.
func NormalizeTitle(title, handle string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = handle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidTitle, MaxTitleLength)
	}
	return title, nil
}
