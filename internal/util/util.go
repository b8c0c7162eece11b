// Package util provides small string helpers shared by the extractors and
// the result sinks.
package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SplitEscaped splits s on sep, ignoring separators preceded by a backslash.
// The escapes are kept; run Unescape on each part afterwards.
func SplitEscaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// Unescape drops the backslash in front of escaped characters. A trailing
// lone backslash is kept.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// SanitizeFileName turns an arbitrary label into something safe to use as
// a file name on every platform.
func SanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r), r < 0x20:
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}

// BaseName returns the file name without directory and without every
// extension, so "a/b/track.zip.acmi" becomes "track".
func BaseName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

// FormatClock renders seconds of the day as hh:mm:ss. Negative values
// render as "--:--:--".
func FormatClock(seconds int) string {
	if seconds < 0 {
		return "--:--:--"
	}
	seconds %= 24 * 60 * 60
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
