package textutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// invalidFileNameChars are stripped from output names.
const invalidFileNameChars = `<>:"/\|?*`

// SanitizeFileName removes filesystem-unsafe characters from name after NFC
// normalization. Control characters are dropped and surrounding whitespace
// and dots are trimmed.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(invalidFileNameChars, r) {
			return -1
		}
		return r
	}, name)
	return strings.Trim(cleaned, " .")
}

// OutputFileName sanitizes the base name of path, keeping its extension. It
// returns fallback plus the extension when nothing printable remains.
func OutputFileName(path, fallback string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := SanitizeFileName(strings.TrimSuffix(base, ext))
	if stem == "" {
		stem = SanitizeFileName(fallback)
	}
	if stem == "" {
		stem = "audio"
	}
	return stem + strings.ToLower(ext)
}

// Token keeps the ASCII letters, digits, dots, hyphens and underscores of
// value and drops everything else. The result is capped at limit bytes when
// limit is positive; it is empty when nothing survives.
func Token(value string, limit int) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		if limit > 0 && b.Len() >= limit {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}
