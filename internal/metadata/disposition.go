package metadata

import (
	"strings"
)

// ContentDispositionValue builds the attachment Content-Disposition header
// value for a filename. Pure-ASCII names use the plain quoted form; anything
// else uses the RFC 5987 extended form so non-ASCII filenames survive the
// ASCII-only header.
func ContentDispositionValue(filename string) string {
	if isASCII(filename) {
		escaped := strings.ReplaceAll(filename, `"`, `\"`)
		return `attachment; filename="` + escaped + `"`
	}
	return "attachment; filename*=UTF-8''" + percentEncode(filename)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

const upperhex = "0123456789ABCDEF"

// percentEncode escapes every byte outside the RFC 5987 attr-char set.
func percentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xF])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '&', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
