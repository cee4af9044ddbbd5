// Package filename normalizes user-supplied filenames for safe storage
// and safe emission in HTTP headers. All functions are total: they never
// fail and always return a usable value.
package filename

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Placeholder is returned when a raw filename cannot be decoded as text.
const Placeholder = "unknown_file"

// unsafeReplacer substitutes the characters that are unsafe in stored
// filenames. The underscore itself is never substituted, which keeps
// Normalize idempotent.
var unsafeReplacer = strings.NewReplacer(
	`\`, "_",
	"/", "_",
	"*", "_",
	"?", "_",
	":", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// Normalize returns a storage-safe form of name.
//
// Names that are not valid UTF-8 are reinterpreted as Latin-1; if that
// fails too the Placeholder name is used. The result is Unicode NFC
// normalized with each of \ / * ? : " < > | replaced by '_'.
func Normalize(name string) string {
	if !utf8.ValidString(name) {
		decoded, err := charmap.ISO8859_1.NewDecoder().String(name)
		if err != nil {
			return Placeholder
		}
		name = decoded
	}
	name = norm.NFC.String(name)
	return unsafeReplacer.Replace(name)
}

// SplitExt splits name into base and extension at the final dot, with
// the dot kept on the extension. Leading dots never start an extension,
// so dotfiles like ".bashrc" report no extension at all.
func SplitExt(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	lead := 0
	for lead < len(name) && name[lead] == '.' {
		lead++
	}
	if i < lead {
		return name, ""
	}
	return name[:i], name[i:]
}

// ForContentDisposition returns an RFC 5987 extended-parameter value
// (`filename*=UTF-8''...`) for name, percent-encoding every byte
// outside the unreserved set so non-ASCII filenames survive transport
// in a Content-Disposition header.
func ForContentDisposition(name string) string {
	name = Normalize(name)

	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return "filename*=UTF-8''" + b.String()
}

const upperhex = "0123456789ABCDEF"

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
