package site

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PagePath maps a wiki page title to its relative path in the mirror tree.
//
// Rules, in order:
//  1. Unicode is normalized to NFC so the same title always yields the
//     same bytes regardless of how the API composed it
//  2. Spaces become underscores, matching MediaWiki's own URL form
//  3. Subpage separators ("/") become directories
//  4. Bytes outside a conservative safe set are percent-escaped
//  5. ".html" is appended
//
// Design decision: We derive paths from titles rather than page IDs
// because the resulting tree is human-browsable in a git checkout, and
// diffs between runs stay readable.
func PagePath(title string) string {
	title = norm.NFC.String(title)
	title = strings.ReplaceAll(title, " ", "_")

	segments := strings.Split(title, "/")
	for i, segment := range segments {
		segments[i] = escapeSegment(segment)
	}

	return path.Join(segments...) + ".html"
}

// ResourcePath maps a resource URL to its relative path under resources/.
// The path embeds a short hash of the full URL so two resources that share
// a filename (thumbnails, load.php variants) never collide.
func ResourcePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	prefix := hex.EncodeToString(sum[:])[:8]

	name := "resource"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			name = escapeSegment(norm.NFC.String(base))
		}
	}

	return path.Join("resources", prefix+"-"+name)
}

// escapeSegment percent-escapes a single path segment.
// Empty and dot-only segments are replaced outright: they would change
// the directory structure instead of naming a file in it.
func escapeSegment(segment string) string {
	if segment == "" || segment == "." || segment == ".." {
		return "_"
	}

	var b strings.Builder
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if isSafePathByte(c) {
			b.WriteByte(c)
		} else {
			b.WriteString("%" + strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}

	return b.String()
}

// isSafePathByte reports whether a byte may appear unescaped in a path
// segment. The set is the intersection of what POSIX filesystems, git,
// and URLs all treat as ordinary characters.
func isSafePathByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	case c >= 0x80:
		// Non-ASCII UTF-8 bytes pass through; NFC normalization upstream
		// keeps them stable.
		return true
	}
	return false
}
