package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Path canonicalization errors.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in non-catch-all segment")
)

// CanonicalizePath normalizes a URL path before route matching:
//   - ensure a leading slash
//   - collapse repeated slashes (/envs//prod → /envs/prod)
//   - drop "." segments and resolve ".." segments
//   - drop the trailing slash (except for root)
//
// Backslashes, NUL bytes, malformed percent-escapes and ".." above the root
// are rejected.
func CanonicalizePath(path string) (string, error) {
	if path == "" {
		return "/", nil
	}
	if strings.Contains(path, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return "", err
		}
	}

	var result []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(result) == 0 {
				return "", ErrPathEscapesRoot
			}
			result = result[:len(result)-1]
		default:
			result = append(result, seg)
		}
	}
	return "/" + strings.Join(result, "/"), nil
}

// CanonicalizeNavURL validates a relative navigation URL coming from a
// client and canonicalizes its path. Absolute and protocol-relative URLs are
// rejected so they can't be used as open redirects.
func CanonicalizeNavURL(raw string) (Location, error) {
	if strings.HasPrefix(raw, "http://") ||
		strings.HasPrefix(raw, "https://") ||
		strings.HasPrefix(raw, "//") ||
		!strings.HasPrefix(raw, "/") {
		return Location{}, ErrInvalidPath
	}
	loc := SplitURL(raw)
	path, err := CanonicalizePath(loc.Path)
	if err != nil {
		return Location{}, err
	}
	loc.Path = path
	return loc, nil
}

// validatePercentEscapes checks that every '%' starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// DecodeSegment decodes a single path segment.
// Outside the catch-all, a decoded "/" (from %2F) is rejected.
func DecodeSegment(segment string, isCatchAll bool) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !isCatchAll && strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}
