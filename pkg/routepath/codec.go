package routepath

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

// Wildcard is the template of the catch-all route. Its single parameter is
// stored under the same key.
const Wildcard = "*"

// ErrMissingParam is returned by BuildPath when a required parameter has no
// value.
var ErrMissingParam = errors.New("missing required route parameter")

// Segment is one parsed segment of a route template.
type Segment struct {
	// Literal is the static text, or the parameter name for parameters.
	Literal string

	// Param marks ":name" and ":name?" segments.
	Param bool

	// Optional marks ":name?" segments.
	Optional bool
}

// ParseTemplate splits a template into segments.
// The catch-all template yields a single parameter segment named "*".
func ParseTemplate(template string) []Segment {
	if template == Wildcard {
		return []Segment{{Literal: Wildcard, Param: true}}
	}
	trimmed := strings.Trim(template, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		if !strings.HasPrefix(p, ":") {
			segs = append(segs, Segment{Literal: p})
			continue
		}
		name := p[1:]
		optional := strings.HasSuffix(name, "?")
		if optional {
			name = name[:len(name)-1]
		}
		segs = append(segs, Segment{Literal: name, Param: true, Optional: optional})
	}
	return segs
}

// ParamNames returns the parameter names of a template in order.
func ParamNames(template string) []string {
	var names []string
	for _, seg := range ParseTemplate(template) {
		if seg.Param {
			names = append(names, seg.Literal)
		}
	}
	return names
}

// SerializeParams substitutes params into template.
//
// Segments are processed left to right in a single pass; substituted values
// are path-escaped and never re-scanned. An optional parameter without a
// value drops its whole segment. A required parameter without a value keeps
// its ":name" token in the output. An empty string counts as no value.
//
// For the catch-all template the result is params["*"] verbatim.
func SerializeParams(template string, params map[string]string) string {
	path, _ := serialize(template, params, false)
	return path
}

// BuildPath is SerializeParams that fails with ErrMissingParam instead of
// leaving an unsubstituted required parameter in the path.
func BuildPath(template string, params map[string]string) (string, error) {
	return serialize(template, params, true)
}

func serialize(template string, params map[string]string, strict bool) (string, error) {
	if template == Wildcard {
		return params[Wildcard], nil
	}

	var b strings.Builder
	for _, seg := range ParseTemplate(template) {
		if !seg.Param {
			b.WriteByte('/')
			b.WriteString(seg.Literal)
			continue
		}
		value := params[seg.Literal]
		switch {
		case value != "":
			b.WriteByte('/')
			b.WriteString(url.PathEscape(value))
		case seg.Optional:
			// dropped
		case strict:
			return "", &MissingParamError{Template: template, Name: seg.Literal}
		default:
			b.WriteString("/:")
			b.WriteString(seg.Literal)
		}
	}
	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

// MissingParamError reports which parameter BuildPath could not fill.
type MissingParamError struct {
	Template string
	Name     string
}

func (e *MissingParamError) Error() string {
	return ErrMissingParam.Error() + " " + e.Name + " in " + e.Template
}

func (e *MissingParamError) Unwrap() error {
	return ErrMissingParam
}

// SerializeQuery encodes query as "?k=v&..." with keys in sorted order.
// An empty or nil map yields "".
func SerializeQuery(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(query[k]))
	}
	return "?" + b.String()
}

// ParseQuery decodes a search string, with or without its leading "?".
// Repeated keys keep their first value. Malformed pairs are skipped.
func ParseQuery(search string) map[string]string {
	search = strings.TrimPrefix(search, "?")
	out := make(map[string]string)
	if search == "" {
		return out
	}
	for _, pair := range strings.Split(search, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = value
		}
	}
	return out
}

// Href builds a complete link for template, params and query.
//
// With hashbang routing the route path lives in the fragment:
// base + query + "#!" + path, where an empty base becomes "/" when there is
// no query string.
func Href(base string, hashbang bool, template string, params, query map[string]string) string {
	return HrefFromPath(base, hashbang, SerializeParams(template, params), SerializeQuery(query))
}

// HrefFromPath joins an already-serialized path and query string.
func HrefFromPath(base string, hashbang bool, path, search string) string {
	if !hashbang {
		return base + path + search
	}
	if search != "" {
		return base + search + "#!" + path
	}
	if base == "" {
		base = "/"
	}
	return base + "#!" + path
}

// Location is a browser location split into its parts.
type Location struct {
	// Path is the pathname, starting with "/".
	Path string

	// Search is the query string including "?", or "".
	Search string

	// Hash is the fragment including "#", or "".
	Hash string
}

// SplitURL splits a relative URL into path, search and hash without
// decoding anything.
func SplitURL(raw string) Location {
	var loc Location
	rest := raw
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		loc.Hash = rest[i:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		loc.Search = rest[i:]
		rest = rest[:i]
	}
	loc.Path = rest
	if loc.Path == "" {
		loc.Path = "/"
	}
	return loc
}

// String joins the location back into pathname + search + hash.
func (l Location) String() string {
	return l.Path + l.Search + l.Hash
}

// RoutePath extracts the path to match against the route table.
// It strips base and, in hashbang mode, reads the path from the "#!" fragment.
func (l Location) RoutePath(base string, hashbang bool) string {
	if hashbang {
		if strings.HasPrefix(l.Hash, "#!") {
			return SplitURL(l.Hash[2:]).Path
		}
		return "/"
	}
	p := strings.TrimPrefix(l.Path, base)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
