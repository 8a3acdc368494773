package router

import (
	"strings"

	"github.com/pinterest/teletraan/pkg/routepath"
)

// node is a node in the route matching tree.
type node struct {
	// segment is the static path segment this node matches
	segment string

	// children are static segment children
	children []*node

	// paramChild matches any single segment (:name)
	paramChild *node

	// catchAll holds the route of a trailing "*" segment
	catchAll *leaf

	// route registered at exactly this depth, if any
	leaf *leaf
}

// leaf binds a route to one concrete shape of its template. A template
// with optional segments produces one leaf per shape.
type leaf struct {
	route *Route
	names []string
}

func (n *node) findChild(segment string) *node {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

func (n *node) addChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &node{segment: segment}
	n.children = append(n.children, child)
	return child
}

func (n *node) addParamChild() *node {
	if n.paramChild == nil {
		n.paramChild = &node{}
	}
	return n.paramChild
}

// insert adds every shape of route's template to the tree. It reports
// false if one of the shapes is already taken by another route.
func (n *node) insert(route *Route) bool {
	for _, shape := range expandOptional(routepath.ParseTemplate(route.Path)) {
		if !n.insertShape(route, shape) {
			return false
		}
	}
	return true
}

func (n *node) insertShape(route *Route, segs []routepath.Segment) bool {
	current := n
	var names []string
	for i, seg := range segs {
		switch {
		case seg.Param && seg.Literal == routepath.Wildcard && i == len(segs)-1:
			if current.catchAll != nil {
				return false
			}
			current.catchAll = &leaf{route: route, names: names}
			return true
		case seg.Param:
			names = append(names, seg.Literal)
			current = current.addParamChild()
		default:
			current = current.addChild(seg.Literal)
		}
	}
	if current.leaf != nil {
		return current.leaf.route == route
	}
	current.leaf = &leaf{route: route, names: names}
	return true
}

// expandOptional returns every combination of present and absent optional
// segments, longest first.
func expandOptional(segs []routepath.Segment) [][]routepath.Segment {
	shapes := [][]routepath.Segment{nil}
	for _, seg := range segs {
		var next [][]routepath.Segment
		for _, shape := range shapes {
			with := append(append([]routepath.Segment(nil), shape...), seg)
			next = append(next, with)
			if seg.Optional {
				next = append(next, shape)
			}
		}
		shapes = next
	}
	return shapes
}

// match walks the tree. Static children win over parameters, which win over
// a catch-all; a failed branch backtracks.
func (n *node) match(segments []string, values []string) (*leaf, []string, bool) {
	if len(segments) == 0 {
		if n.leaf != nil {
			return n.leaf, values, true
		}
		if n.catchAll != nil {
			return n.catchAll, append(values, ""), true
		}
		return nil, nil, false
	}

	segment := segments[0]
	remaining := segments[1:]

	if child := n.findChild(segment); child != nil {
		if l, vals, ok := child.match(remaining, values); ok {
			return l, vals, true
		}
	}

	if n.paramChild != nil {
		if l, vals, ok := n.paramChild.match(remaining, append(values, segment)); ok {
			return l, vals, true
		}
	}

	if n.catchAll != nil {
		return n.catchAll, append(values, strings.Join(segments, "/")), true
	}

	return nil, nil, false
}

// lookup matches a canonical path and decodes the parameters.
func (n *node) lookup(path string) (*Route, map[string]string, bool) {
	l, values, ok := n.match(splitPath(path), nil)
	if !ok {
		return nil, nil, false
	}

	// A catch-all leaf has one more value than names: the rest of the path.
	params := make(map[string]string, len(values))
	for i, raw := range values {
		if i < len(l.names) {
			v, err := routepath.DecodeSegment(raw, false)
			if err != nil {
				return nil, nil, false
			}
			params[l.names[i]] = v
			continue
		}
		v, err := routepath.DecodeSegment(raw, true)
		if err != nil {
			return nil, nil, false
		}
		params[routepath.Wildcard] = "/" + v
	}
	return l.route, params, true
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
