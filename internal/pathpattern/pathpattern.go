// Package pathpattern matches request paths against Ant-style patterns such
// as "/v1/**" or "/v1/*/items".
//
// A pattern is split into "/"-separated segments. "**" matches zero or more
// whole segments; any other segment is matched with path.Match, so "*", "?"
// and character classes work within a single segment.
package pathpattern

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

const doubleStar = "**"

// ErrInvalidPattern is returned by Compile for malformed patterns.
var ErrInvalidPattern = errors.New("invalid path pattern")

// Pattern is a compiled path pattern. It is safe for concurrent use.
type Pattern struct {
	raw      string
	segments []string
}

// Compile parses pattern and reports whether it is well formed.
func Compile(pattern string) (*Pattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: %q must start with '/'", ErrInvalidPattern, pattern)
	}

	segments := splitSegments(pattern)
	for _, seg := range segments {
		if seg == doubleStar {
			continue
		}
		if strings.Contains(seg, doubleStar) {
			return nil, fmt.Errorf("%w: %q: '**' must be a whole segment", ErrInvalidPattern, pattern)
		}
		if _, err := path.Match(seg, ""); err != nil {
			return nil, fmt.Errorf("%w: %q: segment %q: %v", ErrInvalidPattern, pattern, seg, err)
		}
	}

	return &Pattern{raw: pattern, segments: segments}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern as given to Compile.
func (p *Pattern) String() string {
	return p.raw
}

// Match reports whether the request path matches the pattern.
// Empty segments ("//", trailing "/") are ignored.
func (p *Pattern) Match(requestPath string) bool {
	if !strings.HasPrefix(requestPath, "/") {
		return false
	}
	return matchSegments(p.segments, splitSegments(requestPath))
}

func matchSegments(pattern, segments []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == doubleStar {
			// Collapse runs of "**".
			for len(pattern) > 0 && pattern[0] == doubleStar {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(segments); i++ {
				if matchSegments(pattern, segments[i:]) {
					return true
				}
			}
			return false
		}

		if len(segments) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], segments[0])
		if err != nil || !ok {
			return false
		}
		pattern = pattern[1:]
		segments = segments[1:]
	}
	return len(segments) == 0
}

func splitSegments(p string) []string {
	parts := strings.Split(p, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
