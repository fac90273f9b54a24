package variant

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NodePath is a hierarchical address: node names separated by '/', followed
// by optional ':'-separated subnames addressing a property and its
// sub-components. "Player/Sprite:modulate:a" has names [Player Sprite] and
// subnames [modulate a]. A leading '/' makes the path absolute.
//
// The zero NodePath is empty and relative.
type NodePath struct {
	names    []string
	subnames []string
	absolute bool
}

// ParseNodePath parses the textual form. Empty segments are dropped and every
// segment is NFC-normalised, so visually identical names address the same
// node.
func ParseNodePath(s string) NodePath {
	var p NodePath
	if strings.HasPrefix(s, "/") {
		p.absolute = true
		s = s[1:]
	}
	nodePart, subPart, hasSub := strings.Cut(s, ":")
	p.names = splitSegments(nodePart, "/")
	if hasSub {
		p.subnames = splitSegments(subPart, ":")
	}
	return p
}

// NewNodePath builds a path from already split segments.
func NewNodePath(names, subnames []string, absolute bool) NodePath {
	return NodePath{
		names:    normalizeSegments(names),
		subnames: normalizeSegments(subnames),
		absolute: absolute,
	}
}

// NormalizeName returns the NFC form of a node name or property name, the
// form every path segment is stored in.
func NormalizeName(s string) string { return norm.NFC.String(s) }

func splitSegments(s, sep string) []string {
	if s == "" {
		return nil
	}
	return normalizeSegments(strings.Split(s, sep))
}

func normalizeSegments(in []string) []string {
	var out []string
	for _, seg := range in {
		if seg == "" {
			continue
		}
		out = append(out, NormalizeName(seg))
	}
	return out
}

func (p NodePath) Names() []string    { return slices.Clone(p.names) }
func (p NodePath) SubNames() []string { return slices.Clone(p.subnames) }
func (p NodePath) IsAbsolute() bool   { return p.absolute }

// IsEmpty reports whether the path has neither names nor subnames.
func (p NodePath) IsEmpty() bool {
	return len(p.names) == 0 && len(p.subnames) == 0 && !p.absolute
}

// NodePart returns the path with its subnames removed.
func (p NodePath) NodePart() NodePath {
	return NodePath{names: p.names, absolute: p.absolute}
}

// PropertyPart returns the subnames as a property-only path (":a:b").
func (p NodePath) PropertyPart() NodePath {
	return NodePath{subnames: p.subnames}
}

// Join appends a relative path. Names and subnames are merged segment by
// segment; "." segments are dropped. An absolute sub replaces p.
func (p NodePath) Join(sub NodePath) NodePath {
	if sub.absolute {
		return sub
	}
	out := NodePath{absolute: p.absolute}
	for _, n := range slices.Concat(p.names, sub.names) {
		if n != "." {
			out.names = append(out.names, n)
		}
	}
	out.subnames = slices.Concat(p.subnames, sub.subnames)
	if len(out.names) == 0 && !out.absolute && len(p.names)+len(sub.names) > 0 {
		out.names = []string{"."}
	}
	return out
}

// Depth is the number of names. Used to order restores parent-first.
func (p NodePath) Depth() int { return len(p.names) }

// String returns the textual form accepted by ParseNodePath.
func (p NodePath) String() string {
	var b strings.Builder
	if p.absolute {
		b.WriteByte('/')
	}
	b.WriteString(strings.Join(p.names, "/"))
	for _, s := range p.subnames {
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

// Equal reports whether both paths have the same segments and anchoring.
func (p NodePath) Equal(o NodePath) bool {
	return p.absolute == o.absolute &&
		slices.Equal(p.names, o.names) &&
		slices.Equal(p.subnames, o.subnames)
}
