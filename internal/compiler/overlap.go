package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nlupugla/saveload/internal/variant"
)

// OverlapWarning reports definitions that interact through the tree.
//
// Overlaps are warnings, not errors: two spawners may share a parent on
// purpose as long as their scenes produce distinct keys.
type OverlapWarning struct {
	Fields  []string `json:"fields"`
	Target  string   `json:"target"`
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeOverlaps resolves every spawn target and synchronizer root
// statically and reports:
//   - spawners that spawn into the same node (warning: their default keys
//     share one namespace)
//   - synchronizers rooted inside a spawn target (info: their values are
//     restored after the spawner recreates the subtree)
//
// Paths that climb above the scene root are left out of the analysis.
func AnalyzeOverlaps(doc *Document) []OverlapWarning {
	var warnings []OverlapWarning

	targets := make(map[string][]string)
	var order []string
	for i, s := range doc.Spawners {
		target, ok := ResolvePath(s.Path, s.SpawnPath)
		if !ok {
			continue
		}
		if _, seen := targets[target]; !seen {
			order = append(order, target)
		}
		targets[target] = append(targets[target], fmt.Sprintf("spawners[%d]", i))
	}
	for _, target := range order {
		fields := targets[target]
		if len(fields) > 1 {
			warnings = append(warnings, OverlapWarning{
				Fields:  fields,
				Target:  target,
				Message: fmt.Sprintf("%d spawners share spawn target %q", len(fields), target),
				Level:   "warning",
			})
		}
	}

	for i, s := range doc.Synchronizers {
		root, ok := ResolvePath(s.Path, s.Root)
		if !ok {
			continue
		}
		for _, target := range order {
			if root != target && isUnder(root, target) {
				warnings = append(warnings, OverlapWarning{
					Fields:  []string{fmt.Sprintf("synchronizers[%d]", i)},
					Target:  target,
					Message: fmt.Sprintf("synchronizer root %q is inside spawn target %q", root, target),
					Level:   "info",
				})
			}
		}
	}
	return warnings
}

// ResolvePath resolves rel against the node at base, both relative to the
// scene root, folding "." and ".." segments. An absolute rel is returned
// as is. ok is false when the result climbs above the root.
func ResolvePath(base, rel string) (string, bool) {
	r := variant.ParseNodePath(rel)
	if r.IsAbsolute() {
		return r.NodePart().String(), true
	}
	var out []string
	for _, seg := range slices.Concat(variant.ParseNodePath(base).Names(), r.Names()) {
		switch seg {
		case ".":
		case "..":
			if len(out) == 0 {
				return "", false
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return ".", true
	}
	return strings.Join(out, "/"), true
}

func isUnder(path, dir string) bool {
	if dir == "." {
		return true
	}
	return strings.HasPrefix(path, dir+"/")
}
