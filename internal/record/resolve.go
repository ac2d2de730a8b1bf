package record

import (
	"strconv"
	"strings"
)

// Hit is one terminal value reached by a path walk.
type Hit struct {
	// Path is the concrete path: the dotted key with array positions
	// replaced by literal element indices, e.g. "measurement.series.0.channels.2.role".
	Path  string
	Value Node
}

// ResolvePath is Resolve over a dotted key.
func ResolvePath(root Node, dotted string) []Hit {
	if dotted == "" {
		return nil
	}
	return Resolve(root, strings.Split(dotted, "."))
}

// Resolve returns every (concrete path, value) pair reachable from root by
// following segments.
//
// At a Map the next segment is consumed if present. At a List the segment is
// NOT consumed: the walk forks over every element, appending the element's
// index to the concrete path, and retries the same segments. When no segments
// remain the current node is emitted. Paths that dead-end produce no hits.
//
// Hits are returned in walk order (list elements by ascending index), so the
// result is deterministic for a given record.
func Resolve(root Node, segments []string) []Hit {
	if len(segments) == 0 {
		return nil
	}
	var hits []Hit
	walk(root, segments, nil, &hits)
	return hits
}

func walk(n Node, remaining []string, crumbs []string, hits *[]Hit) {
	if len(remaining) == 0 {
		*hits = append(*hits, Hit{Path: strings.Join(crumbs, "."), Value: n})
		return
	}

	switch v := n.(type) {
	case Map:
		child, ok := v[remaining[0]]
		if !ok {
			return
		}
		walk(child, remaining[1:], extend(crumbs, remaining[0]), hits)
	case List:
		for i, elem := range v {
			walk(elem, remaining, extend(crumbs, strconv.Itoa(i)), hits)
		}
	default:
		// Leaf with segments left: dead end.
	}
}

// extend returns crumbs+seg without aliasing the caller's backing array;
// sibling forks must not overwrite each other's paths.
func extend(crumbs []string, seg string) []string {
	out := make([]string, len(crumbs)+1)
	copy(out, crumbs)
	out[len(crumbs)] = seg
	return out
}
