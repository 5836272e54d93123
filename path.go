package confdoc

import (
	"strconv"
	"strings"
)

// Paths are dotted: http.port, and sequence items use brackets: hosts[2].

func joinPath(base, key string) string {
	if key == "" {
		return base
	}
	if base == "" {
		return key
	}
	if key[0] == '[' {
		return base + key
	}
	return base + "." + key
}

func indexPath(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}

// rebase prefixes every issue path with base.
func rebase(base string, iss Issues) Issues {
	if base == "" || len(iss) == 0 {
		return iss
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		it.Path = joinPath(base, it.Path)
		out[i] = it
	}
	return out
}

// pathSegment is either a mapping key or a sequence index.
type pathSegment struct {
	key   string
	index int
	isIdx bool
}

// splitPath parses "a.b[1].c" into segments. Empty segments are rejected.
func splitPath(p string) ([]pathSegment, bool) {
	if p == "" {
		return nil, true
	}
	var segs []pathSegment
	for _, part := range strings.Split(p, ".") {
		key := part
		var idx []int
		if i := strings.IndexByte(part, '['); i >= 0 {
			key = part[:i]
			rest := part[i:]
			for rest != "" {
				if rest[0] != '[' {
					return nil, false
				}
				end := strings.IndexByte(rest, ']')
				if end < 0 {
					return nil, false
				}
				n, err := strconv.Atoi(rest[1:end])
				if err != nil || n < 0 {
					return nil, false
				}
				idx = append(idx, n)
				rest = rest[end+1:]
			}
		}
		if key == "" && len(idx) == 0 {
			return nil, false
		}
		if key != "" {
			segs = append(segs, pathSegment{key: key})
		}
		for _, n := range idx {
			segs = append(segs, pathSegment{index: n, isIdx: true})
		}
	}
	return segs, true
}
