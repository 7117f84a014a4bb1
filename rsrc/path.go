package rsrc

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup resolves a "/"-separated path against t's root, per spec
// §4.3.4's path_lookup: at each segment, a name match is tried before
// an ID match.
func (t *Tree) Lookup(path string) (*Entry, error) {
	return t.Root.Lookup(path)
}

// Lookup resolves path relative to e.
func (e *Entry) Lookup(path string) (*Entry, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return e, nil
	}

	cur := e
	for _, seg := range strings.Split(path, "/") {
		if !cur.IsDirectory() {
			return nil, fmt.Errorf("%w: %q while resolving %q", ErrPathNotADirectory, cur.Identity.String(), path)
		}
		child := cur.GetChildByName(seg)
		if child == nil {
			if id, err := strconv.ParseUint(seg, 10, 32); err == nil {
				child = cur.GetChildByID(uint32(id))
			}
		}
		if child == nil {
			return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
		}
		cur = child
	}
	return cur, nil
}
