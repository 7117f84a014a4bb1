package pe

import (
	"fmt"

	"github.com/aeondave/peforge/rsrc"
)

// ResourceHandler is a handle to a PE image's .rsrc resource tree. It
// holds a non-owning back-reference to its container. Relocating the
// .rsrc section is done by PE.Malloc, which updates the optional
// header's ResourceTable RVA itself; the handler does not.
type ResourceHandler struct {
	pe      *PE
	section *Section
	tree    *rsrc.Tree
}

func newResourceHandler(p *PE, sec *Section) (*ResourceHandler, error) {
	tree, err := rsrc.Decode(sec.RawData, sec.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("decoding .rsrc section %q: %w", sec.TagName(), err)
	}
	return &ResourceHandler{pe: p, section: sec, tree: tree}, nil
}

// Root returns the synthetic root directory entry of the resource tree.
func (h *ResourceHandler) Root() *rsrc.Entry {
	return h.tree.Root
}

// GetEntryFromPath resolves a "/"-separated path against the tree,
// trying a name match before an ID match at each segment.
func (h *ResourceHandler) GetEntryFromPath(path string) (*rsrc.Entry, error) {
	return h.tree.Lookup(path)
}

// Section returns the underlying .rsrc Section backing this handler.
func (h *ResourceHandler) Section() *Section {
	return h.section
}

// Encode re-serializes the tree with opts and writes the result back
// into the underlying .rsrc section's RawData, relocated to the
// section's current VirtualAddress. Call this before PE.Write after
// mutating the tree.
func (h *ResourceHandler) Encode(opts rsrc.EncodeOptions) error {
	data, err := rsrc.Encode(h.tree, opts)
	if err != nil {
		return err
	}
	if err := rsrc.Shift(data, int64(h.section.VirtualAddress)); err != nil {
		return err
	}
	h.section.RawData = data
	h.section.VirtualSize = uint32(len(data))
	return nil
}
