package pe

import (
	"fmt"
	"sort"

	"github.com/aeondave/peforge/rsrc"
)

// Malloc adds a new section to the container, assigning it a
// non-colliding virtual address (spec §4.2.5). If the image has a
// .rsrc section, it is kept last in virtual-address order and its
// intra-tree pointers are patched to follow any RVA it's displaced to.
//
// resort controls whether the section list is re-sorted by
// VirtualAddress afterward; per spec §9 this is the caller's choice,
// not an automatic consequence of insertion.
func (p *PE) Malloc(s *Section, resort bool) error {
	sectionAlignment, err := p.sectionAlignment()
	if err != nil {
		return err
	}

	rsrcIdx := p.ResourcesIndex()
	var rsrcSection *Section
	rest := p.Sections
	if rsrcIdx >= 0 {
		rsrcSection = p.Sections[rsrcIdx]
		rest = make([]*Section, 0, len(p.Sections)-1)
		for i, sec := range p.Sections {
			if i != rsrcIdx {
				rest = append(rest, sec)
			}
		}
	}

	place(rest, s, uint32(len(p.EarlyHeader)), sectionAlignment)
	rest = append(rest, s)

	if rsrcSection != nil {
		oldVA := rsrcSection.VirtualAddress
		imageSizeExcl := uint32(0)
		for _, sec := range rest {
			if end := sec.VirtualAddress + sec.VirtualSize; end > imageSizeExcl {
				imageSizeExcl = end
			}
		}
		place(rest, rsrcSection, imageSizeExcl, sectionAlignment)
		delta := int64(rsrcSection.VirtualAddress) - int64(oldVA)
		if delta != 0 {
			if err := rsrc.Shift(rsrcSection.RawData, delta); err != nil {
				return fmt.Errorf("relocating .rsrc section: %w", err)
			}
		}
		rest = append(rest, rsrcSection)
		if err := p.SetOptionalHeaderU32(ohOffResourceTableRVA, rsrcSection.VirtualAddress); err != nil {
			return err
		}
	}

	p.Sections = rest

	if resort {
		sort.SliceStable(p.Sections, func(i, j int) bool {
			return p.Sections[i].VirtualAddress < p.Sections[j].VirtualAddress
		})
	}

	p.trace("malloc.ok", s.TagName())
	return nil
}

// place assigns s.VirtualAddress to the lowest align-aligned RVA at or
// after start that doesn't collide with any section in against, per
// spec §4.2.5's place() helper.
func place(against []*Section, s *Section, start, sectionAlignment uint32) {
	i := alignUp(start, sectionAlignment)
	length := alignUp(s.VirtualSize, sectionAlignment)
	for collidesWithAny(against, span{start: i, length: length}, sectionAlignment) {
		i += sectionAlignment
	}
	s.VirtualAddress = i
}

// collidesWithAny reports whether candidate overlaps any section in
// sections, each compared using its own alignment-rounded virtual
// size, per spec §4.2.5's place() helper.
func collidesWithAny(sections []*Section, candidate span, sectionAlignment uint32) bool {
	for _, other := range sections {
		otherSpan := span{start: other.VirtualAddress, length: alignUp(other.VirtualSize, sectionAlignment)}
		if candidate.collides(otherSpan) {
			return true
		}
	}
	return false
}
