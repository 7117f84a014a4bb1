package pe

import (
	"fmt"
	"sort"
)

// checkVirtualIntegrity sorts sections ascending by VirtualAddress in
// place and verifies they don't overlap in virtual address space
// (spec §4.2.1, also reused by Parse's order-and-overlap-only pass).
func checkVirtualIntegrity(sections []*Section) error {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].VirtualAddress < sections[j].VirtualAddress
	})

	floor := uint32(0)
	for _, s := range sections {
		if s.VirtualAddress < floor {
			return fmt.Errorf("%w: section %q at RVA 0x%x overlaps preceding section ending at 0x%x",
				ErrSectionRVAOverlap, s.TagName(), s.VirtualAddress, floor)
		}
		floor = s.VirtualAddress + s.VirtualSize
	}
	return nil
}

// allocationPlan is the result of the file allocation pass: each
// section's assigned file offset, plus the reserved-space map used to
// compute the final file size.
type allocationPlan struct {
	fileAddresses map[*Section]uint32
	reserved      *spanSet
}

// allocateFileOffsets runs the two-phase allocation pass described in
// spec §4.2.2 over the (already VA-sorted) section list.
func (p *PE) allocateFileOffsets() (*allocationPlan, error) {
	fileAlignment, err := p.fileAlignment()
	if err != nil {
		return nil, err
	}

	reserved := newSpanSet(span{start: 0, length: uint32(len(p.EarlyHeader))})
	fileAddresses := make(map[*Section]uint32, len(p.Sections))

	var deferred []*Section

	// Phase 1: linearized sections try their preferred VA-equal offset.
	for _, s := range p.Sections {
		if !s.Linearize {
			deferred = append(deferred, s)
			continue
		}
		candidate := span{start: s.VirtualAddress, length: uint32(len(s.RawData))}
		if reserved.collidesAny(candidate) {
			p.trace("allocate.linearize_fallback", s.TagName())
			deferred = append(deferred, s)
			continue
		}
		fileAddresses[s] = s.VirtualAddress
		reserved.add(candidate)
	}

	// Phase 2: everything deferred, including phase-1 fallbacks, packed
	// greedily at FileAlignment-aligned offsets.
	for _, s := range deferred {
		position := uint32(0)
		length := uint32(len(s.RawData))
		for reserved.collidesAny(span{start: position, length: length}) {
			position += fileAlignment
		}
		fileAddresses[s] = position
		reserved.add(span{start: position, length: length})
	}

	return &allocationPlan{fileAddresses: fileAddresses, reserved: reserved}, nil
}

// Write serializes the container into a fresh byte-for-byte PE image,
// reallocating every section's file offset and rewriting the section
// table and SizeOfImage to match.
func (p *PE) Write() ([]byte, error) {
	if err := checkVirtualIntegrity(p.Sections); err != nil {
		return nil, err
	}

	sectionAlignment, err := p.sectionAlignment()
	if err != nil {
		return nil, err
	}
	fileAlignment, err := p.fileAlignment()
	if err != nil {
		return nil, err
	}

	plan, err := p.allocateFileOffsets()
	if err != nil {
		return nil, err
	}
	for _, s := range p.Sections {
		s.FileAddress = plan.fileAddresses[s]
	}

	if err := p.rewriteHeaders(sectionAlignment); err != nil {
		return nil, err
	}

	fileSize := uint32(0)
	for _, sp := range plan.reserved.spans {
		if sp.end() > fileSize {
			fileSize = sp.end()
		}
	}
	fileSize = alignUp(fileSize, fileAlignment)

	out := make([]byte, fileSize)
	copy(out, p.EarlyHeader)
	for _, s := range p.Sections {
		copy(out[s.FileAddress:], s.RawData)
	}

	p.trace("write.ok", fileSize)
	return out, nil
}

// rewriteHeaders implements spec §4.2.3: NumberOfSections, every
// section's 40-byte header slot, and SizeOfImage.
func (p *PE) rewriteHeaders(sectionAlignment uint32) error {
	if err := putU16At(p.EarlyHeader, int(p.ntHeadersOffset)+offNumberOfSections, uint16(len(p.Sections))); err != nil {
		return err
	}

	sizeOfOptionalHeader, err := u16At(p.EarlyHeader, int(p.ntHeadersOffset)+offSizeOfOptionalHeader)
	if err != nil {
		return err
	}
	sectionTableOffset := int(p.ntHeadersOffset) + offOptionalHeaderStart + int(sizeOfOptionalHeader)

	imageSize := uint32(0)
	for i, s := range p.Sections {
		if err := writeSectionHeader(p.EarlyHeader, sectionTableOffset+i*sectionHeaderSize, s); err != nil {
			return fmt.Errorf("writing section header %d (%q): %w", i, s.TagName(), err)
		}
		if end := s.VirtualAddress + s.VirtualSize; end > imageSize {
			imageSize = end
		}
	}

	return p.SetOptionalHeaderU32(ohOffSizeOfImage, alignUp(imageSize, sectionAlignment))
}

func writeSectionHeader(buf []byte, off int, s *Section) error {
	c := newCursor(buf)
	c.seek(off)
	if err := c.writeBytes(s.Tag[:]); err != nil {
		return err
	}
	if err := c.writeU32(s.VirtualSize); err != nil {
		return err
	}
	if err := c.writeU32(s.VirtualAddress); err != nil {
		return err
	}
	if err := c.writeU32(uint32(len(s.RawData))); err != nil {
		return err
	}
	if err := c.writeU32(s.FileAddress); err != nil {
		return err
	}
	if err := c.writeU32(0); err != nil { // PointerToRelocations
		return err
	}
	if err := c.writeU32(0); err != nil { // PointerToLinenumbers
		return err
	}
	if err := c.writeU16(0); err != nil { // NumberOfRelocations
		return err
	}
	if err := c.writeU16(0); err != nil { // NumberOfLinenumbers
		return err
	}
	return c.writeU32(s.Characteristics)
}
