package pe

// Fixed offsets within the early header, all relative to ntHeadersOffset
// unless noted. See spec §3.2/§4.1/§4.2.3 for the numbers; the optional
// header start (ntHeaders+0x18) and the SizeOfOptionalHeader field
// (ntHeaders+0x14) are both load-bearing for section-table placement, so
// they're taken from the two mutually consistent derivations in the
// component design rather than the one inconsistent shorthand.
const (
	ntHeadersOffsetFieldOffset = 0x3C // u32 in the DOS stub pointing at NtHeaders

	peSignature uint32 = 0x00004550 // "PE\0\0"

	ohFixedSizeMin = 0x78

	ohMagicPE32 uint16 = 0x010B

	// Relative to ntHeadersOffset.
	offMachine              = 0x04
	offNumberOfSections     = 0x06
	offPointerToSymbolTable = 0x08
	offSizeOfOptionalHeader = 0x14
	offOptionalHeaderStart  = 0x18

	// Relative to the optional header start.
	ohOffMagic            = 0x00
	ohOffSectionAlignment = 0x20
	ohOffFileAlignment    = 0x24
	ohOffSizeOfImage      = 0x38
	ohOffSizeOfHeaders    = 0x3C
	ohOffResourceTableRVA = 0x70

	sectionHeaderSize = 40

	// DefaultHeadersSize is the expected_headers_size used by Parse when
	// the caller doesn't specify one.
	DefaultHeadersSize = 0x1000
)

// PE is a parsed Portable Executable container: the early-header buffer
// plus an ordered list of sections. It owns EarlyHeader and every
// Section for its lifetime.
type PE struct {
	// EarlyHeader holds the DOS stub, PE signature, IMAGE_FILE_HEADER,
	// optional header, and section-header table, as exactly
	// headersSize bytes. PE edits it in place; Sections are tracked
	// separately and rewritten into it on Write.
	EarlyHeader []byte

	// Sections is the ordered section list. Parse, Write and
	// FillVirtualLayoutGaps leave it sorted ascending by VirtualAddress;
	// Malloc re-sorts it only when called with resort set.
	Sections []*Section

	// OnTrace, if non-nil, is called for diagnostic events during
	// parse/emit (e.g. allocation fallbacks). It carries no
	// correctness weight and defaults to nil.
	OnTrace func(event string, detail any)

	headersSize     uint32
	ntHeadersOffset uint32

	rsrcHandler *ResourceHandler
}

func (p *PE) trace(event string, detail any) {
	if p.OnTrace != nil {
		p.OnTrace(event, detail)
	}
}

func (p *PE) optionalHeaderOffset() int {
	return int(p.ntHeadersOffset) + offOptionalHeaderStart
}

// SectionIndexByTag returns the index of the section whose raw tag
// equals tag, or -1 if none matches.
func (p *PE) SectionIndexByTag(tag [8]byte) int {
	for i, s := range p.Sections {
		if s.Tag == tag {
			return i
		}
	}
	return -1
}

// ResourcesIndex returns the index of the .rsrc section — the section
// whose VirtualAddress equals the optional header's ResourceTable RVA —
// or -1 if the image has none.
func (p *PE) ResourcesIndex() int {
	rva, err := p.GetOptionalHeaderU32(ohOffResourceTableRVA)
	if err != nil || rva == 0 {
		return -1
	}
	for i, s := range p.Sections {
		if s.VirtualAddress == rva {
			return i
		}
	}
	return -1
}

// GetOptionalHeaderU32 reads a little-endian u32 at the given byte
// offset into the optional header (e.g. 0x70 for ResourceTable RVA).
func (p *PE) GetOptionalHeaderU32(offset uint32) (uint32, error) {
	return u32At(p.EarlyHeader, p.optionalHeaderOffset()+int(offset))
}

// SetOptionalHeaderU32 writes a little-endian u32 at the given byte
// offset into the optional header.
func (p *PE) SetOptionalHeaderU32(offset uint32, v uint32) error {
	return putU32At(p.EarlyHeader, p.optionalHeaderOffset()+int(offset), v)
}

func (p *PE) sectionAlignment() (uint32, error) {
	return p.GetOptionalHeaderU32(ohOffSectionAlignment)
}

func (p *PE) fileAlignment() (uint32, error) {
	return p.GetOptionalHeaderU32(ohOffFileAlignment)
}

// SetupRVACursor locates the section containing rva and returns it
// together with the byte offset into that section's RawData. It
// returns ok=false if no section covers rva.
func (p *PE) SetupRVACursor(rva uint32) (sec *Section, offsetIntoRawData uint32, ok bool) {
	for _, s := range p.Sections {
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+s.VirtualSize {
			return s, rva - s.VirtualAddress, true
		}
	}
	return nil, 0, false
}

// Rsrc returns the handle to the .rsrc resource tree, decoding it on
// first access. It fails with ErrResourceMissing if the image has no
// .rsrc section.
func (p *PE) Rsrc() (*ResourceHandler, error) {
	if p.rsrcHandler != nil {
		return p.rsrcHandler, nil
	}
	idx := p.ResourcesIndex()
	if idx < 0 {
		return nil, ErrResourceMissing
	}
	h, err := newResourceHandler(p, p.Sections[idx])
	if err != nil {
		return nil, err
	}
	p.rsrcHandler = h
	return h, nil
}
