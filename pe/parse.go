package pe

import "fmt"

// ParseOptions configures Parse. The zero value uses DefaultHeadersSize
// and no trace hook.
type ParseOptions struct {
	// ExpectedHeadersSize is the fixed size of the early-header region
	// (DOS stub + PE signature + file header + optional header +
	// section table). Zero means DefaultHeadersSize.
	ExpectedHeadersSize uint32

	// OnTrace, if set, becomes the resulting PE's OnTrace hook.
	OnTrace func(event string, detail any)
}

// Parse reads a PE image from data and returns its in-memory container.
// data is not retained: EarlyHeader and every Section's RawData are
// copies.
func Parse(data []byte, opts ...ParseOptions) (*PE, error) {
	var o ParseOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	headersSize := o.ExpectedHeadersSize
	if headersSize == 0 {
		headersSize = DefaultHeadersSize
	}

	if uint32(len(data)) < headersSize {
		return nil, fmt.Errorf("%w: input is %d bytes, shorter than headers size 0x%x", ErrNotAPE, len(data), headersSize)
	}
	early := make([]byte, headersSize)
	copy(early, data[:headersSize])

	ntOff, err := u32At(early, ntHeadersOffsetFieldOffset)
	if err != nil {
		return nil, fmt.Errorf("%w: reading NtHeaders offset: %v", ErrNotAPE, err)
	}
	sig, err := u32At(early, int(ntOff))
	if err != nil {
		return nil, fmt.Errorf("%w: NtHeaders offset 0x%x out of range", ErrNotAPE, ntOff)
	}
	if sig != peSignature {
		return nil, fmt.Errorf("%w: signature 0x%08x at 0x%x", ErrNotAPE, sig, ntOff)
	}

	p := &PE{
		EarlyHeader:     early,
		headersSize:     headersSize,
		ntHeadersOffset: ntOff,
		OnTrace:         o.OnTrace,
	}

	numberOfSections, err := u16At(early, int(ntOff)+offNumberOfSections)
	if err != nil {
		return nil, fmt.Errorf("%w: reading NumberOfSections: %v", ErrNotAPE, err)
	}

	ptrSymTab, err := u32At(early, int(ntOff)+offPointerToSymbolTable)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PointerToSymbolTable: %v", ErrNotAPE, err)
	}
	if ptrSymTab != 0 {
		return nil, fmt.Errorf("%w: PointerToSymbolTable=0x%x", ErrSymbolTablePresent, ptrSymTab)
	}

	sizeOfOptionalHeader, err := u16At(early, int(ntOff)+offSizeOfOptionalHeader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading SizeOfOptionalHeader: %v", ErrNotAPE, err)
	}
	if sizeOfOptionalHeader < ohFixedSizeMin {
		return nil, fmt.Errorf("%w: SizeOfOptionalHeader=0x%x", ErrOptionalHeaderTooSmall, sizeOfOptionalHeader)
	}

	ohStart := int(ntOff) + offOptionalHeaderStart
	magic, err := u16At(early, ohStart+ohOffMagic)
	if err != nil {
		return nil, fmt.Errorf("%w: reading optional header magic: %v", ErrNotAPE, err)
	}
	if magic != ohMagicPE32 {
		return nil, fmt.Errorf("%w: magic=0x%04x", ErrUnsupportedOptionalMagic, magic)
	}

	sizeOfHeaders, err := u32At(early, ohStart+ohOffSizeOfHeaders)
	if err != nil {
		return nil, fmt.Errorf("%w: reading SizeOfHeaders: %v", ErrNotAPE, err)
	}
	if sizeOfHeaders != headersSize {
		return nil, fmt.Errorf("%w: SizeOfHeaders=0x%x expected=0x%x", ErrHeadersSizeMismatch, sizeOfHeaders, headersSize)
	}

	sectionTableOffset := ohStart + int(sizeOfOptionalHeader)
	sections := make([]*Section, 0, numberOfSections)
	for i := 0; i < int(numberOfSections); i++ {
		sec, err := parseSectionHeader(early, data, sectionTableOffset+i*sectionHeaderSize)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	p.Sections = sections

	if err := checkVirtualIntegrity(p.Sections); err != nil {
		return nil, err
	}

	p.trace("parse.ok", len(p.Sections))
	return p, nil
}

func parseSectionHeader(early, fileData []byte, off int) (*Section, error) {
	c := newCursor(early)
	c.seek(off)

	tagBytes, err := c.readBytes(8)
	if err != nil {
		return nil, fmt.Errorf("%w: reading section tag: %v", ErrNotAPE, err)
	}
	var tag [8]byte
	copy(tag[:], tagBytes)

	virtualSize, err := c.readU32()
	if err != nil {
		return nil, err
	}
	virtualAddress, err := c.readU32()
	if err != nil {
		return nil, err
	}
	sizeOfRawData, err := c.readU32()
	if err != nil {
		return nil, err
	}
	pointerToRawData, err := c.readU32()
	if err != nil {
		return nil, err
	}
	c.skip(8) // PointerToRelocations, PointerToLinenumbers
	numberOfRelocations, err := c.readU16()
	if err != nil {
		return nil, err
	}
	numberOfLinenumbers, err := c.readU16()
	if err != nil {
		return nil, err
	}
	characteristics, err := c.readU32()
	if err != nil {
		return nil, err
	}

	if numberOfRelocations != 0 {
		return nil, fmt.Errorf("%w: section %q", ErrRelocationsPresent, cp1252Decode(tagBytes))
	}
	if numberOfLinenumbers != 0 {
		return nil, fmt.Errorf("%w: section %q", ErrLineNumbersPresent, cp1252Decode(tagBytes))
	}

	raw := make([]byte, sizeOfRawData)
	if sizeOfRawData > 0 {
		if uint64(pointerToRawData)+uint64(sizeOfRawData) > uint64(len(fileData)) {
			return nil, fmt.Errorf("%w: section %q raw data [0x%x,+0x%x) exceeds input of %d bytes",
				ErrNotAPE, cp1252Decode(tagBytes), pointerToRawData, sizeOfRawData, len(fileData))
		}
		copy(raw, fileData[pointerToRawData:pointerToRawData+sizeOfRawData])
	}

	return &Section{
		Tag:             tag,
		VirtualAddress:  virtualAddress,
		VirtualSize:     virtualSize,
		RawData:         raw,
		FileAddress:     pointerToRawData,
		Characteristics: characteristics,
		Linearize:       pointerToRawData == virtualAddress,
	}, nil
}
