package pe

import (
	"encoding/binary"
	"testing"
)

// testSectionSpec describes one section to synthesize with buildTestPE.
// pointerToRawData of 0 means "place automatically after whatever's
// already been laid out".
type testSectionSpec struct {
	tag                 string
	virtualAddress      uint32
	virtualSize         uint32
	rawData             []byte
	numberOfRelocations uint16
	numberOfLinenumbers uint16
	characteristics     uint32
	pointerToRawData    uint32
}

const testNtHeadersOffset = 0x80

// buildTestPE assembles a minimal but structurally valid PE32 image
// around the given sections, following the wire layout in spec §6.2.
func buildTestPE(t *testing.T, sections []testSectionSpec, headersSize, sectionAlignment, fileAlignment uint32) []byte {
	t.Helper()
	if headersSize == 0 {
		headersSize = DefaultHeadersSize
	}
	ntOff := uint32(testNtHeadersOffset)
	ohStart := ntOff + offOptionalHeaderStart
	const sizeOfOptionalHeader = uint16(ohFixedSizeMin)
	sectionTableOffset := ohStart + uint32(sizeOfOptionalHeader)

	early := make([]byte, headersSize)
	binary.LittleEndian.PutUint32(early[ntHeadersOffsetFieldOffset:], ntOff)
	binary.LittleEndian.PutUint32(early[ntOff:], peSignature)
	binary.LittleEndian.PutUint16(early[ntOff+offNumberOfSections:], uint16(len(sections)))
	binary.LittleEndian.PutUint32(early[ntOff+offPointerToSymbolTable:], 0)
	binary.LittleEndian.PutUint16(early[ntOff+offSizeOfOptionalHeader:], sizeOfOptionalHeader)
	binary.LittleEndian.PutUint16(early[ohStart+ohOffMagic:], ohMagicPE32)
	binary.LittleEndian.PutUint32(early[ohStart+ohOffSectionAlignment:], sectionAlignment)
	binary.LittleEndian.PutUint32(early[ohStart+ohOffFileAlignment:], fileAlignment)
	binary.LittleEndian.PutUint32(early[ohStart+ohOffSizeOfHeaders:], headersSize)

	fileEnd := headersSize
	specs := append([]testSectionSpec(nil), sections...)
	for i := range specs {
		if specs[i].pointerToRawData == 0 && len(specs[i].rawData) > 0 {
			specs[i].pointerToRawData = fileEnd
		}
		if end := specs[i].pointerToRawData + uint32(len(specs[i].rawData)); end > fileEnd {
			fileEnd = end
		}
	}

	out := make([]byte, fileEnd)
	copy(out, early)

	for i, s := range specs {
		off := int(sectionTableOffset) + i*sectionHeaderSize
		tag := NewTag(s.tag)
		copy(out[off:], tag[:])
		binary.LittleEndian.PutUint32(out[off+8:], s.virtualSize)
		binary.LittleEndian.PutUint32(out[off+12:], s.virtualAddress)
		binary.LittleEndian.PutUint32(out[off+16:], uint32(len(s.rawData)))
		binary.LittleEndian.PutUint32(out[off+20:], s.pointerToRawData)
		binary.LittleEndian.PutUint16(out[off+32:], s.numberOfRelocations)
		binary.LittleEndian.PutUint16(out[off+34:], s.numberOfLinenumbers)
		binary.LittleEndian.PutUint32(out[off+36:], s.characteristics)
		if len(s.rawData) > 0 {
			copy(out[s.pointerToRawData:], s.rawData)
		}
	}
	return out
}
