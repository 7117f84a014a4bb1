package rsrc

import (
	"encoding/binary"
	"fmt"
)

// Shift walks data's directory tree in place, adding delta to every
// absolute pointer it carries: each data-entry record's data_rva field,
// and — beyond spec §4.3.1's original gap (see §9's open question) —
// every name-word's string-reference value. Structural offsets (which
// directory or data-entry record a word points at) are section-relative
// and never change; only the pointer values that travel with the
// section do.
//
// Calling Shift(data, -n) then Shift(data, n) restores data exactly.
func Shift(data []byte, delta int64) error {
	if delta == 0 || len(data) == 0 {
		return nil
	}
	return shiftDirectory(data, 0, delta)
}

func shiftDirectory(data []byte, offset uint32, delta int64) error {
	if uint64(offset)+16 > uint64(len(data)) {
		return fmt.Errorf("%w: directory at 0x%x exceeds %d bytes", ErrMalformed, offset, len(data))
	}
	numNamed := binary.LittleEndian.Uint16(data[offset+12:])
	numID := binary.LittleEndian.Uint16(data[offset+14:])
	n := int(numNamed) + int(numID)

	childOff := offset + 16
	for i := 0; i < n; i++ {
		entryOff := childOff + uint32(i*8)
		if uint64(entryOff)+8 > uint64(len(data)) {
			return fmt.Errorf("%w: child entry at 0x%x exceeds %d bytes", ErrMalformed, entryOff, len(data))
		}

		nameWord := binary.LittleEndian.Uint32(data[entryOff:])
		if nameWord&0x80000000 != 0 {
			patched := uint32(int64(nameWord&0x7FFFFFFF) + delta)
			binary.LittleEndian.PutUint32(data[entryOff:], 0x80000000|patched)
		}

		dataWord := binary.LittleEndian.Uint32(data[entryOff+4:])
		if dataWord&0x80000000 != 0 {
			if err := shiftDirectory(data, dataWord&0x7FFFFFFF, delta); err != nil {
				return err
			}
			continue
		}

		if uint64(dataWord)+4 > uint64(len(data)) {
			return fmt.Errorf("%w: data entry at 0x%x exceeds %d bytes", ErrMalformed, dataWord, len(data))
		}
		rva := binary.LittleEndian.Uint32(data[dataWord:])
		binary.LittleEndian.PutUint32(data[dataWord:], uint32(int64(rva)+delta))
	}
	return nil
}
