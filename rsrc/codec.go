package rsrc

import (
	"encoding/binary"
	"fmt"
	"sort"
	"unicode/utf16"
)

// Decode parses a .rsrc section's raw bytes into a tree. va is the
// section's current virtual address: per spec §4.3.2, the section is
// shifted by -va before walking (so internal pointers read as offsets
// from section start) and shifted back by +va afterward, regardless of
// outcome, leaving data byte-for-byte as it was handed in.
func Decode(data []byte, va uint32) (*Tree, error) {
	if err := Shift(data, -int64(va)); err != nil {
		return nil, err
	}
	defer Shift(data, int64(va))

	root, err := decodeDirectory(data, 0)
	if err != nil {
		return nil, err
	}
	return &Tree{Root: root}, nil
}

func decodeDirectory(data []byte, offset uint32) (*Entry, error) {
	if uint64(offset)+16 > uint64(len(data)) {
		return nil, fmt.Errorf("%w: directory at 0x%x exceeds %d bytes", ErrMalformed, offset, len(data))
	}
	dir := &Entry{
		isDir: true,
		Dir: DirMeta{
			Characteristics: binary.LittleEndian.Uint32(data[offset:]),
			Timestamp:       binary.LittleEndian.Uint32(data[offset+4:]),
			VersionMajor:    binary.LittleEndian.Uint16(data[offset+8:]),
			VersionMinor:    binary.LittleEndian.Uint16(data[offset+10:]),
		},
	}
	numNamed := binary.LittleEndian.Uint16(data[offset+12:])
	numID := binary.LittleEndian.Uint16(data[offset+14:])
	n := int(numNamed) + int(numID)
	dir.Children = make([]*Entry, 0, n)

	childOff := offset + 16
	for i := 0; i < n; i++ {
		entryOff := childOff + uint32(i*8)
		if uint64(entryOff)+8 > uint64(len(data)) {
			return nil, fmt.Errorf("%w: child entry at 0x%x exceeds %d bytes", ErrMalformed, entryOff, len(data))
		}
		nameWord := binary.LittleEndian.Uint32(data[entryOff:])
		dataWord := binary.LittleEndian.Uint32(data[entryOff+4:])

		identity, err := decodeIdentity(data, nameWord)
		if err != nil {
			return nil, err
		}

		var child *Entry
		if dataWord&0x80000000 != 0 {
			child, err = decodeDirectory(data, dataWord&0x7FFFFFFF)
		} else {
			child, err = decodeDataEntry(data, dataWord)
		}
		if err != nil {
			return nil, err
		}
		child.Identity = identity
		child.Parent = dir
		dir.Children = append(dir.Children, child)
	}
	return dir, nil
}

func decodeIdentity(data []byte, word uint32) (Identity, error) {
	if word&0x80000000 == 0 {
		return ID(word), nil
	}
	off := word & 0x7FFFFFFF
	if uint64(off)+2 > uint64(len(data)) {
		return Identity{}, fmt.Errorf("%w: name string at 0x%x exceeds %d bytes", ErrMalformed, off, len(data))
	}
	length := binary.LittleEndian.Uint16(data[off:])
	start := off + 2
	end := uint64(start) + uint64(length)*2
	if end > uint64(len(data)) {
		return Identity{}, fmt.Errorf("%w: name string at 0x%x (%d units) exceeds %d bytes", ErrMalformed, off, length, len(data))
	}
	units := make([]uint16, length)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(data[start+uint32(i*2):])
	}
	return Name(string(utf16.Decode(units))), nil
}

func decodeDataEntry(data []byte, offset uint32) (*Entry, error) {
	if uint64(offset)+16 > uint64(len(data)) {
		return nil, fmt.Errorf("%w: data entry at 0x%x exceeds %d bytes", ErrMalformed, offset, len(data))
	}
	dataRVA := binary.LittleEndian.Uint32(data[offset:])
	size := binary.LittleEndian.Uint32(data[offset+4:])
	codepage := binary.LittleEndian.Uint32(data[offset+8:])
	reserved := binary.LittleEndian.Uint32(data[offset+12:])
	if uint64(dataRVA)+uint64(size) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: data payload [0x%x,+0x%x) exceeds %d bytes", ErrMalformed, dataRVA, size, len(data))
	}
	payload := make([]byte, size)
	copy(payload, data[dataRVA:dataRVA+size])
	return &Entry{Data: payload, Codepage: codepage, Reserved: reserved}, nil
}

// EncodeOrder selects how a directory's named-vs-ID children are
// ordered on encode (spec §9's open question).
type EncodeOrder int

const (
	// OrderInsertion emits named children first in insertion order,
	// then ID-keyed children in insertion order — the behavior needed
	// to bit-exactly round-trip a decoded tree.
	OrderInsertion EncodeOrder = iota
	// OrderSpecSorted emits named children sorted ASCII-ascending,
	// then ID-keyed children sorted numerically ascending, per the PE
	// specification's documented (but not universally observed) order.
	OrderSpecSorted
)

// EncodeOptions configures Encode.
type EncodeOptions struct {
	Order EncodeOrder
}

type nameSlot struct {
	slot uint32
	name string
}

type dirSlot struct {
	slot   uint32
	target *Entry
}

type dataSlot struct {
	slot   uint32
	target *Entry
}

// Encode serializes tree into a flat buffer with offsets expressed as
// section-relative, per spec §4.3.3. The caller is responsible for
// relocating the section and applying Shift(+VA) afterward.
func Encode(tree *Tree, opts EncodeOptions) ([]byte, error) {
	var dirBuf []byte
	var nameSlots []nameSlot
	var dirSlots []dirSlot
	var dataSlots []dataSlot
	dirOffsetOf := map[*Entry]uint32{}

	queue := []*Entry{tree.Root}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		if e != tree.Root && len(e.Children) == 0 {
			return nil, fmt.Errorf("%w: non-root directory %q has no children", ErrResourceShapeInvalid, e.Path())
		}

		dirOffsetOf[e] = uint32(len(dirBuf))

		named, idKeyed := partitionChildren(e, opts.Order)

		header := make([]byte, 16)
		binary.LittleEndian.PutUint32(header[0:], e.Dir.Characteristics)
		binary.LittleEndian.PutUint32(header[4:], e.Dir.Timestamp)
		binary.LittleEndian.PutUint16(header[8:], e.Dir.VersionMajor)
		binary.LittleEndian.PutUint16(header[10:], e.Dir.VersionMinor)
		binary.LittleEndian.PutUint16(header[12:], uint16(len(named)))
		binary.LittleEndian.PutUint16(header[14:], uint16(len(idKeyed)))
		dirBuf = append(dirBuf, header...)

		for _, c := range append(append([]*Entry{}, named...), idKeyed...) {
			slot := uint32(len(dirBuf))
			dirBuf = append(dirBuf, make([]byte, 8)...)

			if c.Identity.IsName() {
				nameSlots = append(nameSlots, nameSlot{slot: slot, name: c.Identity.Name()})
			} else {
				binary.LittleEndian.PutUint32(dirBuf[slot:], c.Identity.ID())
			}

			switch {
			case c.IsDirectory():
				dirSlots = append(dirSlots, dirSlot{slot: slot + 4, target: c})
				queue = append(queue, c)
			case c.Data != nil:
				dataSlots = append(dataSlots, dataSlot{slot: slot + 4, target: c})
			default:
				return nil, fmt.Errorf("%w: entry %q has neither children nor data", ErrResourceShapeInvalid, c.Path())
			}
		}
	}

	directorySize := uint32(len(dirBuf))
	dataEntrySize := uint32(16 * len(dataSlots))

	uniqueNames := make([]string, 0, len(nameSlots))
	seen := map[string]bool{}
	for _, ns := range nameSlots {
		if !seen[ns.name] {
			seen[ns.name] = true
			uniqueNames = append(uniqueNames, ns.name)
		}
	}
	stringSize := uint32(0)
	for _, name := range uniqueNames {
		stringSize += 2 + 2*uint32(len(utf16.Encode([]rune(name))))
	}

	dataEntryRegionStart := directorySize
	stringRegionStart := directorySize + dataEntrySize
	dataRegionStart := directorySize + dataEntrySize + stringSize

	var dataEntryBuf, stringBuf, dataBuf []byte

	for _, ds := range dataSlots {
		payloadAbs := dataRegionStart + uint32(len(dataBuf))
		dataBuf = append(dataBuf, ds.target.Data...)

		recordAbs := dataEntryRegionStart + uint32(len(dataEntryBuf))
		record := make([]byte, 16)
		binary.LittleEndian.PutUint32(record[0:], payloadAbs)
		binary.LittleEndian.PutUint32(record[4:], uint32(len(ds.target.Data)))
		binary.LittleEndian.PutUint32(record[8:], ds.target.Codepage)
		binary.LittleEndian.PutUint32(record[12:], ds.target.Reserved)
		dataEntryBuf = append(dataEntryBuf, record...)

		binary.LittleEndian.PutUint32(dirBuf[ds.slot:], recordAbs)
	}

	stringOffsetOf := make(map[string]uint32, len(uniqueNames))
	for _, name := range uniqueNames {
		abs := stringRegionStart + uint32(len(stringBuf))
		stringOffsetOf[name] = abs

		units := utf16.Encode([]rune(name))
		lengthField := make([]byte, 2)
		binary.LittleEndian.PutUint16(lengthField, uint16(len(units)))
		stringBuf = append(stringBuf, lengthField...)
		for _, u := range units {
			unitField := make([]byte, 2)
			binary.LittleEndian.PutUint16(unitField, u)
			stringBuf = append(stringBuf, unitField...)
		}
	}
	for _, ns := range nameSlots {
		binary.LittleEndian.PutUint32(dirBuf[ns.slot:], 0x80000000|stringOffsetOf[ns.name])
	}

	for _, ds := range dirSlots {
		off, ok := dirOffsetOf[ds.target]
		if !ok {
			return nil, fmt.Errorf("%w: no directory offset recorded for %q", ErrResourceShapeInvalid, ds.target.Path())
		}
		binary.LittleEndian.PutUint32(dirBuf[ds.slot:], 0x80000000|off)
	}

	out := make([]byte, 0, int(directorySize)+int(dataEntrySize)+int(stringSize)+len(dataBuf))
	out = append(out, dirBuf...)
	out = append(out, dataEntryBuf...)
	out = append(out, stringBuf...)
	out = append(out, dataBuf...)
	return out, nil
}

func partitionChildren(e *Entry, order EncodeOrder) (named, idKeyed []*Entry) {
	for _, c := range e.Children {
		if c.Identity.IsName() {
			named = append(named, c)
		} else {
			idKeyed = append(idKeyed, c)
		}
	}
	if order == OrderSpecSorted {
		sort.SliceStable(named, func(i, j int) bool { return named[i].Identity.Name() < named[j].Identity.Name() })
		sort.SliceStable(idKeyed, func(i, j int) bool { return idKeyed[i].Identity.ID() < idKeyed[j].Identity.ID() })
	}
	return named, idKeyed
}
