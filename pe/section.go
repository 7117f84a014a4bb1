package pe

import "strings"

// Section characteristics bits (IMAGE_SCN_*), stored and emitted verbatim.
const (
	CharCntCode             uint32 = 0x00000020
	CharCntInitializedData  uint32 = 0x00000040
	CharCntUninitializedData uint32 = 0x00000080
	CharMemDiscardable      uint32 = 0x02000000
	CharMemNotCached        uint32 = 0x04000000
	CharMemNotPaged         uint32 = 0x08000000
	CharMemShared           uint32 = 0x10000000
	CharMemExecute          uint32 = 0x20000000
	CharMemRead             uint32 = 0x40000000
	CharMemWrite            uint32 = 0x80000000
)

// Section is one entry of a PE section table together with its raw
// on-file bytes.
type Section struct {
	// Tag is the raw 8-byte section name. Use NewTag to build one from
	// a display string.
	Tag [8]byte

	VirtualAddress uint32
	VirtualSize    uint32

	// RawData is owned by the Section; its length is the section's
	// on-file size. It may be shorter than VirtualSize (the remainder
	// is zero-filled in memory) and may be empty for
	// CharCntUninitializedData sections.
	RawData []byte

	// FileAddress is set by Parse from the section's PointerToRawData
	// and reassigned by PE.Write's allocation pass; callers must not set
	// it themselves.
	FileAddress uint32

	Characteristics uint32

	// Linearize requests that Write place RawData at a file offset
	// equal to VirtualAddress. Parse sets it when the source section
	// already had that property.
	Linearize bool
}

// NewTag builds a section tag from a display string, truncating to 8
// bytes and padding the remainder with NUL.
func NewTag(name string) [8]byte {
	var tag [8]byte
	copy(tag[:], name)
	return tag
}

// TagString decodes the tag as code page 1252, preserving trailing NUL
// bytes exactly (it does not trim them).
func (s *Section) TagString() string {
	return cp1252Decode(s.Tag[:])
}

// TagName returns TagString with trailing NUL runes trimmed, for
// display and for prefix/exact-name matching against a known name.
func (s *Section) TagName() string {
	return strings.TrimRight(s.TagString(), "\x00")
}

// cp1252HighTable holds the Windows-1252 mapping for bytes 0x80..0x9F,
// the range where it diverges from ISO-8859-1/Latin-1. Unassigned code
// points map to the Unicode replacement character.
var cp1252HighTable = [32]rune{
	0x20AC, 0xFFFD, 0x201A, 0x0192, 0x201E, 0x2026, 0x2020, 0x2021,
	0x02C6, 0x2030, 0x0160, 0x2039, 0x0152, 0xFFFD, 0x017D, 0xFFFD,
	0xFFFD, 0x2018, 0x2019, 0x201C, 0x201D, 0x2022, 0x2013, 0x2014,
	0x02DC, 0x2122, 0x0161, 0x203A, 0x0153, 0xFFFD, 0x017E, 0x0178,
}

func cp1252Decode(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		if c >= 0x80 && c <= 0x9F {
			runes[i] = cp1252HighTable[c-0x80]
		} else {
			runes[i] = rune(c)
		}
	}
	return string(runes)
}
