package rsrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleTree() *Tree {
	root := NewRoot()

	iconType := NewDirectory(ID(RTIcon))
	iconName := NewDirectory(ID(1))
	iconLang := NewData(ID(1033), []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0, 0)
	iconName.AddChild(iconLang)
	iconType.AddChild(iconName)
	root.AddChild(iconType)

	stringType := NewDirectory(ID(RTString))
	stringName := NewDirectory(Name("GREETING"))
	stringLang := NewData(ID(1033), []byte("hello"), 0, 0)
	stringName.AddChild(stringLang)
	stringType.AddChild(stringName)
	root.AddChild(stringType)

	return &Tree{Root: root}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tree := buildSampleTree()

	data, err := Encode(tree, EncodeOptions{Order: OrderInsertion})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := Decode(data, 0)
	require.NoError(t, err)

	got, err := decoded.Lookup("3/1/1033")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, got.Data)

	got2, err := decoded.Lookup("6/GREETING/1033")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got2.Data)
}

func TestEncodeCoalescesRepeatedNames(t *testing.T) {
	root := NewRoot()
	dirA := NewDirectory(Name("SHARED"))
	dirA.AddChild(NewData(ID(1), []byte("a"), 0, 0))
	dirB := NewDirectory(Name("SHARED"))
	dirB.AddChild(NewData(ID(2), []byte("b"), 0, 0))
	root.AddChild(dirA)
	root.AddChild(dirB)

	data, err := Encode(&Tree{Root: root}, EncodeOptions{})
	require.NoError(t, err)

	// Directories 32+24+24, data entries 2*16, one copy of "SHARED"
	// (2+2*6), payloads 2: a second copy of the name would add 14 bytes.
	assert.Len(t, data, 80+32+14+2)

	decoded, err := Decode(data, 0)
	require.NoError(t, err)
	assert.Len(t, decoded.Root.Children, 2)
}

func TestEncodeRejectsShapelessEntry(t *testing.T) {
	root := NewRoot()
	broken := &Entry{Identity: ID(1)}
	root.AddChild(broken)

	_, err := Encode(&Tree{Root: root}, EncodeOptions{})
	assert.ErrorIs(t, err, ErrResourceShapeInvalid)
}

func TestEncodeRejectsEmptyNonRootDirectory(t *testing.T) {
	root := NewRoot()
	root.AddChild(NewDirectory(ID(1)))

	_, err := Encode(&Tree{Root: root}, EncodeOptions{})
	assert.ErrorIs(t, err, ErrResourceShapeInvalid)
}

func TestEncodeOrderSpecSorted(t *testing.T) {
	root := NewRoot()
	root.AddChild(NewData(ID(9), []byte("nine"), 0, 0))
	root.AddChild(NewData(ID(1), []byte("one"), 0, 0))
	root.AddChild(NewData(Name("zebra"), []byte("z"), 0, 0))
	root.AddChild(NewData(Name("apple"), []byte("a"), 0, 0))

	data, err := Encode(&Tree{Root: root}, EncodeOptions{Order: OrderSpecSorted})
	require.NoError(t, err)

	decoded, err := Decode(data, 0)
	require.NoError(t, err)
	require.Len(t, decoded.Root.Children, 4)
	assert.Equal(t, "apple", decoded.Root.Children[0].Identity.Name())
	assert.Equal(t, "zebra", decoded.Root.Children[1].Identity.Name())
	assert.Equal(t, uint32(1), decoded.Root.Children[2].Identity.ID())
	assert.Equal(t, uint32(9), decoded.Root.Children[3].Identity.ID())
}

func TestEncodeSizeMatchesFourRegions(t *testing.T) {
	tree := buildSampleTree()
	data, err := Encode(tree, EncodeOptions{})
	require.NoError(t, err)

	var directorySize, dataEntrySize, dataSize int
	names := map[string]bool{}
	var walk func(e *Entry)
	walk = func(e *Entry) {
		if e.IsDirectory() {
			directorySize += 16 + 8*len(e.Children)
			for _, c := range e.Children {
				if c.Identity.IsName() {
					names[c.Identity.Name()] = true
				}
				walk(c)
			}
			return
		}
		dataEntrySize += 16
		dataSize += len(e.Data)
	}
	walk(tree.Root)

	stringSize := 0
	for name := range names {
		stringSize += 2 + 2*len(name)
	}

	assert.EqualValues(t, directorySize+dataEntrySize+stringSize+dataSize, len(data))
}
