package rsrc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftIsItsOwnInverse(t *testing.T) {
	tree := buildSampleTree()
	data, err := Encode(tree, EncodeOptions{})
	require.NoError(t, err)

	original := append([]byte(nil), data...)

	require.NoError(t, Shift(data, 0x5000))
	assert.NotEqual(t, original, data, "shift by a non-zero delta should change the bytes")

	require.NoError(t, Shift(data, -0x5000))
	assert.True(t, bytes.Equal(original, data), "shift(-n) after shift(n) should restore the original bytes")
}

func TestShiftPatchesDataRVA(t *testing.T) {
	root := NewRoot()
	root.AddChild(NewData(ID(1), []byte{1, 2, 3, 4}, 0, 0))
	data, err := Encode(&Tree{Root: root}, EncodeOptions{})
	require.NoError(t, err)

	before, err := Decode(append([]byte(nil), data...), 0)
	require.NoError(t, err)
	beforePayload := before.Root.Children[0].Data

	require.NoError(t, Shift(data, 0x2000))

	after, err := Decode(data, 0x2000)
	require.NoError(t, err)
	assert.Equal(t, beforePayload, after.Root.Children[0].Data)
}

func TestShiftZeroDeltaNoOp(t *testing.T) {
	tree := buildSampleTree()
	data, err := Encode(tree, EncodeOptions{})
	require.NoError(t, err)
	original := append([]byte(nil), data...)

	require.NoError(t, Shift(data, 0))
	assert.Equal(t, original, data)
}
