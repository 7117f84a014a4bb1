package pe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanCollides(t *testing.T) {
	a := span{start: 0x100, length: 0x100}
	assert.True(t, a.collides(span{start: 0x150, length: 0x10}))
	assert.True(t, a.collides(span{start: 0x50, length: 0x100}))
	assert.False(t, a.collides(span{start: 0x200, length: 0x10}))
	assert.False(t, a.collides(span{start: 0, length: 0x100}))
}

func TestSpanSetCollidesAny(t *testing.T) {
	set := newSpanSet(span{start: 0, length: 0x1000})
	assert.True(t, set.collidesAny(span{start: 0x500, length: 0x10}))
	assert.False(t, set.collidesAny(span{start: 0x1000, length: 0x10}))

	set.add(span{start: 0x2000, length: 0x100})
	assert.True(t, set.collidesAny(span{start: 0x2050, length: 0x10}))
}
