package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMul4AppliesRightOperandFirst(t *testing.T) {
	var scale, move, out [16]float32
	Identity(scale[:])
	scale[0], scale[5] = 2, 2
	Translation(move[:], 3, 4, 0)

	// scale * move: the point is moved, then scaled.
	Mul4(out[:], scale[:], move[:])
	assert.Equal(t, float32(6), out[12])
	assert.Equal(t, float32(8), out[13])

	Mul4(out[:], move[:], scale[:])
	assert.Equal(t, float32(3), out[12])
	assert.Equal(t, float32(4), out[13])
}

func TestOrthographicOffCenterMapsCorners(t *testing.T) {
	var m [16]float32
	OrthographicOffCenter(m[:], 0, 800, 600, 0, 0, 1)

	apply := func(x, y float32) (float32, float32) {
		return m[0]*x + m[4]*y + m[12], m[1]*x + m[5]*y + m[13]
	}

	x, y := apply(0, 0)
	assert.InDelta(t, -1, x, 1e-6)
	assert.InDelta(t, 1, y, 1e-6)

	x, y = apply(800, 600)
	assert.InDelta(t, 1, x, 1e-6)
	assert.InDelta(t, -1, y, 1e-6)
}

func TestScreenTransform(t *testing.T) {
	var m [16]float32
	ScreenTransform(m[:], 800, 600)

	assert.InDelta(t, 0.0025, m[0], 1e-7)
	assert.InDelta(t, -1.0/300.0, m[5], 1e-7)
	assert.InDelta(t, -1, m[10], 1e-7)
	assert.InDelta(t, -1.00125, m[12], 1e-6)
	assert.InDelta(t, 1+1.0/600.0, m[13], 1e-6)
	assert.InDelta(t, 0, m[14], 1e-7)
	assert.Equal(t, float32(1), m[15])

	for _, i := range []int{1, 2, 3, 4, 6, 7, 8, 9, 11} {
		assert.Zero(t, m[i], "element %d", i)
	}
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 4, Coalesce(0, 4, 5))
	assert.Equal(t, "", Coalesce[string]())
}

func TestViewportAspectRatio(t *testing.T) {
	assert.InDelta(t, 800.0/600.0, NewViewport(800, 600).AspectRatio(), 1e-6)
	assert.Zero(t, NewViewport(800, 0).AspectRatio())
}

func TestQuad(t *testing.T) {
	white := [4]float32{1, 1, 1, 1}
	q := Quad(10, 20, 100, 50, white)

	assert.Len(t, q, 6)
	assert.Equal(t, [4]float32{10, 20, 0, 1}, q[0].Position)
	assert.Equal(t, [4]float32{110, 70, 0, 1}, q[2].Position)
	assert.Equal(t, [2]float32{1, 0}, q[5].TexCoord)
	assert.Equal(t, white, q[3].Color)
	assert.Len(t, SliceToBytes(q), 6*SpriteVertexStride)
}
