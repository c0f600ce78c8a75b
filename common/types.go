// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Viewport describes the drawable region of the current render target in pixels.
// The passthrough vertex stage builds its orthographic projection from these dimensions.
type Viewport struct {
	// X and Y are the top-left corner of the viewport in pixels.
	X, Y int
	// Width is the width of the viewport in pixels.
	Width int
	// Height is the height of the viewport in pixels.
	Height int
	// MinDepth and MaxDepth are the depth range of the viewport.
	MinDepth, MaxDepth float32
}

// NewViewport creates a Viewport anchored at the origin with the default [0, 1] depth range.
//
// Parameters:
//   - width: the width of the viewport in pixels
//   - height: the height of the viewport in pixels
//
// Returns:
//   - Viewport: the viewport covering (0, 0) to (width, height)
func NewViewport(width, height int) Viewport {
	return Viewport{
		Width:    width,
		Height:   height,
		MinDepth: 0,
		MaxDepth: 1,
	}
}

// AspectRatio returns width divided by height, or 0 when the viewport has no height.
//
// Returns:
//   - float32: the viewport aspect ratio
func (v Viewport) AspectRatio() float32 {
	if v.Height == 0 {
		return 0
	}
	return float32(v.Width) / float32(v.Height)
}

// SpriteVertex is the vertex layout of the passthrough vertex stage: a pixel-space
// position, a texture coordinate and a color, 40 bytes with no padding.
type SpriteVertex struct {
	Position [4]float32
	TexCoord [2]float32
	Color    [4]float32
}

// SpriteVertexStride is the size of a SpriteVertex in bytes.
const SpriteVertexStride = 40

// Quad returns the two triangles covering an axis-aligned rectangle in pixel coordinates,
// with texture coordinates spanning [0, 1] from the top-left corner.
//
// Parameters:
//   - x, y: the top-left corner in pixels
//   - width, height: the size in pixels
//   - color: the vertex color of every corner
//
// Returns:
//   - []SpriteVertex: six vertices in counter-clockwise order on screen
func Quad(x, y, width, height float32, color [4]float32) []SpriteVertex {
	corner := func(u, v float32) SpriteVertex {
		return SpriteVertex{
			Position: [4]float32{x + u*width, y + v*height, 0, 1},
			TexCoord: [2]float32{u, v},
			Color:    color,
		}
	}
	tl, tr, bl, br := corner(0, 0), corner(1, 0), corner(0, 1), corner(1, 1)
	return []SpriteVertex{tl, bl, br, tl, br, tr}
}
