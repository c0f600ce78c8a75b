package common

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b, so b is applied to a column vector before a.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// Translation creates a translation matrix.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - x, y, z: the translation along each axis
func Translation(out []float32, x, y, z float32) {
	Identity(out)
	out[12] = x
	out[13] = y
	out[14] = z
}

// OrthographicOffCenter creates an off-center orthographic projection matrix mapping
// the box [left, right] x [bottom, top] x [near, far] to clip space with depth in [0, 1].
// Passing bottom > top flips the Y axis, which is how screen-space (y-down) projections are built.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - left, right: the x extents of the view volume
//   - bottom, top: the y extents of the view volume
//   - near, far: the z extents of the view volume
func OrthographicOffCenter(out []float32, left, right, bottom, top, near, far float32) {
	Identity(out)

	out[0] = 2 / (right - left)
	out[5] = 2 / (top - bottom)
	out[10] = 1 / (near - far)
	out[12] = (left + right) / (left - right)
	out[13] = (top + bottom) / (bottom - top)
	out[14] = near / (near - far)
}

// ScreenTransform builds the projection used to draw in pixel coordinates on a viewport:
// an orthographic projection with the origin at the top-left corner, composed with a
// half-pixel offset that is applied to positions before the projection.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - width, height: the viewport dimensions in pixels
func ScreenTransform(out []float32, width, height float32) {
	var projection, halfPixelOffset [16]float32
	OrthographicOffCenter(projection[:], 0, width, height, 0, 0, 1)
	Translation(halfPixelOffset[:], -0.5, -0.5, 0)
	Mul4(out, projection[:], halfPixelOffset[:])
}
