package render

// Transform is the 4x4 orthographic transform handed to the draw
// primitive, flattened row-major into 16 floats:
//
//	[0]  scale-X          (2*sw/viewW)
//	[5]  scale-Y          (2*sh/viewH)
//	[10] -depth-scale
//	[12] translate-X      (2*dx/viewW)
//	[13] translate-Y      (2*dy/viewH)
//	[14] -depth-translate
//	[15] 1
//
// Applied to a unit quad it places a sw-by-sh pixel rectangle centered
// dx right of and dy above the viewport center (Y up).
type Transform [16]float64

// OrthoQuad builds the transform for a quad of sw x sh pixels centered
// at (dx, dy) relative to the viewport center.
func OrthoQuad(dx, dy, sw, sh, viewW, viewH float64) Transform {
	var m Transform
	m[0] = 2 * sw / viewW
	m[5] = 2 * sh / viewH
	m[10] = -1
	m[12] = 2 * dx / viewW
	m[13] = 2 * dy / viewH
	m[14] = 0
	m[15] = 1
	return m
}

// PixelRect converts the transform back to pixel geometry for a raster
// target with the given viewport: top-left corner plus width/height,
// Y down.
func (t Transform) PixelRect(viewW, viewH float64) (x, y, w, h float64) {
	w = t[0] * viewW / 2
	h = t[5] * viewH / 2
	cx := viewW/2 + t[12]*viewW/2
	cy := viewH/2 - t[13]*viewH/2
	return cx - w/2, cy - h/2, w, h
}
