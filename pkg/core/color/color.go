// Package color assigns deterministic fallback display colors to nodes the
// server did not color.
//
// Space is split into the eight octants by the sign of each coordinate, zero
// counting as non-negative, and each octant maps to one fixed color. Assign
// is pure: the same position always yields the same color.
package color

import "github.com/sanonone/lawgraph/pkg/model"

// palette is indexed by Octant.
var palette = [8]model.Color{
	0xff0000, // +x +y +z
	0x00ff00, // -x +y +z
	0x0000ff, // +x -y +z
	0xffff00, // -x -y +z
	0xff00ff, // +x +y -z
	0x00ffff, // -x +y -z
	0xffa500, // +x -y -z
	0x800080, // -x -y -z
}

// Octant returns the octant index of p in [0, 8).
// Bit 0 is set for negative x, bit 1 for negative y, bit 2 for negative z.
func Octant(p model.Position) int {
	o := 0
	if p[0] < 0 {
		o |= 1
	}
	if p[1] < 0 {
		o |= 2
	}
	if p[2] < 0 {
		o |= 4
	}
	return o
}

// Assign returns the fallback color for a node at p.
func Assign(p model.Position) model.Color {
	return palette[Octant(p)]
}

// Palette returns the eight octant colors in Octant order.
func Palette() [8]model.Color {
	return palette
}
