// Package debug builds line geometry for on-screen overlays.
package debug

import "github.com/Faultbox/arplace/internal/engine/geometry"

// BoxWireframeVertexCount is the number of vertices in a box wireframe (12 edges × 2).
const BoxWireframeVertexCount = 24

// SelectionPadding expands selection boxes slightly so the lines do not
// z-fight with the mesh faces.
const SelectionPadding = 0.01

// BoxWireframe returns GL_LINES vertices (xyz each) for the 12 edges of b,
// grown by padding on every side. The result is in the box's own space and
// is drawn with the owner's MVP.
func BoxWireframe(b geometry.BoundingBox, padding float32) []float32 {
	minX, minY, minZ := b.Min[0]-padding, b.Min[1]-padding, b.Min[2]-padding
	maxX, maxY, maxZ := b.Max[0]+padding, b.Max[1]+padding, b.Max[2]+padding

	return []float32{
		// bottom
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// top
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// verticals
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}
