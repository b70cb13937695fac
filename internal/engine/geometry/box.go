package geometry

// BoundingBox is an axis-aligned box in object-local space.
type BoundingBox struct {
	Min [3]float32
	Max [3]float32
}

// ComputeBoundingBox scans flat xyz positions once. The first vertex seeds
// both corners and every later vertex relaxes each of the six bounds on its
// own. Fewer than one full vertex yields the zero box.
func ComputeBoundingBox(positions []float32) BoundingBox {
	if len(positions) < 3 {
		return BoundingBox{}
	}
	b := BoundingBox{
		Min: [3]float32{positions[0], positions[1], positions[2]},
		Max: [3]float32{positions[0], positions[1], positions[2]},
	}
	for i := 3; i+2 < len(positions); i += 3 {
		for axis := 0; axis < 3; axis++ {
			v := positions[i+axis]
			if v < b.Min[axis] {
				b.Min[axis] = v
			}
			if v > b.Max[axis] {
				b.Max[axis] = v
			}
		}
	}
	return b
}

// Corners returns the eight corners, min corner first.
func (b BoundingBox) Corners() [8][3]float32 {
	lo, hi := b.Min, b.Max
	return [8][3]float32{
		{lo[0], lo[1], lo[2]},
		{hi[0], lo[1], lo[2]},
		{lo[0], hi[1], lo[2]},
		{hi[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]},
		{hi[0], lo[1], hi[2]},
		{lo[0], hi[1], hi[2]},
		{hi[0], hi[1], hi[2]},
	}
}
