package render

// Sub-pixel sample positions for multisampling, expressed as offsets from the
// pixel center in pixel units. The 4x pattern is a rotated grid; the 16x
// pattern spreads samples to avoid axis-aligned clustering.
var msaa4Offsets = [4][2]float64{
	{-0.125, -0.375},
	{0.375, -0.125},
	{0.125, 0.375},
	{-0.375, 0.125},
}

var msaa16Offsets = [16][2]float64{
	{-0.375, -0.4375}, {-0.125, -0.3125}, {0.125, -0.1875}, {0.375, -0.0625},
	{-0.4375, -0.125}, {-0.1875, 0.0625}, {0.0625, 0.1875}, {0.3125, 0.3125},
	{-0.3125, 0.125}, {-0.0625, 0.25}, {0.1875, 0.375}, {0.4375, 0.4375},
	{-0.25, 0.3125}, {0.0, 0.4375}, {0.25, -0.25}, {0.4375, -0.375},
}

// sampleOffsets returns the offset table for the given sample count.
func sampleOffsets(samples int) [][2]float64 {
	if samples == 16 {
		return msaa16Offsets[:]
	}
	return msaa4Offsets[:]
}
