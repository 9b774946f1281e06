package vad

// DefaultSnapTolerance bounds how far a clip boundary may be moved to meet
// a detected speech edge.
const DefaultSnapTolerance = 0.5

// SnapBoundaries nudges a clip's [start, end] onto the nearest detected
// speech edges within tolerance, so clips neither open mid-word nor trail
// into silence. Boundaries with no speech edge nearby stay where they are,
// and a degenerate result falls back to the original interval.
func SnapBoundaries(start, end float64, segments []Segment, tolerance float64) (float64, float64) {
	if tolerance <= 0 {
		tolerance = DefaultSnapTolerance
	}

	snappedStart := snap(start, segments, tolerance, func(s Segment) float64 { return s.Start })
	snappedEnd := snap(end, segments, tolerance, func(s Segment) float64 { return s.End })

	if snappedStart >= snappedEnd {
		return start, end
	}
	return snappedStart, snappedEnd
}

func snap(t float64, segments []Segment, tolerance float64, edge func(Segment) float64) float64 {
	best := t
	bestDist := tolerance
	for _, s := range segments {
		d := edge(s) - t
		if d < 0 {
			d = -d
		}
		if d <= bestDist {
			best = edge(s)
			bestDist = d
		}
	}
	return best
}
