package geom

import "sort"

// LineSampler walks a polyline by arc length. Curved labels use it to
// place glyphs along their projected screen polyline.
//
// The zero value is an empty sampler; storage is reused across frames
// via Clear.
type LineSampler struct {
	points  []Point
	lengths []float32 // cumulative arc length up to each point
}

// Clear empties the sampler, keeping capacity.
func (s *LineSampler) Clear() {
	s.points = s.points[:0]
	s.lengths = s.lengths[:0]
}

// Set replaces the polyline.
func (s *LineSampler) Set(points []Point) {
	s.Clear()
	for _, p := range points {
		s.Add(p)
	}
}

// Add appends a point to the polyline. Zero-length segments are
// collapsed so sampling never divides by zero.
func (s *LineSampler) Add(p Point) {
	if n := len(s.points); n > 0 {
		d := p.Distance(s.points[n-1])
		if d == 0 {
			return
		}
		s.lengths = append(s.lengths, s.lengths[n-1]+d)
	} else {
		s.lengths = append(s.lengths, 0)
	}
	s.points = append(s.points, p)
}

// Points returns the current polyline.
func (s *LineSampler) Points() []Point { return s.points }

// SumLength returns the total arc length.
func (s *LineSampler) SumLength() float32 {
	if len(s.lengths) == 0 {
		return 0
	}
	return s.lengths[len(s.lengths)-1]
}

// SegmentLength returns the length of segment i.
func (s *LineSampler) SegmentLength(i int) float32 {
	if i < 0 || i+1 >= len(s.points) {
		return 0
	}
	return s.lengths[i+1] - s.lengths[i]
}

// Sample returns the interpolated position and the unit direction of
// the containing segment at arc length t. t is clamped to the line.
// ok is false when the sampler holds fewer than two points.
func (s *LineSampler) Sample(t float32) (pos, rotation Point, ok bool) {
	if len(s.points) < 2 {
		return Point{}, Point{1, 0}, false
	}
	total := s.SumLength()
	if t <= 0 {
		t = 0
	} else if t > total {
		t = total
	}

	// First segment whose end passes t.
	i := sort.Search(len(s.lengths), func(i int) bool { return s.lengths[i] >= t })
	if i == 0 {
		i = 1
	}
	a, b := s.points[i-1], s.points[i]
	segLen := s.lengths[i] - s.lengths[i-1]

	rotation = b.Sub(a).Mul(1 / segLen)
	pos = a.Lerp(b, (t-s.lengths[i-1])/segLen)
	return pos, rotation, true
}

// Reverse flips the direction of the polyline in place, so sampling
// at t afterwards matches sampling at SumLength()-t before.
func (s *LineSampler) Reverse() {
	n := len(s.points)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		s.points[i], s.points[j] = s.points[j], s.points[i]
	}
	for i := 1; i < n; i++ {
		s.lengths[i] = s.lengths[i-1] + s.points[i].Distance(s.points[i-1])
	}
}
