package geom

// OBB is an oriented bounding box: a rectangle rotated so that its
// local x direction is Axis. Axis must be unit-length.
type OBB struct {
	Centroid              Point
	Axis                  Point
	HalfWidth, HalfHeight float32

	quad [4]Point
}

// NewOBB builds an OBB from its center, unit axis and half extents,
// precomputing the corner quad.
func NewOBB(center, axis Point, halfW, halfH float32) OBB {
	o := OBB{Centroid: center, Axis: axis, HalfWidth: halfW, HalfHeight: halfH}
	x := axis.Mul(halfW)
	y := axis.Perp().Mul(halfH)
	o.quad[0] = center.Sub(x).Sub(y)
	o.quad[1] = center.Add(x).Sub(y)
	o.quad[2] = center.Add(x).Add(y)
	o.quad[3] = center.Sub(x).Add(y)
	return o
}

// Quad returns the four corners in counter-clockwise order.
func (o *OBB) Quad() [4]Point { return o.quad }

// Extent returns the axis-aligned bounding box of the quad.
func (o *OBB) Extent() AABB {
	e := AABB{Min: o.quad[0], Max: o.quad[0]}
	for _, p := range o.quad[1:] {
		e.Min.X = min32(e.Min.X, p.X)
		e.Min.Y = min32(e.Min.Y, p.Y)
		e.Max.X = max32(e.Max.X, p.X)
		e.Max.Y = max32(e.Max.Y, p.Y)
	}
	return e
}

// projectRange projects the quad onto a separating axis candidate.
func (o *OBB) projectRange(axis Point) (lo, hi float32) {
	lo = o.quad[0].Dot(axis)
	hi = lo
	for _, p := range o.quad[1:] {
		d := p.Dot(axis)
		lo = min32(lo, d)
		hi = max32(hi, d)
	}
	return lo, hi
}

// Intersect tests two OBBs with the separating axis theorem. Only the
// four unique face normals (two per box) need checking.
func Intersect(a, b *OBB) bool {
	axes := [4]Point{
		a.Axis, a.Axis.Perp(),
		b.Axis, b.Axis.Perp(),
	}
	for _, axis := range axes {
		aLo, aHi := a.projectRange(axis)
		bLo, bHi := b.projectRange(axis)
		if aHi < bLo || bHi < aLo {
			return false
		}
	}
	return true
}
