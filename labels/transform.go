package labels

import "github.com/kristch/tangram-es/geom"

// Range is a [Start, Start+Length) handle into a shared arena.
type Range struct {
	Start  int
	Length int
}

// End returns the index one past the last element.
func (r Range) End() int { return r.Start + r.Length }

// TransformBuffer is the shared screen-transform arena. Every label's
// per-frame screen transform is a slice of this buffer, identified by
// a Range. Clearing is O(1) and capacity is reused across frames.
type TransformBuffer struct {
	points []geom.Point
}

// Clear drops all transforms, keeping capacity.
func (b *TransformBuffer) Clear() { b.points = b.points[:0] }

// Len returns the number of points currently stored.
func (b *TransformBuffer) Len() int { return len(b.points) }

// NewTransform starts a fresh range at the end of the buffer and
// returns an appendable view over it.
func (b *TransformBuffer) NewTransform(r *Range) ScreenTransform {
	r.Start = len(b.points)
	r.Length = 0
	return ScreenTransform{buf: b, r: r}
}

// Transform returns a view over an existing range.
func (b *TransformBuffer) Transform(r *Range) ScreenTransform {
	return ScreenTransform{buf: b, r: r}
}

// Truncate discards a range that was allocated last. Used to drop a
// label whose projection failed after its slice was started.
func (b *TransformBuffer) Truncate(r Range) {
	if r.Start <= len(b.points) {
		b.points = b.points[:r.Start]
	}
}

// ScreenTransform is a view over one label's slice of the transform
// arena. For point and line labels it holds two points, position then
// rotation; for curved labels it holds the sampled screen polyline.
type ScreenTransform struct {
	buf *TransformBuffer
	r   *Range
}

// Len returns the number of points in the range.
func (t ScreenTransform) Len() int { return t.r.Length }

// At returns the i-th point of the range.
func (t ScreenTransform) At(i int) geom.Point {
	return t.buf.points[t.r.Start+i]
}

// PushBack appends a point. The range must still be at the end of the
// arena; appending to an interior range would corrupt neighbors.
func (t ScreenTransform) PushBack(p geom.Point) {
	if t.r.End() != len(t.buf.points) {
		panic("labels: screen transform append out of order")
	}
	t.buf.points = append(t.buf.points, p)
	t.r.Length++
}

// Points returns the underlying slice of the range.
func (t ScreenTransform) Points() []geom.Point {
	return t.buf.points[t.r.Start:t.r.End()]
}

// pointTransform reads and writes the two-point position/rotation
// layout shared by point and line labels.
type pointTransform struct {
	t ScreenTransform
}

func (p pointTransform) set(position, rotation geom.Point) {
	p.t.PushBack(position)
	p.t.PushBack(rotation)
}

func (p pointTransform) position() geom.Point { return p.t.At(0) }
func (p pointTransform) rotation() geom.Point { return p.t.At(1) }

// OBBBuffer is the shared OBB arena, one Range per label.
type OBBBuffer struct {
	obbs []geom.OBB
}

// Clear drops all boxes, keeping capacity.
func (b *OBBBuffer) Clear() { b.obbs = b.obbs[:0] }

// Len returns the number of boxes currently stored.
func (b *OBBBuffer) Len() int { return len(b.obbs) }

// At returns the i-th box in the arena.
func (b *OBBBuffer) At(i int) *geom.OBB { return &b.obbs[i] }

// Append adds a box at the end of the arena, growing the range. The
// range must be at the end of the arena.
func (b *OBBBuffer) Append(r *Range, obb geom.OBB) {
	if r.End() != len(b.obbs) {
		panic("labels: obb append out of order")
	}
	b.obbs = append(b.obbs, obb)
	r.Length++
}

// Set overwrites the i-th box of the range in place. Used when a label
// recomputes its boxes for an anchor fallback.
func (b *OBBBuffer) Set(r Range, i int, obb geom.OBB) {
	b.obbs[r.Start+i] = obb
}
