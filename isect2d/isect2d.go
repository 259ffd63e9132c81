// Package isect2d implements the broad-phase spatial index of the
// label engine: a uniform grid of cells covering the viewport. AABBs
// carry an integer payload and are inserted into every cell they
// overlap; queries visit each unique payload in the overlapped cells
// at most once.
package isect2d

import "github.com/kristch/tangram-es/geom"

// Grid is a uniform broad-phase grid. The zero value is unusable;
// call Resize before the first frame. Cell storage is reused across
// frames, only capacity grows.
type Grid struct {
	split      geom.Point // cell count per dimension
	resolution geom.Point // covered extent in pixels
	cellSize   geom.Point

	cells [][]int32

	// Per-query duplicate suppression: seen[payload] == epoch means
	// the payload was already visited by the current query.
	seen  []uint32
	epoch uint32
}

// Resize configures the grid to split x split cells over an extent of
// resolution pixels, dropping all content. Fractional splits are
// truncated; a split below one cell is clamped to one.
func (g *Grid) Resize(split, resolution geom.Point) {
	cx, cy := int(split.X), int(split.Y)
	if cx < 1 {
		cx = 1
	}
	if cy < 1 {
		cy = 1
	}

	g.split = geom.Pt(float32(cx), float32(cy))
	g.resolution = resolution
	g.cellSize = geom.Pt(resolution.X/float32(cx), resolution.Y/float32(cy))

	n := cx * cy
	if cap(g.cells) < n {
		g.cells = make([][]int32, n)
	} else {
		g.cells = g.cells[:n]
	}
	g.Clear()
}

// Clear empties all cells, keeping their storage.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// cellRange maps an AABB to the inclusive cell index range it touches,
// clamped to the grid. ok is false when the box lies fully outside.
func (g *Grid) cellRange(aabb geom.AABB) (x0, y0, x1, y1 int, ok bool) {
	if aabb.Max.X <= 0 || aabb.Max.Y <= 0 ||
		aabb.Min.X >= g.resolution.X || aabb.Min.Y >= g.resolution.Y {
		return 0, 0, 0, 0, false
	}
	cx, cy := int(g.split.X), int(g.split.Y)

	x0 = clamp(int(aabb.Min.X/g.cellSize.X), 0, cx-1)
	y0 = clamp(int(aabb.Min.Y/g.cellSize.Y), 0, cy-1)
	x1 = clamp(int(aabb.Max.X/g.cellSize.X), 0, cx-1)
	y1 = clamp(int(aabb.Max.Y/g.cellSize.Y), 0, cy-1)
	return x0, y0, x1, y1, true
}

// Insert adds payload to every cell the AABB overlaps. Boxes with an
// empty extent or fully outside the grid are skipped.
func (g *Grid) Insert(aabb geom.AABB, payload int) {
	if aabb.IsEmpty() {
		return
	}
	x0, y0, x1, y1, ok := g.cellRange(aabb)
	if !ok {
		return
	}
	cx := int(g.split.X)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			i := y*cx + x
			g.cells[i] = append(g.cells[i], int32(payload))
		}
	}
	if n := int(payload); n >= len(g.seen) {
		grown := make([]uint32, n+1)
		copy(grown, g.seen)
		g.seen = grown
	}
}

// Intersect invokes cb for each unique payload stored in the cells the
// query AABB overlaps. Returning false from cb stops the query. Each
// payload is visited at most once per query; candidates are coarse,
// callers run their own narrow phase.
func (g *Grid) Intersect(aabb geom.AABB, cb func(payload int) bool) {
	x0, y0, x1, y1, ok := g.cellRange(aabb)
	if !ok {
		return
	}
	g.epoch++
	cx := int(g.split.X)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			for _, payload := range g.cells[y*cx+x] {
				if g.seen[payload] == g.epoch {
					continue
				}
				g.seen[payload] = g.epoch
				if !cb(int(payload)) {
					return
				}
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
