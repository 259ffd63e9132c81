package labels

import (
	"math"

	tangram "github.com/kristch/tangram-es"
	"github.com/kristch/tangram-es/geom"
	"github.com/kristch/tangram-es/view"
)

// Primitives is the debug drawing facade. The host provides an
// implementation that draws immediate-mode lines on top of the map.
type Primitives interface {
	SetColor(color uint32)
	DrawLine(a, b geom.Point)
	DrawRect(min, max geom.Point)
	DrawPoly(points []geom.Point)
}

// stateDebugColor maps every lifecycle state to an overlay color.
func stateDebugColor(s State) uint32 {
	switch s {
	case StateSleep:
		return 0xffffff
	case StateVisible:
		return 0x000000
	case StateNone:
		return 0x0000ff
	case StateDead:
		return 0xff00ff
	case StateFadingIn:
		return 0xffff00
	case StateFadingOut:
		return 0xff0000
	}
	return 0x999999
}

// DrawDebug renders the label debug overlay: per-state colored
// collision boxes, parent links, curved transforms, anchor offsets
// and the broad-phase grid. Gated on the DebugLabels flag.
func (m *Labels) DrawDebug(p Primitives, vs view.ViewState) {
	if !tangram.GetDebugFlag(tangram.DebugLabels) {
		return
	}

	for i := range m.entries {
		e := &m.entries[i]
		l := e.Label

		if l.Type() == TypeDebug {
			continue
		}

		sp := l.ScreenCenter()

		// Bounding boxes, colored by state.
		p.SetColor(stateDebugColor(l.State()))
		for k := e.OBBs.Start; k < e.OBBs.End(); k++ {
			quad := m.obbs.At(k).Quad()
			p.DrawPoly(quad[:])
		}

		if parent := l.Parent(); parent != nil {
			p.SetColor(0xff0000)
			p.DrawLine(sp, parent.ScreenCenter())
		}

		if l.Type() == TypeCurved {
			transform := m.transforms.Transform(&e.Transform)
			for k := 0; k < transform.Len()-1; k++ {
				if k%2 == 0 {
					p.SetColor(0xff0000)
				} else {
					p.SetColor(0x0000ff)
				}
				p.DrawLine(transform.At(k), transform.At(k+1))
			}
		}

		// Anchor offset whisker.
		offset := l.Options().Offset
		if parent := l.Parent(); parent != nil {
			offset = offset.Add(parent.Options().Offset)
		}
		p.SetColor(0x000000)
		p.DrawLine(sp, sp.Sub(geom.Pt(offset.X, -offset.Y)))
	}

	// Broad-phase grid.
	split := geom.Pt(vs.ViewportSize.X/collisionMargin, vs.ViewportSize.Y/collisionMargin)
	res := vs.ViewportSize
	xpad := float32(math.Ceil(float64(res.X / split.X)))
	ypad := float32(math.Ceil(float64(res.Y / split.Y)))

	p.SetColor(0x7ef586)
	var x, y float32
	for j := 0; j < int(split.Y); j++ {
		for i := 0; i < int(split.X); i++ {
			p.DrawRect(geom.Pt(x, y), geom.Pt(x+xpad, y+ypad))
			x += xpad
			if x >= res.X {
				x = 0
				y += ypad
			}
		}
	}
}
