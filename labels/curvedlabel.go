package labels

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kristch/tangram-es/geom"
	"github.com/kristch/tangram-es/style"
	"github.com/kristch/tangram-es/view"
)

// curvatureWeight scales the curvature-variance penalty of the
// candidate priority. The formula is a heuristic; callers must treat
// CandidatePriority as opaque.
const curvatureWeight = 4.0

// CurvedLabel is a text label whose glyphs follow a world polyline.
// Its screen transform is the projected polyline; glyphs are sampled
// along it by arc length.
type CurvedLabel struct {
	baseLabel

	worldLine  []geom.Point
	textLabels *TextLabels
	textRange  Range
	fontAttrib VertexAttributes
	rtl        bool

	candidatePriority float32

	sampler  geom.LineSampler
	headings []float64
}

// NewCurvedLabel creates a curved label over a world polyline. rtl
// reverses the sampling direction so right-to-left text reads in
// visual order (see style.IsRTL).
func NewCurvedLabel(line []geom.Point, dim geom.Point, options Options, attrib VertexAttributes,
	set *TextLabels, textRange Range, rtl bool, hash uint64) *CurvedLabel {

	l := &CurvedLabel{
		baseLabel:  newBaseLabel(TypeCurved, dim, options, hash),
		worldLine:  line,
		textLabels: set,
		textRange:  textRange,
		fontAttrib: attrib,
		rtl:        rtl,
	}
	l.applyAnchor(l.options.Anchors.At(0))
	return l
}

// CandidatePriority ranks this placement against other curved labels
// of the same feature; higher is better. Valid after a successful
// Update.
func (l *CurvedLabel) CandidatePriority() float32 { return l.candidatePriority }

// Update projects the polyline for this frame.
func (l *CurvedLabel) Update(mvp geom.Mat4, vs view.ViewState, bounds geom.AABB, t ScreenTransform) bool {
	l.beginUpdate()
	if !l.updateScreenTransform(mvp, vs, bounds, t) {
		l.projectionFailed()
		return false
	}
	return true
}

func (l *CurvedLabel) updateScreenTransform(mvp geom.Mat4, vs view.ViewState, bounds geom.AABB, t ScreenTransform) bool {
	if len(l.worldLine) < 2 {
		return false
	}

	lineBounds := geom.AABB{}
	for i, wp := range l.worldLine {
		sp, clipped := geom.WorldToScreen(mvp, wp, vs.ViewportSize)
		if clipped {
			return false
		}
		t.PushBack(sp)

		corner := geom.AABB{Min: sp, Max: sp}
		if i == 0 {
			lineBounds = corner
		} else {
			lineBounds = lineBounds.Union(corner)
		}
	}

	if !bounds.Intersect(lineBounds.Inflate(1)) {
		return false
	}

	l.sampler.Set(t.Points())

	// The glyph run must fit on the projected line with room to bend.
	if l.sampler.SumLength() < l.dim.X+2*l.dim.Y {
		return false
	}

	center, _, ok := l.sampler.Sample(l.sampler.SumLength() * 0.5)
	if !ok {
		return false
	}
	l.screenCenter = center

	l.candidatePriority = l.computeCandidatePriority()
	return true
}

// computeCandidatePriority scores the current projection: longer
// lines place more reliably, strongly bending lines read badly.
func (l *CurvedLabel) computeCandidatePriority() float32 {
	points := l.sampler.Points()

	l.headings = l.headings[:0]
	for i := 1; i < len(points); i++ {
		d := points[i].Sub(points[i-1])
		l.headings = append(l.headings, math.Atan2(float64(d.Y), float64(d.X)))
	}

	lengthScore := l.sampler.SumLength() / l.dim.X

	if len(l.headings) < 2 {
		return lengthScore
	}

	turns := make([]float64, 0, len(l.headings)-1)
	for i := 1; i < len(l.headings); i++ {
		turn := l.headings[i] - l.headings[i-1]
		for turn > math.Pi {
			turn -= 2 * math.Pi
		}
		for turn < -math.Pi {
			turn += 2 * math.Pi
		}
		turns = append(turns, turn)
	}

	variance := stat.Variance(turns, nil)
	if math.IsNaN(variance) {
		variance = 0
	}
	return lengthScore - float32(variance)*curvatureWeight
}

// WorldLineLength2 returns zero; the line comparator rule applies to
// straight line labels only.
func (l *CurvedLabel) WorldLineLength2() float32 { return 0 }

// glyphRunStart returns the arc length at which the glyph run begins,
// centering the run on the polyline.
func (l *CurvedLabel) glyphRunStart() float32 {
	return (l.sampler.SumLength() - l.dim.X) * 0.5
}

// OBBs emits one box per sampled run of the glyph line, so a curved
// label occludes along its bend instead of over its hull.
func (l *CurvedLabel) OBBs(t ScreenTransform, buf *OBBBuffer, r *Range, appendBoxes bool) {
	l.sampler.Set(t.Points())

	dim := l.dim.Sub(l.options.Buffer)
	if l.occludedLastFrame {
		dim = dim.Add(geom.Pt(ActivationDistanceThreshold, ActivationDistanceThreshold))
	}

	chunk := l.dim.Y * 2
	count := int(l.dim.X/chunk) + 1
	start := l.glyphRunStart()

	if appendBoxes {
		r.Start = buf.Len()
		r.Length = 0
	}

	for i := 0; i < count; i++ {
		at := start + (float32(i)+0.5)*chunk
		if at > start+l.dim.X {
			at = start + l.dim.X
		}
		pos, rot, ok := l.sampler.Sample(at)
		if !ok {
			break
		}
		obb := geom.NewOBB(pos, rot, min32(chunk, dim.X)*0.5, dim.Y*0.5)

		if appendBoxes {
			buf.Append(r, obb)
		} else if i < r.Length {
			buf.Set(*r, i, obb)
		}
	}
}

// AddVerticesToMesh samples every glyph quad along the polyline.
func (l *CurvedLabel) AddVerticesToMesh(t ScreenTransform, screenSize geom.Point) {
	if !l.VisibleState() || t.Len() < 2 {
		return
	}

	l.sampler.Set(t.Points())
	start := l.glyphRunStart()

	state := style.VertexState{
		SelectionColor: l.options.SelectionColor,
		Fill:           l.fontAttrib.Fill,
		Stroke:         l.fontAttrib.Stroke,
		Alpha:          uint16(l.alpha * style.AlphaScale),
		Scale:          l.fontAttrib.FontScale,
	}

	min := geom.Pt(-l.dim.Y, -l.dim.Y).Mul(style.PositionScale)
	max := screenSize.Add(geom.Pt(l.dim.Y, l.dim.Y)).Mul(style.PositionScale)

	quads := l.textLabels.Quads()[l.textRange.Start:l.textRange.End()]

	var vertexPosition [4]style.FixedPos
	for _, quad := range quads {
		// Glyph center along the run, in pixels.
		centerX := (float32(quad.Quad[0].Pos.X) + float32(quad.Quad[1].Pos.X)) *
			0.5 * style.PositionInvScale

		at := start + centerX
		if l.rtl {
			at = start + l.dim.X - centerX
		}
		pos, rot, ok := l.sampler.Sample(at)
		if !ok {
			continue
		}
		sp := style.PackPosition(pos)

		visible := false
		for i, corner := range quad.Quad {
			rel := geom.Pt(float32(corner.Pos.X)-centerX*style.PositionScale, float32(corner.Pos.Y))
			rp := geom.RotateBy(rel, geom.Pt(rot.X, -rot.Y))
			vertexPosition[i] = sp.Add(style.FixedPos{X: int16(rp.X), Y: int16(rp.Y)})

			if !visible &&
				float32(vertexPosition[i].X) > min.X && float32(vertexPosition[i].X) < max.X &&
				float32(vertexPosition[i].Y) > min.Y && float32(vertexPosition[i].Y) < max.Y {
				visible = true
			}
		}
		if !visible {
			continue
		}

		vertices := l.textLabels.Style.Mesh(quad.Atlas).PushQuad()
		for i := range vertices {
			vertices[i].Pos = vertexPosition[i]
			vertices[i].UV = quad.Quad[i].UV
			vertices[i].State = state
		}
	}
}
