package labels

import (
	"github.com/kristch/tangram-es/geom"
	"github.com/kristch/tangram-es/style"
	"github.com/kristch/tangram-es/view"
)

// Align selects which pre-shaped text block a point label draws. The
// text pipeline shapes up to three alignments per label; the active
// anchor picks one.
type Align int8

const (
	AlignNone Align = iota - 1
	AlignLeft
	AlignCenter
	AlignRight
)

// TextRange maps each alignment to its glyph quad range in the owning
// TextLabels.
type TextRange [3]Range

// alignFromAnchor picks the alignment that reads naturally for an
// anchor: a label left of its point grows leftwards.
func alignFromAnchor(a Anchor) Align {
	switch a {
	case AnchorLeft, AnchorTopLeft, AnchorBottomLeft:
		return AlignRight
	case AnchorRight, AnchorTopRight, AnchorBottomRight:
		return AlignLeft
	default:
		return AlignCenter
	}
}

// VertexAttributes are the per-label shading inputs baked into every
// emitted vertex.
type VertexAttributes struct {
	Fill      uint32
	Stroke    uint32
	FontScale uint16
}

// TextLabel is a text label anchored at a single world position
// (point and debug shapes) or along a world segment (line shape).
type TextLabel struct {
	baseLabel

	worldTransform [2]geom.Point
	textLabels     *TextLabels
	textRanges     TextRange
	textRangeIndex int
	fontAttrib     VertexAttributes
	preferredAlign Align
}

// NewPointLabel creates a text label anchored at one world position.
func NewPointLabel(pos geom.Point, dim geom.Point, options Options, attrib VertexAttributes,
	set *TextLabels, ranges TextRange, preferred Align, hash uint64) *TextLabel {

	return newTextLabel([2]geom.Point{pos}, TypePoint, dim, options, attrib, set, ranges, preferred, hash)
}

// NewLineLabel creates a text label attached to a world segment.
func NewLineLabel(a, b geom.Point, dim geom.Point, options Options, attrib VertexAttributes,
	set *TextLabels, ranges TextRange, hash uint64) *TextLabel {

	return newTextLabel([2]geom.Point{a, b}, TypeLine, dim, options, attrib, set, ranges, AlignNone, hash)
}

// NewDebugLabel creates a non-colliding point label used by debug
// overlays.
func NewDebugLabel(pos geom.Point, dim geom.Point, options Options, attrib VertexAttributes,
	set *TextLabels, ranges TextRange, hash uint64) *TextLabel {

	options.Collide = false
	return newTextLabel([2]geom.Point{pos}, TypeDebug, dim, options, attrib, set, ranges, AlignNone, hash)
}

func newTextLabel(world [2]geom.Point, typ Type, dim geom.Point, options Options,
	attrib VertexAttributes, set *TextLabels, ranges TextRange, preferred Align,
	hash uint64) *TextLabel {

	if typ == TypeLine {
		// Line labels cannot reuse a slot further along the line, so
		// repeat spacing does not apply to them.
		options.RepeatDistance = 0
	}

	l := &TextLabel{
		baseLabel:      newBaseLabel(typ, dim, options, hash),
		worldTransform: world,
		textLabels:     set,
		textRanges:     ranges,
		fontAttrib:     attrib,
		preferredAlign: preferred,
	}
	l.applyTextAnchor(l.options.Anchors.At(0))
	return l
}

// applyTextAnchor applies the anchor offset and switches the glyph
// range to the alignment the anchor implies.
func (l *TextLabel) applyTextAnchor(anchor Anchor) {
	if l.preferredAlign == AlignNone {
		l.textRangeIndex = int(alignFromAnchor(anchor))
	} else {
		l.textRangeIndex = int(l.preferredAlign)
	}
	if l.textRanges[l.textRangeIndex].Length == 0 {
		l.textRangeIndex = 0
	}
	l.applyAnchor(anchor)
}

// NextAnchor advances the anchor and realigns the glyph range.
func (l *TextLabel) NextAnchor() bool {
	if !l.baseLabel.NextAnchor() {
		return false
	}
	l.applyTextAnchor(l.options.Anchors.At(l.anchorIndex))
	return true
}

// Update projects the label for this frame.
func (l *TextLabel) Update(mvp geom.Mat4, vs view.ViewState, bounds geom.AABB, t ScreenTransform) bool {
	l.beginUpdate()
	if !l.updateScreenTransform(mvp, vs, bounds, t) {
		l.projectionFailed()
		return false
	}
	return true
}

func (l *TextLabel) updateScreenTransform(mvp geom.Mat4, vs view.ViewState, bounds geom.AABB, t ScreenTransform) bool {
	switch l.typ {
	case TypePoint, TypeDebug:
		screenPosition, clipped := geom.WorldToScreen(mvp, l.worldTransform[0], vs.ViewportSize)
		if clipped || !bounds.Contains(screenPosition) {
			return false
		}

		l.screenCenter = screenPosition
		pointTransform{t}.set(screenPosition.Add(l.options.Offset), geom.Pt(1, 0))
		return true

	case TypeLine:
		ap0, clipped0 := geom.WorldToScreen(mvp, l.worldTransform[0], vs.ViewportSize)
		ap2, clipped2 := geom.WorldToScreen(mvp, l.worldTransform[1], vs.ViewportSize)
		if clipped0 || clipped2 {
			return false
		}

		length := ap2.Sub(ap0).Length()

		// Allow the segment to be up to 30% shorter than the label.
		minLength := l.dim.X * 0.7
		if length < minLength {
			return false
		}

		segmentBounds := geom.AABB{
			Min: geom.Pt(min32(ap0.X, ap2.X), min32(ap0.Y, ap2.Y)),
			Max: geom.Pt(max32(ap0.X, ap2.X), max32(ap0.Y, ap2.Y)),
		}
		if !bounds.Intersect(segmentBounds) {
			return false
		}

		// Keep the screen center at the world midpoint; interpolating
		// in screen space slides under tilted views.
		mid := l.worldTransform[0].Add(l.worldTransform[1]).Mul(0.5)
		screenPosition, clipped := geom.WorldToScreen(mvp, mid, vs.ViewportSize)
		if clipped {
			return false
		}

		rotation := ap2.Sub(ap0)
		if ap0.X > ap2.X {
			rotation = ap0.Sub(ap2)
		}
		rotation = rotation.Mul(1 / length)
		rotation = geom.Pt(rotation.X, -rotation.Y)

		l.screenCenter = screenPosition
		pointTransform{t}.set(screenPosition.Add(geom.RotateBy(l.options.Offset, rotation)), rotation)
		return true
	}

	return false
}

// WorldLineLength2 returns the squared world length of the segment.
func (l *TextLabel) WorldLineLength2() float32 {
	if l.typ != TypeLine {
		return 0
	}
	return l.worldTransform[0].Sub(l.worldTransform[1]).LengthSq()
}

// OBBs emits the label's single collision box at its current anchor.
func (l *TextLabel) OBBs(t ScreenTransform, buf *OBBBuffer, r *Range, appendBoxes bool) {
	dim := l.dim.Sub(l.options.Buffer)
	if l.occludedLastFrame {
		dim = dim.Add(geom.Pt(ActivationDistanceThreshold, ActivationDistanceThreshold))
	}

	pt := pointTransform{t}
	rotation := pt.rotation()

	obb := geom.NewOBB(
		pt.position().Add(l.anchor),
		geom.Pt(rotation.X, -rotation.Y),
		dim.X*0.5, dim.Y*0.5,
	)

	if appendBoxes {
		r.Start = buf.Len()
		r.Length = 0
		buf.Append(r, obb)
	} else {
		buf.Set(*r, 0, obb)
	}
}

// AddVerticesToMesh emits the glyph quads of the active alignment.
func (l *TextLabel) AddVerticesToMesh(t ScreenTransform, screenSize geom.Point) {
	if !l.VisibleState() {
		return
	}

	state := style.VertexState{
		SelectionColor: l.options.SelectionColor,
		Fill:           l.fontAttrib.Fill,
		Stroke:         l.fontAttrib.Stroke,
		Alpha:          uint16(l.alpha * style.AlphaScale),
		Scale:          l.fontAttrib.FontScale,
	}

	pt := pointTransform{t}
	rotation := pt.rotation()
	rotate := rotation.X != 1

	screenPosition := pt.position().Add(l.anchor)
	sp := style.PackPosition(screenPosition)

	// Expand the screen bounding box by the text height so quads
	// hanging off a visible anchor still draw.
	min := geom.Pt(-l.dim.Y, -l.dim.Y).Mul(style.PositionScale)
	max := screenSize.Add(geom.Pt(l.dim.Y, l.dim.Y)).Mul(style.PositionScale)

	textRange := l.textRanges[l.textRangeIndex]
	quads := l.textLabels.Quads()[textRange.Start:textRange.End()]

	var vertexPosition [4]style.FixedPos
	for _, quad := range quads {
		visible := false

		for i, corner := range quad.Quad {
			p := corner.Pos
			if rotate {
				rp := geom.RotateBy(geom.Pt(float32(p.X), float32(p.Y)), rotation)
				p = style.FixedPos{X: int16(rp.X), Y: int16(rp.Y)}
			}
			vertexPosition[i] = sp.Add(p)

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

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
