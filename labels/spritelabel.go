package labels

import (
	"github.com/kristch/tangram-es/geom"
	"github.com/kristch/tangram-es/style"
	"github.com/kristch/tangram-es/view"
)

// SpriteLabel is an icon label of a point style: a single pre-built
// quad anchored at one world position. It collides like a point text
// label and often acts as the parent of one.
type SpriteLabel struct {
	baseLabel

	worldPos geom.Point
	quad     [4]style.QuadCorner
	color    uint32
	style    *style.PointStyle
}

// NewSpriteLabel creates a sprite label from a pre-built quad.
func NewSpriteLabel(pos geom.Point, dim geom.Point, options Options, color uint32,
	quad [4]style.QuadCorner, s *style.PointStyle, hash uint64) *SpriteLabel {

	l := &SpriteLabel{
		baseLabel: newBaseLabel(TypePoint, dim, options, hash),
		worldPos:  pos,
		quad:      quad,
		color:     color,
		style:     s,
	}
	l.applyAnchor(l.options.Anchors.At(0))
	return l
}

// Update projects the sprite for this frame.
func (l *SpriteLabel) Update(mvp geom.Mat4, vs view.ViewState, bounds geom.AABB, t ScreenTransform) bool {
	l.beginUpdate()

	screenPosition, clipped := geom.WorldToScreen(mvp, l.worldPos, vs.ViewportSize)
	if clipped || !bounds.Contains(screenPosition) {
		l.projectionFailed()
		return false
	}

	l.screenCenter = screenPosition
	pointTransform{t}.set(screenPosition.Add(l.options.Offset), geom.Pt(1, 0))
	return true
}

// WorldLineLength2 returns zero; sprites have no segment.
func (l *SpriteLabel) WorldLineLength2() float32 { return 0 }

// OBBs emits the sprite's single collision box.
func (l *SpriteLabel) OBBs(t ScreenTransform, buf *OBBBuffer, r *Range, appendBoxes bool) {
	dim := l.dim.Sub(l.options.Buffer)
	if l.occludedLastFrame {
		dim = dim.Add(geom.Pt(ActivationDistanceThreshold, ActivationDistanceThreshold))
	}

	pt := pointTransform{t}
	obb := geom.NewOBB(pt.position().Add(l.anchor), geom.Pt(1, 0), dim.X*0.5, dim.Y*0.5)

	if appendBoxes {
		r.Start = buf.Len()
		r.Length = 0
		buf.Append(r, obb)
	} else {
		buf.Set(*r, 0, obb)
	}
}

// AddVerticesToMesh emits the sprite quad.
func (l *SpriteLabel) AddVerticesToMesh(t ScreenTransform, screenSize geom.Point) {
	if !l.VisibleState() {
		return
	}

	pt := pointTransform{t}
	sp := style.PackPosition(pt.position().Add(l.anchor))

	min := geom.Pt(-l.dim.Y, -l.dim.Y).Mul(style.PositionScale)
	max := screenSize.Add(geom.Pt(l.dim.Y, l.dim.Y)).Mul(style.PositionScale)

	visible := false
	var vertexPosition [4]style.FixedPos
	for i, corner := range l.quad {
		vertexPosition[i] = sp.Add(corner.Pos)
		if !visible &&
			float32(vertexPosition[i].X) > min.X && float32(vertexPosition[i].X) < max.X &&
			float32(vertexPosition[i].Y) > min.Y && float32(vertexPosition[i].Y) < max.Y {
			visible = true
		}
	}
	if !visible {
		return
	}

	state := style.VertexState{
		SelectionColor: l.options.SelectionColor,
		Fill:           l.color,
		Alpha:          uint16(l.alpha * style.AlphaScale),
	}

	vertices := l.style.Mesh().PushQuad()
	for i := range vertices {
		vertices[i].Pos = vertexPosition[i]
		vertices[i].UV = l.quad[i].UV
		vertices[i].State = state
	}
}
