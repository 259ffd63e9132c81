package style

import (
	"github.com/go-text/typesetting/font"
	"github.com/gogpu/gputypes"

	"github.com/kristch/tangram-es/geom"
)

// Vertex positions are encoded as 13.2 fixed-point int16, matching the
// layout the renderer uploads. Alpha is quantized to u16.
const (
	PositionScale    = 4.0
	PositionInvScale = 0.25
	AlphaScale       = 65535.0
)

// Atlas describes a glyph or sprite texture page. The engine never
// touches texels, it only tags meshes with the page they sample from.
type Atlas struct {
	Index  int
	Format gputypes.TextureFormat
}

// SDFAtlas is a single-channel signed-distance-field glyph page.
func SDFAtlas(index int) Atlas {
	return Atlas{Index: index, Format: gputypes.TextureFormatR8Unorm}
}

// ColorAtlas is a full-color page (emoji glyphs, icon sprites).
func ColorAtlas(index int) Atlas {
	return Atlas{Index: index, Format: gputypes.TextureFormatRGBA8Unorm}
}

// FixedPos is a 13.2 fixed-point screen position.
type FixedPos struct {
	X, Y int16
}

// PackPosition quantizes a screen-space point to 13.2 fixed point.
func PackPosition(p geom.Point) FixedPos {
	return FixedPos{
		X: int16(p.X * PositionScale),
		Y: int16(p.Y * PositionScale),
	}
}

// Point returns the position back in float pixels.
func (p FixedPos) Point() geom.Point {
	return geom.Pt(float32(p.X)*PositionInvScale, float32(p.Y)*PositionInvScale)
}

// Add offsets the fixed position by another.
func (p FixedPos) Add(q FixedPos) FixedPos {
	return FixedPos{X: p.X + q.X, Y: p.Y + q.Y}
}

// UV is a normalized u16 texture coordinate.
type UV struct {
	U, V uint16
}

// QuadCorner is one corner of a pre-shaped glyph or sprite quad,
// positioned relative to the label origin.
type QuadCorner struct {
	Pos FixedPos
	UV  UV
}

// GlyphQuad is one shaped glyph as produced by the text pipeline:
// which atlas page it samples, which glyph it is, and its four
// corners relative to the label origin.
type GlyphQuad struct {
	Atlas int
	Glyph font.GID
	Quad  [4]QuadCorner
}

// VertexState is the per-quad shading state packed next to each vertex.
type VertexState struct {
	SelectionColor uint32
	Fill           uint32
	Stroke         uint32
	Alpha          uint16
	Scale          uint16
}

// TextVertex is the wire format of one label mesh vertex.
type TextVertex struct {
	Pos   FixedPos
	UV    UV
	State VertexState
}

// DynamicQuadMesh accumulates label quads for one atlas page each
// frame. Storage is reused; Clear is O(1).
type DynamicQuadMesh struct {
	Atlas    Atlas
	vertices []TextVertex
}

// NewDynamicQuadMesh creates an empty mesh for the given atlas.
func NewDynamicQuadMesh(a Atlas) *DynamicQuadMesh {
	return &DynamicQuadMesh{Atlas: a}
}

// PushQuad appends four vertices and returns the slice to fill in.
func (m *DynamicQuadMesh) PushQuad() []TextVertex {
	n := len(m.vertices)
	m.vertices = append(m.vertices, TextVertex{}, TextVertex{}, TextVertex{}, TextVertex{})
	return m.vertices[n:]
}

// Vertices returns all vertices pushed this frame.
func (m *DynamicQuadMesh) Vertices() []TextVertex { return m.vertices }

// QuadCount returns the number of quads pushed this frame.
func (m *DynamicQuadMesh) QuadCount() int { return len(m.vertices) / 4 }

// Clear drops the vertices, keeping capacity.
func (m *DynamicQuadMesh) Clear() { m.vertices = m.vertices[:0] }
