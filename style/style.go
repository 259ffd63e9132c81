// Package style defines the contracts between the label engine and the
// styling pipeline: style discriminants, label meshes and the vertex
// encoding the renderer consumes.
//
// The engine never parses styles or owns GPU resources; it only
// appends vertices to the dynamic meshes a style provides.
package style

// Style identifies a draw style. The engine treats styles as opaque
// apart from their identity and their concrete type: only TextStyle
// and PointStyle carry label sets.
type Style interface {
	ID() uint32
	Name() string
}

// StyledMesh is the per-(tile, style) geometry handle. The engine
// inspects it with a type assertion and skips anything that is not a
// label set.
type StyledMesh interface {
	// Size returns the number of primitives in the mesh. Used for
	// bookkeeping and debug statistics only.
	Size() int
}

// TextStyle renders shaped text through per-atlas dynamic quad meshes.
type TextStyle struct {
	StyleID   uint32
	StyleName string

	meshes []*DynamicQuadMesh
}

// NewTextStyle creates a text style with a single SDF glyph atlas.
func NewTextStyle(id uint32, name string) *TextStyle {
	s := &TextStyle{StyleID: id, StyleName: name}
	s.meshes = append(s.meshes, NewDynamicQuadMesh(SDFAtlas(0)))
	return s
}

func (s *TextStyle) ID() uint32   { return s.StyleID }
func (s *TextStyle) Name() string { return s.StyleName }

// AddAtlas appends a glyph atlas and returns its index.
func (s *TextStyle) AddAtlas(a Atlas) int {
	s.meshes = append(s.meshes, NewDynamicQuadMesh(a))
	return len(s.meshes) - 1
}

// Mesh returns the dynamic mesh of the given atlas.
func (s *TextStyle) Mesh(atlas int) *DynamicQuadMesh { return s.meshes[atlas] }

// Meshes returns all per-atlas meshes.
func (s *TextStyle) Meshes() []*DynamicQuadMesh { return s.meshes }

// ClearMeshes drops the vertices of all atlas meshes, keeping storage.
// The host calls this once per frame before the engine runs.
func (s *TextStyle) ClearMeshes() {
	for _, m := range s.meshes {
		m.Clear()
	}
}

// PointStyle renders icon sprites through a single dynamic quad mesh.
type PointStyle struct {
	StyleID   uint32
	StyleName string

	mesh *DynamicQuadMesh
}

// NewPointStyle creates a point style backed by a color sprite atlas.
func NewPointStyle(id uint32, name string) *PointStyle {
	return &PointStyle{
		StyleID:   id,
		StyleName: name,
		mesh:      NewDynamicQuadMesh(ColorAtlas(0)),
	}
}

func (s *PointStyle) ID() uint32   { return s.StyleID }
func (s *PointStyle) Name() string { return s.StyleName }

// Mesh returns the sprite mesh.
func (s *PointStyle) Mesh() *DynamicQuadMesh { return s.mesh }

// ClearMeshes drops the sprite vertices, keeping storage.
func (s *PointStyle) ClearMeshes() { s.mesh.Clear() }
