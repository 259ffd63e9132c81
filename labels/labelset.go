package labels

import "github.com/kristch/tangram-es/style"

// LabelSet is the styled mesh a tile or marker exposes for a label
// style: the list of labels built for it. The engine discovers label
// sets by type-asserting the styled mesh.
type LabelSet struct {
	labels []Label
}

var _ style.StyledMesh = (*LabelSet)(nil)

// Add appends a label to the set.
func (s *LabelSet) Add(l Label) { s.labels = append(s.labels, l) }

// Labels returns the labels of the set.
func (s *LabelSet) Labels() []Label { return s.labels }

// Size implements style.StyledMesh.
func (s *LabelSet) Size() int { return len(s.labels) }

// Reset returns every label to its initial lifecycle state. Hosts call
// this when a cached tile re-enters the view after eviction.
func (s *LabelSet) Reset() {
	for _, l := range s.labels {
		b := l.(interface{ base() *baseLabel }).base()
		b.state = StateNone
		b.alpha = 0
		b.occluded = false
		b.occludedLastFrame = false
		b.sleepTime = 0
	}
}

// TextLabels is the label set of a text style. It owns the shaped
// glyph quads its labels reference by range and the style whose
// meshes receive the vertices.
type TextLabels struct {
	LabelSet

	Style *style.TextStyle
	quads []style.GlyphQuad
}

// NewTextLabels creates an empty label set bound to a text style.
func NewTextLabels(s *style.TextStyle) *TextLabels {
	return &TextLabels{Style: s}
}

// SetQuads hands over the shaped glyph quads of all labels in the set.
func (t *TextLabels) SetQuads(quads []style.GlyphQuad) { t.quads = quads }

// Quads returns the shared glyph quads.
func (t *TextLabels) Quads() []style.GlyphQuad { return t.quads }
