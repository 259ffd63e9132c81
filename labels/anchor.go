package labels

import "github.com/kristch/tangram-es/geom"

// Anchor is one of the discrete attachment positions of a point label
// relative to its geographic position.
type Anchor uint8

const (
	AnchorCenter Anchor = iota
	AnchorTop
	AnchorBottom
	AnchorLeft
	AnchorRight
	AnchorTopLeft
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
)

// MaxAnchors is the maximum number of anchor fallbacks per label.
const MaxAnchors = 9

// Direction returns the unit placement direction of the anchor in
// screen space (y-down): Top shifts the label above its position.
func (a Anchor) Direction() geom.Point {
	switch a {
	case AnchorTop:
		return geom.Pt(0, -1)
	case AnchorBottom:
		return geom.Pt(0, 1)
	case AnchorLeft:
		return geom.Pt(-1, 0)
	case AnchorRight:
		return geom.Pt(1, 0)
	case AnchorTopLeft:
		return geom.Pt(-1, -1)
	case AnchorTopRight:
		return geom.Pt(1, -1)
	case AnchorBottomLeft:
		return geom.Pt(-1, 1)
	case AnchorBottomRight:
		return geom.Pt(1, 1)
	default:
		return geom.Point{}
	}
}

// Anchors is an ordered anchor fallback set. Placement tries anchors
// in declared order and wraps around.
type Anchors struct {
	anchors [MaxAnchors]Anchor
	count   int
}

// NewAnchors builds an anchor set from the given fallback order.
// An empty call yields a single centered anchor.
func NewAnchors(anchors ...Anchor) Anchors {
	var a Anchors
	for _, anchor := range anchors {
		if a.count == MaxAnchors {
			break
		}
		a.anchors[a.count] = anchor
		a.count++
	}
	if a.count == 0 {
		a.count = 1
	}
	return a
}

// Len returns the number of declared anchors.
func (a Anchors) Len() int { return a.count }

// At returns the i-th anchor.
func (a Anchors) At(i int) Anchor { return a.anchors[i] }
