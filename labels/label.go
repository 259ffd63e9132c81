// Package labels implements the per-frame label placement and
// occlusion engine: label state machines, the point/line/curved label
// variants and the placement pass that decides which labels are drawn.
package labels

import (
	"github.com/kristch/tangram-es/geom"
	"github.com/kristch/tangram-es/view"
)

// Type discriminates the label shapes.
type Type uint8

const (
	TypePoint Type = iota
	TypeLine
	TypeCurved
	TypeDebug
)

// State is the lifecycle state of a label.
type State uint8

const (
	StateNone State = iota
	StateFadingIn
	StateVisible
	StateSleep
	StateFadingOut
	StateDead
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateFadingIn:
		return "fading_in"
	case StateVisible:
		return "visible"
	case StateSleep:
		return "sleep"
	case StateFadingOut:
		return "fading_out"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// ActivationDistanceThreshold inflates the collision box of a label
// that was occluded last frame. The extra clearance keeps labels from
// flickering at the boundary of an occluder.
const ActivationDistanceThreshold = 2

// sleepTTL reaps labels that have been asleep for this many seconds.
const sleepTTL = 3.0

// Options are the styling inputs of one label.
type Options struct {
	// Priority orders placement; lower values win.
	Priority uint32

	// Anchors is the ordered anchor fallback set for point labels.
	Anchors Anchors

	// Offset shifts the label from its projected position, in pixels.
	Offset geom.Point

	// Buffer shrinks the collision box relative to the dimension.
	Buffer geom.Point

	// RepeatGroup tags labels that must keep RepeatDistance pixels
	// between each other. Zero distance disables the check.
	RepeatGroup    uint64
	RepeatDistance float32

	// Collide marks the label as participating in the occlusion pass.
	Collide bool

	// Required couples the label to its parent: when a required child
	// cannot be placed, the parent is pulled down with it.
	Required bool

	// Interactive marks the label for pick testing.
	Interactive bool

	// SelectionColor is the opaque pick id; zero means not selectable.
	SelectionColor uint32
}

// DefaultOptions returns the options every label starts from.
func DefaultOptions() Options {
	return Options{
		Anchors:  NewAnchors(AnchorCenter),
		Collide:  true,
		Required: true,
	}
}

// Label is the engine's view of any label variant.
type Label interface {
	Type() Type
	State() State
	Alpha() float32
	Options() *Options
	Dimension() geom.Point
	Hash() uint64
	ScreenCenter() geom.Point

	Parent() Label
	SetParent(parent Label) bool

	VisibleState() bool
	CanOcclude() bool

	IsOccluded() bool
	Occlude()
	SetOccluded(occluded bool)
	OccludedLastFrame() bool

	AnchorIndex() int
	NextAnchor() bool

	SkipTransitions()

	// Update projects the label for this frame. It returns false when
	// the label cannot be placed (clipped, off bounds, too short);
	// the caller discards the transform range in that case.
	Update(mvp geom.Mat4, vs view.ViewState, bounds geom.AABB, t ScreenTransform) bool

	// EvalState advances the state machine by dt seconds using the
	// occlusion decision of the current frame. It reports whether the
	// label is mid-animation and needs another frame.
	EvalState(dt float32) bool

	// OBBs writes the label's oriented collision boxes for its
	// current anchor. With appendBoxes the boxes are appended to the
	// arena and r is initialized; otherwise they overwrite r in place.
	OBBs(t ScreenTransform, buf *OBBBuffer, r *Range, appendBoxes bool)

	// AddVerticesToMesh emits the label's quads for rasterization.
	// Only labels in a visible state produce vertices.
	AddVerticesToMesh(t ScreenTransform, screenSize geom.Point)

	// WorldLineLength2 returns the squared world length of a line
	// label's segment, zero for other shapes.
	WorldLineLength2() float32
}

// baseLabel carries the state shared by all variants.
type baseLabel struct {
	typ     Type
	options Options
	dim     geom.Point
	hash    uint64

	state State
	alpha float32
	fade  FadeEffect
	// fadeStart anchors alpha interpolation at the alpha the current
	// fade started from.
	fadeStart float32

	anchor      geom.Point
	anchorIndex int

	parent Label

	screenCenter      geom.Point
	occluded          bool
	occludedLastFrame bool
	sleepTime         float32
}

func newBaseLabel(typ Type, dim geom.Point, options Options, hash uint64) baseLabel {
	l := baseLabel{
		typ:     typ,
		options: options,
		dim:     dim,
		hash:    hash,
	}
	if l.options.Anchors.Len() == 0 {
		l.options.Anchors = NewAnchors(AnchorCenter)
	}
	return l
}

func (l *baseLabel) Type() Type               { return l.typ }
func (l *baseLabel) State() State             { return l.state }
func (l *baseLabel) Alpha() float32           { return l.alpha }
func (l *baseLabel) Options() *Options        { return &l.options }
func (l *baseLabel) Dimension() geom.Point    { return l.dim }
func (l *baseLabel) Hash() uint64             { return l.hash }
func (l *baseLabel) ScreenCenter() geom.Point { return l.screenCenter }
func (l *baseLabel) Parent() Label            { return l.parent }

// SetParent links the label to a parent in the same label set. Self
// references and cycles are rejected and reported as false.
func (l *baseLabel) SetParent(parent Label) bool {
	for p := parent; p != nil; p = p.Parent() {
		if p.(interface{ base() *baseLabel }).base() == l {
			return false
		}
	}
	l.parent = parent
	l.applyAnchor(l.options.Anchors.At(l.anchorIndex))
	return true
}

func (l *baseLabel) base() *baseLabel { return l }

// VisibleState reports whether the label occupies screen space this
// frame (even while fading or asleep).
func (l *baseLabel) VisibleState() bool {
	switch l.state {
	case StateFadingIn, StateVisible, StateSleep, StateFadingOut:
		return true
	}
	return false
}

// CanOcclude reports whether the label participates in the occlusion
// grid.
func (l *baseLabel) CanOcclude() bool { return l.options.Collide }

func (l *baseLabel) IsOccluded() bool { return l.occluded }

// Occlude marks the label as hidden for this frame.
func (l *baseLabel) Occlude() { l.occluded = true }

// SetOccluded overrides the occlusion mark, used by the placement
// loop to tentatively accept an anchor.
func (l *baseLabel) SetOccluded(occluded bool) { l.occluded = occluded }

func (l *baseLabel) OccludedLastFrame() bool { return l.occludedLastFrame }

func (l *baseLabel) AnchorIndex() int { return l.anchorIndex }

// NextAnchor advances to the next declared anchor, wrapping around.
// It reports false when the label has a single anchor.
func (l *baseLabel) NextAnchor() bool {
	n := l.options.Anchors.Len()
	if n <= 1 {
		return false
	}
	l.anchorIndex = (l.anchorIndex + 1) % n
	l.applyAnchor(l.options.Anchors.At(l.anchorIndex))
	return true
}

// applyAnchor recomputes the anchor offset. A child label is placed
// against the combined extent of itself and its parent.
func (l *baseLabel) applyAnchor(anchor Anchor) {
	dim := l.dim
	if l.parent != nil {
		dim = dim.Add(l.parent.Dimension())
	}
	dir := anchor.Direction()
	l.anchor = geom.Pt(dir.X*dim.X*0.5, dir.Y*dim.Y*0.5)
}

// SkipTransitions promotes a brand-new label straight to visible,
// bypassing the fade-in. Used across zoom transitions so a label that
// replaces an equivalent one does not pop.
func (l *baseLabel) SkipTransitions() {
	if l.state == StateNone {
		l.state = StateVisible
		l.alpha = 1
	}
}

// beginUpdate shifts the occlusion bits at the start of a frame: the
// decision of the previous occlusion pass becomes history.
func (l *baseLabel) beginUpdate() {
	l.occludedLastFrame = l.occluded
	l.occluded = false
}

// projectionFailed records that the label could not be projected this
// frame. A label that was on screen goes to sleep so it can return
// without a fade-in when it comes back.
func (l *baseLabel) projectionFailed() {
	if l.VisibleState() && l.state != StateSleep {
		l.enterState(StateSleep, 0)
	}
}

func (l *baseLabel) enterState(s State, alpha float32) {
	l.state = s
	l.alpha = alpha
	if s == StateSleep {
		l.sleepTime = 0
	}
}

// EvalState drives the lifecycle graph with the occlusion decision of
// the current frame.
func (l *baseLabel) EvalState(dt float32) bool {
	animate := false

	switch l.state {
	case StateNone:
		if !l.occluded {
			l.fade.Reset(InterpLinear, fadeTime)
			l.fadeStart = 0
			l.enterState(StateFadingIn, 0)
			animate = true
		} else if l.options.Required && l.parent != nil && l.parent.IsOccluded() {
			l.enterState(StateDead, 0)
		}

	case StateFadingIn:
		if l.occluded {
			l.fade.Reset(InterpLinear, fadeTime)
			l.fadeStart = l.alpha
			l.enterState(StateFadingOut, l.alpha)
			animate = true
			break
		}
		v := l.fade.Update(dt)
		l.alpha = l.fadeStart + (1-l.fadeStart)*v
		animate = true
		if l.alpha >= 1 {
			l.enterState(StateVisible, 1)
		}

	case StateVisible:
		if l.occluded {
			if l.occludedLastFrame {
				// Re-occluded across frames: drop out silently and
				// keep the slot warm instead of fading.
				l.enterState(StateSleep, 0)
			} else {
				l.fade.Reset(InterpLinear, fadeTime)
				l.fadeStart = l.alpha
				l.enterState(StateFadingOut, l.alpha)
				animate = true
			}
		}

	case StateSleep:
		if !l.occluded {
			l.fade.Reset(InterpLinear, fadeTime)
			l.fadeStart = 0
			l.enterState(StateFadingIn, 0)
			animate = true
		} else {
			l.sleepTime += dt
			if l.sleepTime >= sleepTTL {
				l.enterState(StateDead, 0)
			}
		}

	case StateFadingOut:
		v := l.fade.Update(dt)
		l.alpha = l.fadeStart * (1 - v)
		animate = true
		if l.alpha <= 0 {
			l.enterState(StateDead, 0)
		}

	case StateDead:
		// Terminal; collection skips dead labels unless the draw-all
		// debug flag is set.
	}

	return animate
}
