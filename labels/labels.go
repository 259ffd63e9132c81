package labels

import (
	"sort"

	tangram "github.com/kristch/tangram-es"
	"github.com/kristch/tangram-es/geom"
	"github.com/kristch/tangram-es/isect2d"
	"github.com/kristch/tangram-es/marker"
	"github.com/kristch/tangram-es/style"
	"github.com/kristch/tangram-es/tile"
	"github.com/kristch/tangram-es/view"
)

// collisionMargin extends the viewport during collection, so labels
// just off screen keep holding their space and slide in without
// fighting for it. One broad-phase cell.
const collisionMargin = 256

// LabelEntry is the engine's per-frame record of one collidable label.
type LabelEntry struct {
	Label Label

	// Tile is the label's originating tile; nil for marker labels.
	Tile tile.Tile

	// Proxy marks labels from proxy tiles; they lose against any
	// non-proxy label.
	Proxy bool

	Priority uint32

	// Transform and OBBs address the label's slices of the shared
	// arenas for this frame.
	Transform Range
	OBBs      Range
}

func newLabelEntry(l Label, t tile.Tile, proxy bool) LabelEntry {
	return LabelEntry{Label: l, Tile: t, Proxy: proxy, Priority: l.Options().Priority}
}

// labelSource is what the engine needs from a styled mesh to treat it
// as a label set.
type labelSource interface {
	Labels() []Label
}

// Labels is the placement engine. It owns the per-frame arenas and the
// broad-phase grid; labels stay owned by their tile's label set.
//
// All methods must be called from the render thread; the engine never
// suspends and holds tile references only for the duration of a call.
type Labels struct {
	transforms TransformBuffer
	obbs       OBBBuffer

	entries          []LabelEntry
	selectionEntries []LabelEntry

	repeatGroups map[uint64][]Label
	isect        isect2d.Grid

	lastZoom   float32
	needUpdate bool
}

// New creates an empty engine.
func New() *Labels {
	return &Labels{
		repeatGroups: make(map[uint64][]Label),
	}
}

// NeedUpdate reports whether any label is mid-animation and the host
// should render another frame.
func (m *Labels) NeedUpdate() bool { return m.needUpdate }

// Entries exposes the collidable entries of the last frame, in
// placement order. Debug overlays and tests read them; the slice is
// valid until the next update.
func (m *Labels) Entries() []LabelEntry { return m.entries }

// processLabelUpdate projects and classifies every label of one
// (mesh, tile) pair.
func (m *Labels) processLabelUpdate(vs view.ViewState, mesh style.StyledMesh, t tile.Tile,
	mvp geom.Mat4, dt float32, drawAll, onlyTransitions, isProxy bool) {

	if mesh == nil {
		return
	}
	src, ok := mesh.(labelSource)
	if !ok {
		return
	}

	screenBounds := vs.ScreenBounds()
	extendedBounds := screenBounds.Inflate(collisionMargin)

	for _, l := range src.Labels() {
		if !drawAll && l.State() == StateDead {
			continue
		}

		var transformRange Range
		transform := m.transforms.NewTransform(&transformRange)

		// Labels that resolve collisions keep their screen space
		// while still off screen; everything else clips hard at the
		// viewport.
		bounds := screenBounds
		if l.CanOcclude() && !onlyTransitions {
			bounds = extendedBounds
		}

		if !l.Update(mvp, vs, bounds, transform) {
			m.transforms.Truncate(transformRange)
			continue
		}

		if onlyTransitions {
			if l.OccludedLastFrame() {
				l.Occlude()
			}
			if l.VisibleState() || !l.CanOcclude() {
				m.needUpdate = l.EvalState(dt) || m.needUpdate
				l.AddVerticesToMesh(transform, vs.ViewportSize)
			}
		} else if l.CanOcclude() {
			e := newLabelEntry(l, t, isProxy)
			e.Transform = transformRange
			m.entries = append(m.entries, e)
		} else {
			m.needUpdate = l.EvalState(dt) || m.needUpdate
			l.AddVerticesToMesh(transform, vs.ViewportSize)
		}

		if l.Options().SelectionColor != 0 {
			m.selectionEntries = append(m.selectionEntries, newLabelEntry(l, t, isProxy))
		}
	}
}

// UpdateLabels collects labels from all visible tiles and markers.
// With onlyTransitions the engine advances states and emits vertices
// without re-resolving placement; UpdateLabelSet runs the full pass.
func (m *Labels) UpdateLabels(vs view.ViewState, dt float32, styles []style.Style,
	tiles []tile.Tile, markers []marker.Marker, onlyTransitions bool) {

	if !onlyTransitions {
		m.entries = m.entries[:0]
	}
	m.selectionEntries = m.selectionEntries[:0]
	m.needUpdate = false

	drawAll := tangram.GetDebugFlag(tangram.DebugDrawAllLabels)

	for _, t := range tiles {
		proxyTile := t.IsProxy()
		mvp := t.MVP()

		for _, s := range styles {
			m.processLabelUpdate(vs, t.Mesh(s), t, mvp, dt, drawAll, onlyTransitions, proxyTile)
		}
	}

	for _, mk := range markers {
		for _, s := range styles {
			if mk.StyleID() != s.ID() {
				continue
			}
			m.processLabelUpdate(vs, mk.Mesh(), nil, mk.ModelViewProjectionMatrix(),
				dt, drawAll, onlyTransitions, false)
		}
	}
}

// GetLabel resolves a selection color to the visible label carrying
// it, for pick testing. The tile is nil for marker labels.
func (m *Labels) GetLabel(selectionColor uint32) (Label, tile.Tile) {
	for i := range m.selectionEntries {
		e := &m.selectionEntries[i]
		if e.Label.VisibleState() && e.Label.Options().SelectionColor == selectionColor {
			return e.Label, e.Tile
		}
	}
	return nil, nil
}

// skipTransitionsPair promotes new labels of one tile that replace a
// visible label of its proxy, so the hand-over does not pop.
func (m *Labels) skipTransitionsPair(styles []style.Style, current, proxy tile.Tile) {
	for _, s := range styles {
		mesh0, ok := current.Mesh(s).(labelSource)
		if !ok {
			continue
		}
		mesh1, ok := proxy.Mesh(s).(labelSource)
		if !ok {
			continue
		}

		for _, l0 := range mesh0.Labels() {
			if !l0.CanOcclude() || l0.State() != StateNone {
				continue
			}

			for _, l1 := range mesh1.Labels() {
				if !l1.VisibleState() || !l1.CanOcclude() {
					continue
				}
				// The repeat group also matches labels with dynamic
				// style properties.
				if l0.Options().RepeatGroup != l1.Options().RepeatGroup {
					continue
				}

				// The old label lies within the circle defined by the
				// bounding box of the new one.
				maxDim := max32(l0.Dimension().X, l0.Dimension().Y)
				if l0.ScreenCenter().DistanceSq(l1.ScreenCenter()) < maxDim*maxDim {
					l0.SkipTransitions()
				}
			}
		}
	}
}

// findProxy locates the tile standing in for proxyID, preferring the
// cache over the live tile list.
func findProxy(sourceID int32, proxyID tile.ID, tiles []tile.Tile, cache tile.Cache) tile.Tile {
	if cache != nil {
		if proxy := cache.Contains(sourceID, proxyID); proxy != nil {
			return proxy
		}
	}
	for _, t := range tiles {
		if t.ID() == proxyID && t.SourceID() == sourceID {
			return t
		}
	}
	return nil
}

// skipTransitions bridges a zoom-level change: each tile is matched
// against its proxy (the parent when zooming in, the four children
// when zooming out) and equivalent labels skip their fade-in.
func (m *Labels) skipTransitions(styles []style.Style, tiles []tile.Tile, cache tile.Cache, currentZoom float32) {
	labelStyles := make([]style.Style, 0, len(styles))
	for _, s := range styles {
		switch s.(type) {
		case *style.TextStyle, *style.PointStyle:
			labelStyles = append(labelStyles, s)
		}
	}

	zoomingIn := m.lastZoom < currentZoom

	for _, t := range tiles {
		tileID := t.ID()

		if zoomingIn {
			if proxy := findProxy(t.SourceID(), tileID.Parent(), tiles, cache); proxy != nil {
				m.skipTransitionsPair(labelStyles, t, proxy)
			}
		} else {
			for i := int32(0); i < 4; i++ {
				if proxy := findProxy(t.SourceID(), tileID.Child(i), tiles, cache); proxy != nil {
					m.skipTransitionsPair(labelStyles, t, proxy)
				}
			}
		}
	}
}

// labelOrdering is the placement priority: entries earlier in the
// order claim screen space first.
func labelOrdering(a, b *LabelEntry) bool {
	if a.Proxy != b.Proxy {
		// Non-proxy labels first.
		return b.Proxy
	}
	if a.Priority != b.Priority {
		// Lower numeric priority means higher priority.
		return a.Priority < b.Priority
	}
	if (a.Tile == nil) != (b.Tile == nil) {
		// Tile labels before markers.
		return a.Tile != nil
	}
	if a.Tile != nil && a.Tile.ID().Z != b.Tile.ID().Z {
		// Deeper tiles are more specific.
		return a.Tile.ID().Z > b.Tile.ID().Z
	}

	l1, l2 := a.Label, b.Label

	// Note: This causes non-deterministic placement, i.e. depending
	// on navigation history.
	if l1.OccludedLastFrame() != l2.OccludedLastFrame() {
		return l2.OccludedLastFrame()
	}
	// Prefer labels within the screen over out-of-screen ones.
	// Important for repeat groups.
	if l1.VisibleState() != l2.VisibleState() {
		return l1.VisibleState()
	}

	if l1.Type() == TypeLine && l2.Type() == TypeLine {
		// Prefer the label with the longer segment, it has a chance.
		if len1, len2 := l1.WorldLineLength2(), l2.WorldLineLength2(); len1 != len2 {
			return len1 > len2
		}
	}

	if l1.Hash() != l2.Hash() {
		return l1.Hash() < l2.Hash()
	}

	if c1, ok1 := l1.(*CurvedLabel); ok1 {
		if c2, ok2 := l2.(*CurvedLabel); ok2 {
			return c1.CandidatePriority() > c2.CandidatePriority()
		}
	}

	// Equivalent entries keep their collection order (stable sort).
	return false
}

// sortLabels orders the entries for placement. The sort is stable so
// the relative ordering of markers is preserved.
func (m *Labels) sortLabels() {
	sort.SliceStable(m.entries, func(i, j int) bool {
		return labelOrdering(&m.entries[i], &m.entries[j])
	})
}

// findLabelOwner returns the label whose OBB range contains obbIndex,
// searching the entries processed so far. Ranges are assigned in
// processing order, so their starts are sorted.
func (m *Labels) findLabelOwner(obbIndex, processed int) Label {
	i := sort.Search(processed, func(j int) bool {
		return m.entries[j].OBBs.Start > obbIndex
	}) - 1
	if i < 0 {
		return nil
	}
	if e := &m.entries[i]; obbIndex < e.OBBs.End() {
		return e.Label
	}
	return nil
}

// withinRepeatDistance reports whether a label of the same repeat
// group was already placed too close this frame.
func (m *Labels) withinRepeatDistance(l Label) bool {
	d := l.Options().RepeatDistance
	threshold2 := d * d

	for _, other := range m.repeatGroups[l.Options().RepeatGroup] {
		if l.ScreenCenter().DistanceSq(other.ScreenCenter()) < threshold2 {
			return true
		}
	}
	return false
}

// handleOcclusions is the placement pass: in priority order, each
// entry searches its anchors for a spot free of already-placed labels
// and either claims its space in the grid or is occluded.
func (m *Labels) handleOcclusions() {
	m.isect.Clear()
	for g := range m.repeatGroups {
		delete(m.repeatGroups, g)
	}

	for i := range m.entries {
		e := &m.entries[i]
		l := e.Label

		// The parent was processed earlier, so its occlusion and
		// anchor position are already settled for this frame.
		if p := l.Parent(); p != nil && p.IsOccluded() {
			l.Occlude()
			// Keep range starts monotonic for findLabelOwner.
			e.OBBs = Range{Start: m.obbs.Len()}
			continue
		}

		transform := m.transforms.Transform(&e.Transform)

		l.OBBs(transform, &m.obbs, &e.OBBs, true)

		// Skip the label when another one of its repeat group is
		// within repeat distance.
		if l.Options().RepeatDistance > 0 && m.withinRepeatDistance(l) {
			l.Occlude()
		}

		firstAnchor := l.AnchorIndex()

		for {
			if l.IsOccluded() {
				// Update the boxes for the anchor fallback.
				l.OBBs(transform, &m.obbs, &e.OBBs, false)

				if firstAnchor == l.AnchorIndex() {
					// Reached the first anchor again.
					break
				}
			}

			l.SetOccluded(false)

			// Drop the label when it intersects a placed one.
			for k := e.OBBs.Start; k < e.OBBs.End(); k++ {
				obb := m.obbs.At(k)

				m.isect.Intersect(obb.Extent(), func(other int) bool {
					if p := l.Parent(); p != nil {
						// Intersections with the parent label are
						// allowed.
						if m.findLabelOwner(other, i) == p {
							return true
						}
					}
					if geom.Intersect(obb, m.obbs.At(other)) {
						l.Occlude()
						return false
					}
					return true
				})

				if l.IsOccluded() {
					break
				}
			}

			if !l.IsOccluded() || !l.NextAnchor() {
				break
			}
		}

		if l.IsOccluded() {
			if p := l.Parent(); p != nil && l.Options().Required {
				// A required child failing pulls its parent down.
				p.Occlude()
			}
		} else {
			for k := e.OBBs.Start; k < e.OBBs.End(); k++ {
				m.isect.Insert(m.obbs.At(k).Extent(), k)
			}
			if l.Options().RepeatDistance > 0 {
				g := l.Options().RepeatGroup
				m.repeatGroups[g] = append(m.repeatGroups[g], l)
			}
		}
	}
}

// UpdateLabelSet runs the full frame pipeline: collect, sort, bridge
// zoom transitions, resolve occlusions and emit vertices.
func (m *Labels) UpdateLabelSet(vs view.ViewState, dt float32, styles []style.Style,
	tiles []tile.Tile, markers []marker.Marker, cache tile.Cache) {

	m.transforms.Clear()
	m.obbs.Clear()

	// Collect and update labels from visible tiles and markers.
	m.UpdateLabels(vs, dt, styles, tiles, markers, false)

	m.sortLabels()

	// Mark labels to skip transitions when the integer zoom changed.
	if int(m.lastZoom) != int(vs.Zoom) {
		m.skipTransitions(styles, tiles, cache, vs.Zoom)
		m.lastZoom = vs.Zoom
	}

	m.isect.Resize(
		geom.Pt(vs.ViewportSize.X/collisionMargin, vs.ViewportSize.Y/collisionMargin),
		vs.ViewportSize)

	m.handleOcclusions()

	// Advance states and update label meshes.
	for i := range m.entries {
		e := &m.entries[i]
		transform := m.transforms.Transform(&e.Transform)

		m.needUpdate = e.Label.EvalState(dt) || m.needUpdate
		e.Label.AddVerticesToMesh(transform, vs.ViewportSize)
	}

	tangram.Logger().Debug("label update",
		"entries", len(m.entries),
		"obbs", m.obbs.Len(),
		"transforms", m.transforms.Len(),
		"zoom", vs.Zoom)
}
