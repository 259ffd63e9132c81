package labels

import (
	"testing"

	tangram "github.com/kristch/tangram-es"
	"github.com/kristch/tangram-es/geom"
	"github.com/kristch/tangram-es/marker"
	"github.com/kristch/tangram-es/style"
	"github.com/kristch/tangram-es/tile"
	"github.com/kristch/tangram-es/view"
)

type fakeTile struct {
	id       tile.ID
	sourceID int32
	proxy    bool
	mvp      geom.Mat4
	meshes   map[uint32]style.StyledMesh
}

func newFakeTile(id tile.ID, vs view.ViewState) *fakeTile {
	return &fakeTile{
		id:     id,
		mvp:    pixelMVP(vs.ViewportSize.X, vs.ViewportSize.Y),
		meshes: make(map[uint32]style.StyledMesh),
	}
}

func (t *fakeTile) ID() tile.ID     { return t.id }
func (t *fakeTile) SourceID() int32 { return t.sourceID }
func (t *fakeTile) IsProxy() bool   { return t.proxy }
func (t *fakeTile) MVP() geom.Mat4  { return t.mvp }

func (t *fakeTile) Mesh(s style.Style) style.StyledMesh {
	m, ok := t.meshes[s.ID()]
	if !ok {
		return nil
	}
	return m
}

type fakeCache struct {
	tiles []tile.Tile
}

func (c *fakeCache) Contains(sourceID int32, id tile.ID) tile.Tile {
	for _, t := range c.tiles {
		if t.SourceID() == sourceID && t.ID() == id {
			return t
		}
	}
	return nil
}

type fakeMarker struct {
	styleID uint32
	mesh    style.StyledMesh
	mvp     geom.Mat4
}

func (m *fakeMarker) StyleID() uint32                      { return m.styleID }
func (m *fakeMarker) Mesh() style.StyledMesh               { return m.mesh }
func (m *fakeMarker) ModelViewProjectionMatrix() geom.Mat4 { return m.mvp }

// scene bundles the collaborators of one engine test.
type scene struct {
	engine *Labels
	style  *style.TextStyle
	styles []style.Style
	set    *TextLabels
	tile   *fakeTile
	vs     view.ViewState
}

func newScene(zoom float32) *scene {
	vs := view.ViewState{ViewportSize: geom.Pt(800, 600), Zoom: zoom}
	s := style.NewTextStyle(1, "labels")
	set := NewTextLabels(s)
	tl := newFakeTile(tile.NewID(0, 0, int32(zoom)), vs)
	tl.meshes[s.ID()] = set

	return &scene{
		engine: New(),
		style:  s,
		styles: []style.Style{s},
		set:    set,
		tile:   tl,
		vs:     vs,
	}
}

func (sc *scene) update(dt float32) {
	sc.engine.UpdateLabelSet(sc.vs, dt, sc.styles, []tile.Tile{sc.tile}, nil, nil)
}

func pointAt(set *TextLabels, x, y float32, dim geom.Point, hash uint64, mod func(*Options)) *TextLabel {
	opts := DefaultOptions()
	if mod != nil {
		mod(&opts)
	}
	l := NewPointLabel(geom.Pt(x, y), dim, opts, VertexAttributes{}, set, TextRange{}, AlignNone, hash)
	set.Add(l)
	return l
}

func TestPlacement_HashBreaksTies(t *testing.T) {
	run := func(hashA, hashB uint64) (*TextLabel, *TextLabel) {
		sc := newScene(14)
		a := pointAt(sc.set, 400, 300, geom.Pt(100, 30), hashA, nil)
		b := pointAt(sc.set, 420, 300, geom.Pt(100, 30), hashB, nil)
		sc.update(0.016)
		return a, b
	}

	a, b := run(10, 20)
	if a.IsOccluded() || !b.IsOccluded() {
		t.Errorf("lower hash must win: a occluded=%v b occluded=%v", a.IsOccluded(), b.IsOccluded())
	}
	if a.State() != StateFadingIn {
		t.Errorf("winner state = %v, want fading_in", a.State())
	}
	if b.State() != StateNone {
		t.Errorf("loser state = %v, want none", b.State())
	}

	// Flipping the hashes flips the winner.
	a, b = run(20, 10)
	if !a.IsOccluded() || b.IsOccluded() {
		t.Errorf("flipped hashes must flip the winner: a occluded=%v b occluded=%v",
			a.IsOccluded(), b.IsOccluded())
	}
}

func TestPlacement_RepeatGroupSuppression(t *testing.T) {
	sc := newScene(14)

	mod := func(o *Options) {
		o.RepeatGroup = 7
		o.RepeatDistance = 120
	}
	l1 := pointAt(sc.set, 100, 300, geom.Pt(50, 20), 1, mod)
	l2 := pointAt(sc.set, 200, 300, geom.Pt(50, 20), 2, mod)
	l3 := pointAt(sc.set, 350, 300, geom.Pt(50, 20), 3, mod)

	sc.update(0.016)

	if l1.IsOccluded() {
		t.Error("label at x=100 must be placed")
	}
	if !l2.IsOccluded() {
		t.Error("label at x=200 lies within repeat distance of x=100")
	}
	if l3.IsOccluded() {
		t.Error("label at x=350 is beyond repeat distance of x=100")
	}

	// Spacing among the placed group members holds.
	if d := l1.ScreenCenter().Distance(l3.ScreenCenter()); d < 120 {
		t.Errorf("placed repeat group members %v px apart, want >= 120", d)
	}
}

func TestPlacement_RequiredChildPullsParentDown(t *testing.T) {
	sc := newScene(14)

	q := pointAt(sc.set, 160, 100, geom.Pt(30, 30), 1, func(o *Options) { o.Priority = 0 })
	p := pointAt(sc.set, 100, 100, geom.Pt(20, 20), 1, func(o *Options) { o.Priority = 1 })
	c := pointAt(sc.set, 100, 100, geom.Pt(140, 10), 2, func(o *Options) { o.Priority = 1 })
	if !c.SetParent(p) {
		t.Fatal("SetParent failed")
	}

	sc.update(0.016)

	if q.IsOccluded() {
		t.Error("unrelated higher-priority label must stay placed")
	}
	if !c.IsOccluded() {
		t.Error("child overlapping the higher-priority label must be occluded")
	}
	if !p.IsOccluded() {
		t.Error("required child must pull its parent down")
	}
	if p.VisibleState() || c.VisibleState() {
		t.Errorf("neither parent (%v) nor child (%v) may emit vertices", p.State(), c.State())
	}
	if c.State() != StateDead {
		t.Errorf("child state = %v, want dead", c.State())
	}
}

func TestPlacement_ChildMayOverlapParent(t *testing.T) {
	sc := newScene(14)

	p := pointAt(sc.set, 400, 300, geom.Pt(20, 20), 1, nil)
	c := pointAt(sc.set, 400, 300, geom.Pt(60, 12), 2, nil)
	if !c.SetParent(p) {
		t.Fatal("SetParent failed")
	}

	sc.update(0.016)

	if p.IsOccluded() {
		t.Error("parent must be placed")
	}
	if c.IsOccluded() {
		t.Error("child intersecting only its parent must be placed")
	}
}

func TestPlacement_AnchorFallback(t *testing.T) {
	sc := newScene(14)

	blocker := pointAt(sc.set, 400, 310, geom.Pt(100, 10), 1, func(o *Options) { o.Priority = 0 })
	l := pointAt(sc.set, 400, 300, geom.Pt(100, 30), 2, func(o *Options) {
		o.Priority = 1
		o.Anchors = NewAnchors(AnchorCenter, AnchorTop, AnchorBottom)
	})

	sc.update(0.016)

	if blocker.IsOccluded() {
		t.Fatal("blocker must be placed")
	}
	if l.IsOccluded() {
		t.Fatal("label with a free anchor must be placed")
	}
	if l.AnchorIndex() != 1 {
		t.Errorf("anchorIndex = %d, want 1 (top)", l.AnchorIndex())
	}
}

func TestPlacement_ZoomTransitionSkipsFade(t *testing.T) {
	vs14 := view.ViewState{ViewportSize: geom.Pt(800, 600), Zoom: 14}
	vs15 := view.ViewState{ViewportSize: geom.Pt(800, 600), Zoom: 15}

	s := style.NewTextStyle(1, "labels")
	engine := New()

	groupOpts := func(o *Options) { o.RepeatGroup = 5 }

	// Frame 1 at zoom 14: the label becomes visible on the parent tile.
	parentSet := NewTextLabels(s)
	parentTile := newFakeTile(tile.NewID(100, 200, 14), vs14)
	parentTile.meshes[s.ID()] = parentSet
	l := pointAt(parentSet, 500, 400, geom.Pt(40, 20), 1, groupOpts)

	engine.UpdateLabelSet(vs14, 0.016, []style.Style{s}, []tile.Tile{parentTile}, nil, nil)
	if !l.VisibleState() {
		t.Fatal("label must be in a visible state after frame 1")
	}

	// Frame 2 at zoom 15: the child tile carries an equivalent label
	// near the same screen position; the old tile is only cached.
	childSet := NewTextLabels(s)
	childTile := newFakeTile(parentTile.ID().Child(0), vs15)
	childTile.meshes[s.ID()] = childSet
	l2 := pointAt(childSet, 510, 390, geom.Pt(40, 20), 2, groupOpts)

	cache := &fakeCache{tiles: []tile.Tile{parentTile}}
	engine.UpdateLabelSet(vs15, 0.016, []style.Style{s}, []tile.Tile{childTile}, nil, cache)

	if l2.State() != StateVisible {
		t.Errorf("state = %v, want visible without fade-in across the zoom change", l2.State())
	}
	if l2.Alpha() != 1 {
		t.Errorf("alpha = %v, want 1", l2.Alpha())
	}
}

func TestPlacement_FractionalZoomKeepsFade(t *testing.T) {
	vs141 := view.ViewState{ViewportSize: geom.Pt(800, 600), Zoom: 14.1}
	vs149 := view.ViewState{ViewportSize: geom.Pt(800, 600), Zoom: 14.9}

	s := style.NewTextStyle(1, "labels")
	engine := New()

	set := NewTextLabels(s)
	tl := newFakeTile(tile.NewID(0, 0, 14), vs141)
	tl.meshes[s.ID()] = set
	l := pointAt(set, 500, 400, geom.Pt(40, 20), 1, func(o *Options) { o.RepeatGroup = 5 })

	engine.UpdateLabelSet(vs141, 0.016, []style.Style{s}, []tile.Tile{tl}, nil, nil)
	if !l.VisibleState() {
		t.Fatal("label must be visible after frame 1")
	}

	set2 := NewTextLabels(s)
	tl2 := newFakeTile(tile.NewID(0, 1, 14), vs149)
	tl2.meshes[s.ID()] = set2
	l2 := pointAt(set2, 505, 400, geom.Pt(40, 20), 2, func(o *Options) { o.RepeatGroup = 5 })

	// Fractional zoom change only: no transition skipping, so the new
	// label competes normally and loses against the visible one.
	engine.UpdateLabelSet(vs149, 0.016, []style.Style{s}, []tile.Tile{tl, tl2}, nil, nil)

	if l2.State() == StateVisible {
		t.Error("fractional zoom change must not skip transitions")
	}
}

func TestPlacement_NoOverlapsAmongPlaced(t *testing.T) {
	sc := newScene(14)

	// A dense cluster plus distant labels.
	positions := []geom.Point{
		{X: 400, Y: 300}, {X: 410, Y: 305}, {X: 430, Y: 300}, {X: 700, Y: 100},
		{X: 120, Y: 500}, {X: 410, Y: 310}, {X: 405, Y: 295},
	}
	for i, p := range positions {
		pointAt(sc.set, p.X, p.Y, geom.Pt(80, 24), uint64(i+1), nil)
	}

	sc.update(0.016)

	entries := sc.engine.Entries()
	placed := 0
	for i := range entries {
		if entries[i].Label.IsOccluded() {
			continue
		}
		placed++
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Label.IsOccluded() {
				continue
			}
			for a := entries[i].OBBs.Start; a < entries[i].OBBs.End(); a++ {
				for b := entries[j].OBBs.Start; b < entries[j].OBBs.End(); b++ {
					if geom.Intersect(sc.engine.obbs.At(a), sc.engine.obbs.At(b)) {
						t.Fatalf("placed labels %d and %d intersect", i, j)
					}
				}
			}
		}
	}
	if placed == 0 {
		t.Fatal("no label was placed at all")
	}
}

func TestPlacement_IdempotentWithZeroDt(t *testing.T) {
	sc := newScene(14)
	a := pointAt(sc.set, 400, 300, geom.Pt(100, 30), 10, nil)
	b := pointAt(sc.set, 420, 300, geom.Pt(100, 30), 20, nil)

	sc.update(0)
	stateA, alphaA, occB := a.State(), a.Alpha(), b.IsOccluded()

	sc.update(0)
	if a.State() != stateA || a.Alpha() != alphaA || b.IsOccluded() != occB {
		t.Errorf("second dt=0 frame changed state: %v/%v/%v -> %v/%v/%v",
			stateA, alphaA, occB, a.State(), a.Alpha(), b.IsOccluded())
	}
}

func TestGetLabel_SelectionColor(t *testing.T) {
	sc := newScene(14)
	l := pointAt(sc.set, 400, 300, geom.Pt(100, 30), 1, func(o *Options) {
		o.Interactive = true
		o.SelectionColor = 42
	})

	sc.update(0.016)

	got, gotTile := sc.engine.GetLabel(42)
	if got != Label(l) {
		t.Fatalf("GetLabel(42) = %v, want the placed label", got)
	}
	if gotTile != tile.Tile(sc.tile) {
		t.Error("GetLabel must return the originating tile")
	}
	if missing, _ := sc.engine.GetLabel(99); missing != nil {
		t.Error("unknown selection color must return nil")
	}
}

func TestMarkerLabels_CollectedWithoutTile(t *testing.T) {
	vs := view.ViewState{ViewportSize: geom.Pt(800, 600), Zoom: 14}
	s := style.NewTextStyle(1, "labels")
	engine := New()

	set := NewTextLabels(s)
	l := pointAt(set, 200, 200, geom.Pt(60, 20), 1, func(o *Options) { o.SelectionColor = 7 })

	mk := &fakeMarker{styleID: s.ID(), mesh: set, mvp: pixelMVP(800, 600)}
	unstyled := &fakeMarker{styleID: 99, mesh: NewTextLabels(s), mvp: pixelMVP(800, 600)}

	engine.UpdateLabelSet(vs, 0.016, []style.Style{s}, nil, []marker.Marker{mk, unstyled}, nil)

	if l.IsOccluded() {
		t.Fatal("marker label must be placed on an empty screen")
	}
	got, gotTile := engine.GetLabel(7)
	if got != Label(l) {
		t.Fatal("marker label not selectable")
	}
	if gotTile != nil {
		t.Error("marker labels carry no tile")
	}
}

func TestDeadLabelsAreNotCollected(t *testing.T) {
	sc := newScene(14)
	l := pointAt(sc.set, 400, 300, geom.Pt(100, 30), 1, nil)
	l.state = StateDead

	sc.update(0.016)
	if len(sc.engine.Entries()) != 0 {
		t.Errorf("entries = %d, want dead labels skipped", len(sc.engine.Entries()))
	}
}

func TestNonCollidingLabelDrawsImmediately(t *testing.T) {
	sc := newScene(14)
	l := pointAt(sc.set, 400, 300, geom.Pt(100, 30), 1, func(o *Options) { o.Collide = false })

	sc.update(0.016)

	if len(sc.engine.Entries()) != 0 {
		t.Error("non-colliding labels must not enter the occlusion pass")
	}
	if l.State() != StateFadingIn {
		t.Errorf("state = %v, want fading_in without placement", l.State())
	}
}

func testQuad(w, h int16) [4]style.QuadCorner {
	s := int16(style.PositionScale)
	return [4]style.QuadCorner{
		{Pos: style.FixedPos{X: 0, Y: 0}, UV: style.UV{U: 0, V: 0}},
		{Pos: style.FixedPos{X: w * s, Y: 0}, UV: style.UV{U: 1, V: 0}},
		{Pos: style.FixedPos{X: w * s, Y: h * s}, UV: style.UV{U: 1, V: 1}},
		{Pos: style.FixedPos{X: 0, Y: h * s}, UV: style.UV{U: 0, V: 1}},
	}
}

func TestVertexEmission(t *testing.T) {
	sc := newScene(14)
	sc.set.SetQuads([]style.GlyphQuad{{Atlas: 0, Glyph: 5, Quad: testQuad(40, 16)}})

	opts := DefaultOptions()
	l := NewPointLabel(geom.Pt(400, 300), geom.Pt(40, 16), opts, VertexAttributes{Fill: 0xff00ff00},
		sc.set, TextRange{{Start: 0, Length: 1}}, AlignNone, 1)
	sc.set.Add(l)

	sc.update(0.1)

	mesh := sc.style.Mesh(0)
	if mesh.QuadCount() != 1 {
		t.Fatalf("QuadCount = %d, want 1", mesh.QuadCount())
	}
	v := mesh.Vertices()[0]
	if v.State.Fill != 0xff00ff00 {
		t.Errorf("fill = %#x, want label attribute", v.State.Fill)
	}
	if want := uint16(l.Alpha() * style.AlphaScale); v.State.Alpha != want {
		t.Errorf("alpha = %d, want %d", v.State.Alpha, want)
	}
	if v.UV != (style.UV{U: 0, V: 0}) {
		t.Errorf("uv = %v, want passthrough", v.UV)
	}
}

func TestViewportEdgeClassification(t *testing.T) {
	sc := newScene(14)

	// Exactly on the viewport edge: inside the extended collision
	// bounds, outside the half-open screen bounds.
	colliding := pointAt(sc.set, 800, 300, geom.Pt(40, 16), 1, nil)
	plain := pointAt(sc.set, 800, 300, geom.Pt(40, 16), 2, func(o *Options) { o.Collide = false })

	sc.update(0.016)

	if len(sc.engine.Entries()) != 1 {
		t.Errorf("entries = %d, want the edge label collected via extended bounds", len(sc.engine.Entries()))
	}
	if colliding.IsOccluded() {
		t.Error("edge label must hold its screen space")
	}
	if plain.State() != StateNone {
		t.Errorf("non-colliding edge label state = %v, want dropped by screen bounds", plain.State())
	}
}

func TestUpdateLabels_OnlyTransitions(t *testing.T) {
	sc := newScene(14)
	sc.set.SetQuads([]style.GlyphQuad{{Atlas: 0, Quad: testQuad(40, 16)}})
	l := NewPointLabel(geom.Pt(400, 300), geom.Pt(40, 16), DefaultOptions(), VertexAttributes{},
		sc.set, TextRange{{Start: 0, Length: 1}}, AlignNone, 1)
	sc.set.Add(l)

	sc.update(0.016)
	entriesBefore := len(sc.engine.Entries())
	sc.style.ClearMeshes()

	// A transitions-only pass advances state and re-emits vertices
	// without running placement.
	sc.engine.UpdateLabels(sc.vs, 0.016, sc.styles, []tile.Tile{sc.tile}, nil, true)

	if len(sc.engine.Entries()) != entriesBefore {
		t.Error("transitions-only pass must not recollect entries")
	}
	if got := sc.style.Mesh(0).QuadCount(); got != 1 {
		t.Errorf("QuadCount = %d, want vertices from the transitions pass", got)
	}
}

type recordingPrimitives struct {
	colors int
	lines  int
	rects  int
	polys  int
}

func (r *recordingPrimitives) SetColor(uint32)           { r.colors++ }
func (r *recordingPrimitives) DrawLine(a, b geom.Point)  { r.lines++ }
func (r *recordingPrimitives) DrawRect(a, b geom.Point)  { r.rects++ }
func (r *recordingPrimitives) DrawPoly(pts []geom.Point) { r.polys++ }

func TestDrawDebug_GatedOnFlag(t *testing.T) {
	sc := newScene(14)
	pointAt(sc.set, 400, 300, geom.Pt(100, 30), 1, nil)
	sc.update(0.016)

	rec := &recordingPrimitives{}
	sc.engine.DrawDebug(rec, sc.vs)
	if rec.polys != 0 || rec.rects != 0 {
		t.Fatal("DrawDebug must be a no-op without the labels debug flag")
	}

	tangram.SetDebugFlag(tangram.DebugLabels, true)
	t.Cleanup(func() { tangram.SetDebugFlag(tangram.DebugLabels, false) })

	sc.engine.DrawDebug(rec, sc.vs)
	if rec.polys == 0 {
		t.Error("DrawDebug must draw label boxes")
	}
	if rec.rects == 0 {
		t.Error("DrawDebug must draw the broad-phase grid")
	}
}

func TestDrawAllLabelsFlagCollectsDead(t *testing.T) {
	tangram.SetDebugFlag(tangram.DebugDrawAllLabels, true)
	t.Cleanup(func() { tangram.SetDebugFlag(tangram.DebugDrawAllLabels, false) })

	sc := newScene(14)
	l := pointAt(sc.set, 400, 300, geom.Pt(100, 30), 1, nil)
	l.state = StateDead

	sc.update(0.016)
	if len(sc.engine.Entries()) != 1 {
		t.Errorf("entries = %d, want dead label collected under draw_all_labels", len(sc.engine.Entries()))
	}
}
