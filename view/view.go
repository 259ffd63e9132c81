// Package view carries the per-frame camera state the label engine
// consumes. The host render loop fills a ViewState from its camera
// before each update.
package view

import "github.com/kristch/tangram-es/geom"

// ViewState is an immutable snapshot of the camera for one frame.
type ViewState struct {
	// ViewportSize is the screen size in pixels.
	ViewportSize geom.Point

	// Zoom is the fractional map zoom level.
	Zoom float32
}

// FractZoom returns the fractional part of the zoom level.
func (v ViewState) FractZoom() float32 {
	return v.Zoom - float32(int(v.Zoom))
}

// ScreenBounds returns the viewport as an AABB anchored at the origin.
func (v ViewState) ScreenBounds() geom.AABB {
	return geom.AABB{Max: v.ViewportSize}
}
