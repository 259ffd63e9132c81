// Package tangram holds the process-wide pieces of the label engine:
// the shared logger and the debug flag bit-set.
//
// # Overview
//
// The actual engine lives in the subpackages:
//   - geom: 2D vectors, AABB/OBB intersection, world to screen projection
//   - isect2d: uniform-grid broad-phase index over the viewport
//   - style, tile, marker, view: contracts of the external collaborators
//   - labels: label state machines, label variants and the per-frame
//     placement and occlusion pass
//
// A host render loop drives the engine once per frame:
//
//	engine := labels.New()
//	// each frame:
//	engine.UpdateLabelSet(viewState, dt, styles, tiles, markers, cache)
//
// The engine is single-threaded by design; see the labels package for
// the frame pipeline.
//
// # Coordinate System
//
// Screen space uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - Rotations are unit complex numbers (cos, sin)
package tangram
