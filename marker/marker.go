// Package marker defines the contract for user-placed markers. Unlike
// tile labels, marker labels have no owning tile; the engine collects
// them with a nil tile reference.
package marker

import (
	"github.com/kristch/tangram-es/geom"
	"github.com/kristch/tangram-es/style"
)

// Marker is a live marker handle, valid for the duration of the
// engine update that receives it.
type Marker interface {
	// StyleID names the style that draws this marker; markers only
	// contribute labels to styles with a matching ID.
	StyleID() uint32

	// Mesh returns the marker's styled mesh, or nil.
	Mesh() style.StyledMesh

	// ModelViewProjectionMatrix returns the marker's MVP for the
	// current frame.
	ModelViewProjectionMatrix() geom.Mat4
}
