// Package tile defines the tile contracts the label engine consumes:
// pyramid coordinates, live tile handles and the proxy-tile cache.
// Loading, decoding and rasterization live with the host.
package tile

import (
	"fmt"

	"github.com/kristch/tangram-es/geom"
	"github.com/kristch/tangram-es/style"
)

// ID addresses a tile in the quad pyramid. S is the styling zoom used
// for over-zoomed tiles; it does not participate in pyramid math.
type ID struct {
	X, Y int32
	Z    int32
	S    int32
}

// NewID creates a tile ID whose styling zoom equals its pyramid zoom.
func NewID(x, y, z int32) ID {
	return ID{X: x, Y: y, Z: z, S: z}
}

func (id ID) String() string {
	return fmt.Sprintf("%d/%d/%d", id.Z, id.X, id.Y)
}

// IsValid reports whether the coordinates address a tile that exists
// at this zoom.
func (id ID) IsValid() bool {
	maxIndex := int32(1) << uint(id.Z)
	return id.Z >= 0 && id.X >= 0 && id.Y >= 0 && id.X < maxIndex && id.Y < maxIndex
}

// Parent returns the tile one zoom level up that covers this tile.
func (id ID) Parent() ID {
	return ID{X: id.X >> 1, Y: id.Y >> 1, Z: id.Z - 1, S: id.Z - 1}
}

// Child returns one of the four tiles covering this tile at the next
// zoom level. i selects the quadrant: bit 0 is east, bit 1 is south.
func (id ID) Child(i int32) ID {
	return ID{
		X: id.X<<1 + (i & 1),
		Y: id.Y<<1 + (i >> 1),
		Z: id.Z + 1,
		S: id.Z + 1,
	}
}

// Tile is a live tile handle. It must stay valid for the duration of
// the engine update that receives it.
type Tile interface {
	ID() ID
	SourceID() int32

	// IsProxy reports whether the tile is shown in place of a tile
	// that is still loading.
	IsProxy() bool

	// MVP returns the tile's model-view-projection matrix for the
	// current frame.
	MVP() geom.Mat4

	// Mesh returns the styled mesh built for the given style, or nil.
	Mesh(s style.Style) style.StyledMesh
}

// Cache looks up tiles that are no longer on screen but still held for
// reuse. The engine consults it to resolve proxy tiles across zoom
// transitions.
type Cache interface {
	// Contains returns the cached tile with the given source and ID,
	// or nil.
	Contains(sourceID int32, id ID) Tile
}
