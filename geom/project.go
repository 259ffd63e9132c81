package geom

// clipEpsilon pads the NDC clip test so labels straddling the volume
// boundary are not culled a frame early.
const clipEpsilon = 0.0001

// WorldToScreen projects a world-space position through the given
// model-view-projection matrix into screen pixels (y-down).
//
// clipped is true when the point is behind the camera (w <= 0) or its
// NDC coordinates fall outside [-1, 1] with a small epsilon; callers
// must discard the label for this frame in that case.
func WorldToScreen(mvp Mat4, world Point, viewport Point) (screen Point, clipped bool) {
	c := mvp.TransformVec4(Vec4{world.X, world.Y, 0, 1})

	if c[3] <= 0 {
		return Point{}, true
	}

	inv := 1 / c[3]
	x, y, z := c[0]*inv, c[1]*inv, c[2]*inv

	const lim = 1 + clipEpsilon
	if x < -lim || x > lim || y < -lim || y > lim || z < -lim || z > lim {
		return Point{}, true
	}

	// NDC y is up, screen y is down.
	screen = Point{
		X: (x + 1) * 0.5 * viewport.X,
		Y: (1 - y) * 0.5 * viewport.Y,
	}
	return screen, false
}
