package geom

import "testing"

func TestWorldToScreen_Identity(t *testing.T) {
	viewport := Pt(800, 600)

	tests := []struct {
		name    string
		world   Point
		expect  Point
		clipped bool
	}{
		{"center", Pt(0, 0), Pt(400, 300), false},
		{"top left", Pt(-1, 1), Pt(0, 0), false},
		{"bottom right", Pt(1, -1), Pt(800, 600), false},
		{"outside right", Pt(1.5, 0), Point{}, true},
		{"outside top", Pt(0, 2), Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clipped := WorldToScreen(Identity(), tt.world, viewport)
			if clipped != tt.clipped {
				t.Fatalf("clipped = %v, want %v", clipped, tt.clipped)
			}
			if !clipped && !got.Approx(tt.expect, 1e-4) {
				t.Errorf("screen = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestWorldToScreen_BehindCamera(t *testing.T) {
	// A projection whose w row depends on world x: w = x. Points with
	// x <= 0 sit at or behind the camera plane.
	m := Identity()
	m[12], m[13], m[14], m[15] = 1, 0, 0, 0

	if _, clipped := WorldToScreen(m, Pt(-1, 0), Pt(800, 600)); !clipped {
		t.Error("point behind camera must clip")
	}
	if _, clipped := WorldToScreen(m, Pt(0, 0), Pt(800, 600)); !clipped {
		t.Error("point at w=0 must clip")
	}
	if _, clipped := WorldToScreen(m, Pt(2, 0), Pt(800, 600)); clipped {
		t.Error("point with positive w inside NDC must not clip")
	}
}

func TestWorldToScreen_PerspectiveDivide(t *testing.T) {
	// w = 2 everywhere: NDC coordinates halve.
	m := Identity()
	m[15] = 2

	got, clipped := WorldToScreen(m, Pt(1, 1), Pt(800, 600))
	if clipped {
		t.Fatal("unexpected clip")
	}
	if want := Pt(600, 150); !got.Approx(want, 1e-4) {
		t.Errorf("screen = %v, want %v", got, want)
	}
}
