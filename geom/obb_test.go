package geom

import (
	"math"
	"testing"
)

func TestAABB_Intersect(t *testing.T) {
	tests := []struct {
		name   string
		a, b   AABB
		expect bool
	}{
		{"overlap", Rect(0, 0, 10, 10), Rect(5, 5, 15, 15), true},
		{"contained", Rect(0, 0, 10, 10), Rect(2, 2, 4, 4), true},
		{"disjoint x", Rect(0, 0, 10, 10), Rect(11, 0, 20, 10), false},
		{"disjoint y", Rect(0, 0, 10, 10), Rect(0, 11, 10, 20), false},
		{"touching edge is open", Rect(0, 0, 10, 10), Rect(10, 0, 20, 10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersect(tt.b); got != tt.expect {
				t.Errorf("Intersect = %v, want %v", got, tt.expect)
			}
			if got := tt.b.Intersect(tt.a); got != tt.expect {
				t.Errorf("Intersect (swapped) = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestOBB_Extent(t *testing.T) {
	sqrt2 := float32(math.Sqrt2 / 2)

	// 45 degree box of half extents (10, 10): the extent grows to
	// 10*sqrt(2) in each direction.
	o := NewOBB(Pt(100, 100), Pt(sqrt2, sqrt2), 10, 10)
	e := o.Extent()
	want := float32(10 * math.Sqrt2)
	if d := e.Width() / 2; abs(d-want) > 1e-4 {
		t.Errorf("half width = %v, want %v", d, want)
	}
	if c := e.Center(); !c.Approx(Pt(100, 100), 1e-4) {
		t.Errorf("center = %v, want (100,100)", c)
	}
}

func TestOBB_Intersect(t *testing.T) {
	sqrt2 := float32(math.Sqrt2 / 2)

	tests := []struct {
		name   string
		a, b   OBB
		expect bool
	}{
		{
			"axis aligned overlap",
			NewOBB(Pt(0, 0), Pt(1, 0), 10, 5),
			NewOBB(Pt(8, 0), Pt(1, 0), 10, 5),
			true,
		},
		{
			"axis aligned disjoint",
			NewOBB(Pt(0, 0), Pt(1, 0), 10, 5),
			NewOBB(Pt(30, 0), Pt(1, 0), 10, 5),
			false,
		},
		{
			"contained",
			NewOBB(Pt(0, 0), Pt(1, 0), 20, 20),
			NewOBB(Pt(0, 0), Pt(sqrt2, sqrt2), 2, 2),
			true,
		},
		{
			// Diagonal boxes whose extents overlap but whose quads do
			// not: the broad phase would pass these, SAT must reject.
			"rotated disjoint with overlapping extents",
			NewOBB(Pt(0, 0), Pt(sqrt2, sqrt2), 14, 1),
			NewOBB(Pt(14, -14), Pt(sqrt2, sqrt2), 14, 1),
			false,
		},
		{
			"rotated crossing",
			NewOBB(Pt(0, 0), Pt(sqrt2, sqrt2), 20, 2),
			NewOBB(Pt(0, 0), Pt(sqrt2, -sqrt2), 20, 2),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersect(&tt.a, &tt.b); got != tt.expect {
				t.Errorf("Intersect = %v, want %v", got, tt.expect)
			}
			if got := Intersect(&tt.b, &tt.a); got != tt.expect {
				t.Errorf("Intersect (swapped) = %v, want %v", got, tt.expect)
			}
		})
	}
}
