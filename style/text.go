package style

import "golang.org/x/text/unicode/bidi"

// TextDirection classifies the base direction of a label string.
// Curved labels use this to sample their polyline in visual order.
func TextDirection(s string) bidi.Direction {
	var p bidi.Paragraph
	if _, err := p.SetString(s); err != nil {
		return bidi.LeftToRight
	}
	o, err := p.Order()
	if err != nil || o.NumRuns() == 0 {
		return bidi.LeftToRight
	}
	return o.Direction()
}

// IsRTL reports whether the label string reads right to left.
func IsRTL(s string) bool {
	return TextDirection(s) == bidi.RightToLeft
}
