package fourier

import "fmt"

// PointsPerElement is the number of GLL points in one spectral element
// (polynomial order 4 in both directions).
const PointsPerElement = 25

// Variant names a transform bank by the number of sequences it transforms
// at once.
type Variant string

const (
	// Single transforms one scalar component.
	Single Variant = "1"
	// Triple transforms three components, e.g. a displacement vector.
	Triple Variant = "3"
	// ElementN3 transforms three components on every point of an element.
	ElementN3 Variant = "N3"
	// ElementN6 transforms six components on every point of an element.
	ElementN6 Variant = "N6"
	// ElementN9 transforms nine components on every point of an element.
	ElementN9 Variant = "N9"
)

// Variants lists every bank in acquisition order.
var Variants = []Variant{Single, Triple, ElementN3, ElementN6, ElementN9}

// Howmany returns the number of sequences transformed per call.
func (v Variant) Howmany() int {
	switch v {
	case Single:
		return 1
	case Triple:
		return 3
	case ElementN3:
		return 3 * PointsPerElement
	case ElementN6:
		return 6 * PointsPerElement
	case ElementN9:
		return 9 * PointsPerElement
	}
	return 0
}

// ParseVariant returns the variant named s.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("fourier: unknown variant %q", s)
}
