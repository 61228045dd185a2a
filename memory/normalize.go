package memory

import "math"

// normTolerance bounds how far a vector's L2 norm may drift from 1 and still
// count as unit length.
const normTolerance = 1e-4

// Normalize projects vec onto the unit sphere so that cosine distance and
// dot-product similarity coincide. The input is not modified.
//
// A zero (or empty) vector has no direction; it is returned unchanged as a
// copy. Callers that need the unit-norm invariant check IsUnit.
func Normalize(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)

	norm := Norm(vec)
	if norm == 0 {
		return out
	}
	for i, v := range out {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// Norm returns the Euclidean norm of vec.
func Norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// IsUnit reports whether vec has L2 norm 1 within tolerance.
func IsUnit(vec []float32) bool {
	return math.Abs(Norm(vec)-1) <= normTolerance
}
