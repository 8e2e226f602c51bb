package embedding

import "math"

// CosineSimilarity returns dot(a, b) / (|a| * |b|).
//
// Vectors of different length, empty vectors and zero vectors all score 0;
// none of these is treated as an error. Accumulation happens in float64
// and the result is clamped to [-1, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}
