package textutil

// CosineSimilarity compares two fingerprints, in [0, 1]. Returns 0 if either is nil.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	if len(b.terms) < len(a.terms) {
		a, b = b, a
	}
	var dot float64
	for term, count := range a.terms {
		if other, ok := b.terms[term]; ok {
			dot += count * other
		}
	}
	// rounding can push identical fingerprints just past 1
	return min(max(dot/(a.norm*b.norm), 0), 1)
}
