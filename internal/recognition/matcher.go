package recognition

import "math"

// Matcher selects the closest enrolled descriptor to a probe under a
// distance threshold. The scan is a deliberate O(N) brute force over all
// active descriptors: at hundreds to low thousands of students this is
// cheap, deterministic, and trivially exact. Anything replacing it must
// return bit-for-bit identical results.
type Matcher struct {
	threshold float64
	dim       int
}

// NewMatcher creates a matcher. threshold is the maximum Euclidean
// distance at which two descriptors count as the same person; dim is the
// embedding dimension, used to skip malformed candidates.
func NewMatcher(threshold float64, dim int) *Matcher {
	return &Matcher{threshold: threshold, dim: dim}
}

// Threshold returns the configured acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match scans candidates for the minimum-distance descriptor. A match is
// returned only when the minimum distance is strictly below the threshold;
// a distance exactly at the threshold is no-match. Candidates with a
// missing or wrong-dimension descriptor are skipped, not fatal. Zero
// candidates is a normal no-match.
func (m *Matcher) Match(probe []float32, candidates []Candidate) MatchResult {
	best := math.Inf(1)
	bestID := ""

	for i := range candidates {
		c := &candidates[i]
		if len(c.Descriptor) != len(probe) || len(c.Descriptor) == 0 {
			continue
		}
		d := EuclideanDistance(probe, c.Descriptor)
		if d < best {
			best = d
			bestID = c.StudentID
		}
	}

	if bestID == "" || best >= m.threshold {
		return MatchResult{Matched: false, Distance: best}
	}

	return MatchResult{
		Matched:    true,
		StudentID:  bestID,
		Distance:   best,
		Confidence: confidence(best),
	}
}

// EuclideanDistance computes the L2 distance between two vectors. Returns
// +Inf for mismatched or empty inputs.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// confidence maps a distance to 1 - distance, clamped to [0, 1]. It is a
// display score, not a probability.
func confidence(distance float64) float64 {
	c := 1 - distance
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
