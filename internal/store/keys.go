package store

import "fmt"

// Index keys are fixed-width, zero-padded strings ("0000075"). Range
// containment uses plain string comparison, which is only correct when all
// keys share the same width, so width is validated wherever keys enter the
// system.

// ValidateKey checks that a key has the configured width and contains only
// digits or uppercase letters.
func ValidateKey(key string, width int) error {
	if len(key) != width {
		return fmt.Errorf("index key %q must be exactly %d characters", key, width)
	}
	for _, r := range key {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return fmt.Errorf("index key %q contains invalid character %q", key, r)
		}
	}
	return nil
}

// ValidateRange checks both bounds for width and ordering.
func ValidateRange(startIndex, endIndex string, width int) error {
	if err := ValidateKey(startIndex, width); err != nil {
		return err
	}
	if err := ValidateKey(endIndex, width); err != nil {
		return err
	}
	if startIndex > endIndex {
		return fmt.Errorf("range start %q is after end %q", startIndex, endIndex)
	}
	return nil
}

// KeyInRange reports whether key lies in [startIndex, endIndex]. Keys of a
// width different from the bounds never match; mixed-width lexicographic
// comparison would give wrong answers.
func KeyInRange(key, startIndex, endIndex string) bool {
	if len(key) != len(startIndex) || len(key) != len(endIndex) {
		return false
	}
	return startIndex <= key && key <= endIndex
}

// RangesOverlap reports whether two inclusive ranges share any key.
func RangesOverlap(aStart, aEnd, bStart, bEnd string) bool {
	return aStart <= bEnd && bStart <= aEnd
}
