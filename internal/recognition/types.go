package recognition

// Candidate is one enrolled descriptor the matcher scans.
type Candidate struct {
	StudentID  string
	Descriptor []float32
}

// MatchResult is the outcome of one probe scan. Confidence is 1 - distance
// clamped to [0, 1]; it decreases monotonically with distance but is not a
// calibrated probability.
type MatchResult struct {
	Matched    bool
	StudentID  string
	Distance   float64
	Confidence float64
}

// ClientContext carries request metadata for the audit trail.
type ClientContext struct {
	IPAddress string
	UserAgent string
}

// Status classifies the outcome of a verification attempt. The statuses
// are deliberately distinguishable: "looked and found nobody" (no_match),
// "found somebody but no room" (verified_unassigned) and "could not look"
// (cannot_evaluate) branch differently at the caller.
type Status string

const (
	StatusCheckedIn      Status = "checked_in"
	StatusUnassigned     Status = "verified_unassigned"
	StatusNoMatch        Status = "no_match"
	StatusCannotEvaluate Status = "cannot_evaluate"
)
