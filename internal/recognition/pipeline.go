package recognition

import (
	"context"
	"fmt"

	"github.com/kbediako/examgate/internal/store"
)

// Verifier runs the full identify-resolve-record pipeline for one probe
// descriptor. Every call, including ones that fail partway, leaves exactly
// one verification log row behind.
type Verifier struct {
	students store.DescriptorReader
	matcher  *Matcher
	resolver *Resolver
	recorder *Recorder
}

// NewVerifier wires the pipeline stages together.
func NewVerifier(students store.DescriptorReader, matcher *Matcher, resolver *Resolver, recorder *Recorder) *Verifier {
	return &Verifier{
		students: students,
		matcher:  matcher,
		resolver: resolver,
		recorder: recorder,
	}
}

// VerifyOptions carries per-request parameters.
type VerifyOptions struct {
	// SessionID restricts room resolution to one session. Nil means
	// "whatever sessions are active today".
	SessionID *int64
	Client    ClientContext
}

// VerifyResult is the outcome of one pipeline run.
type VerifyResult struct {
	Status     Status
	Student    *store.Student
	Assignment *store.RangeAssignment
	Confidence float64
	Distance   float64
}

// Verify matches probe against all enrolled descriptors, resolves the
// matched student's exam room and records the outcome. A wrong-dimension
// probe is an input defect: it is logged and reported as cannot_evaluate,
// not an error. Storage failures return a storage-kind error; the log
// append is still attempted so the attempt stays visible in the audit
// trail.
func (v *Verifier) Verify(ctx context.Context, probe []float32, opts VerifyOptions) (*VerifyResult, error) {
	if len(probe) != v.matcher.dim {
		reason := fmt.Sprintf("descriptor dimension %d, expected %d", len(probe), v.matcher.dim)
		if err := v.recorder.RecordDefect(ctx, reason, opts.Client, opts.SessionID); err != nil {
			return nil, err
		}
		return &VerifyResult{Status: StatusCannotEvaluate}, nil
	}

	candidates, err := v.students.ActiveDescriptors(ctx)
	if err != nil {
		// Best effort; the read failure is the error we report.
		_ = v.recorder.RecordDefect(ctx, "descriptor read failed", opts.Client, opts.SessionID)
		return nil, NewError(KindStorage, err)
	}

	probes := make([]Candidate, len(candidates))
	for i, c := range candidates {
		probes[i] = Candidate{StudentID: c.StudentID, Descriptor: c.Descriptor}
	}

	res := v.matcher.Match(probe, probes)
	if !res.Matched {
		if err := v.recorder.Record(ctx, res, nil, opts.Client, opts.SessionID, "no match"); err != nil {
			return nil, err
		}
		return &VerifyResult{Status: StatusNoMatch, Distance: res.Distance}, nil
	}

	student, err := v.students.GetStudent(ctx, res.StudentID)
	if err != nil {
		_ = v.recorder.Record(ctx, res, nil, opts.Client, opts.SessionID, "student lookup failed")
		return nil, NewError(KindStorage, err)
	}

	assignment, err := v.resolver.Resolve(ctx, student.IndexNumber, opts.SessionID)
	if err != nil {
		_ = v.recorder.Record(ctx, res, nil, opts.Client, opts.SessionID, "room resolution failed")
		return nil, err
	}

	result := &VerifyResult{
		Student:    student,
		Assignment: assignment,
		Confidence: res.Confidence,
		Distance:   res.Distance,
	}
	notes := ""
	if assignment != nil {
		result.Status = StatusCheckedIn
		notes = "checked in to " + assignment.RoomLabel()
	} else {
		result.Status = StatusUnassigned
		notes = "verified, no room assignment"
	}

	if err := v.recorder.Record(ctx, res, assignment, opts.Client, opts.SessionID, notes); err != nil {
		return result, err
	}
	return result, nil
}

// RecordDefect logs an attempt whose image never produced a descriptor
// (no face, multiple faces, unreadable upload). Callers that fail before
// encoding use this to keep the one-row-per-attempt audit property.
func (v *Verifier) RecordDefect(ctx context.Context, reason string, opts VerifyOptions) error {
	return v.recorder.RecordDefect(ctx, reason, opts.Client, opts.SessionID)
}
