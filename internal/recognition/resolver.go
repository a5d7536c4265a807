package recognition

import (
	"context"
	"sort"
	"time"

	"github.com/kbediako/examgate/internal/store"
)

// Resolver maps a student's index number to their assigned exam room.
type Resolver struct {
	ranges store.RangeReader
	now    func() time.Time
}

// NewResolver creates a resolver reading range assignments from ranges.
func NewResolver(ranges store.RangeReader) *Resolver {
	return &Resolver{ranges: ranges, now: time.Now}
}

// Resolve finds the range assignment covering indexKey. With an explicit
// sessionID only that session's active ranges are considered; otherwise the
// ranges of all sessions active today. When several sessions cover the key,
// the most recent wins: latest exam date, then latest start time. Returns
// (nil, nil) when no range contains the key; an unassigned student is a
// normal outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, indexKey string, sessionID *int64) (*store.RangeAssignment, error) {
	var (
		ranges []store.RangeAssignment
		err    error
	)
	if sessionID != nil {
		ranges, err = r.ranges.RangesForSession(ctx, *sessionID)
	} else {
		ranges, err = r.ranges.RangesActiveOn(ctx, r.now())
	}
	if err != nil {
		return nil, NewError(KindStorage, err)
	}

	var covering []store.RangeAssignment
	for _, ra := range ranges {
		if store.KeyInRange(indexKey, ra.StartIndex, ra.EndIndex) {
			covering = append(covering, ra)
		}
	}
	if len(covering) == 0 {
		return nil, nil
	}

	sort.SliceStable(covering, func(i, j int) bool {
		if !covering[i].ExamDate.Equal(covering[j].ExamDate) {
			return covering[i].ExamDate.After(covering[j].ExamDate)
		}
		return covering[i].StartTime > covering[j].StartTime
	})

	return &covering[0], nil
}
