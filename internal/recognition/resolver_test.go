package recognition

import (
	"context"
	"testing"
	"time"

	"github.com/kbediako/examgate/internal/store"
	"github.com/kbediako/examgate/internal/store/mock"
)

func seedSessionWithRooms(t *testing.T, m *mock.Store) int64 {
	t.Helper()
	ctx := context.Background()

	sess := &store.ExamSession{
		Title:     "Data Structures Final",
		Subject:   "CS201",
		ExamDate:  time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "12:00",
	}
	if err := m.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	room1 := &store.ExamRoom{RoomNumber: "Room 1", Building: "Science Block", Capacity: 50}
	room2 := &store.ExamRoom{RoomNumber: "Room 2", Building: "Science Block", Capacity: 50}
	if err := m.CreateRoom(ctx, room1); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := m.CreateRoom(ctx, room2); err != nil {
		t.Fatalf("create room: %v", err)
	}

	ranges := []*store.RangeAssignment{
		{SessionID: sess.ID, RoomID: room1.ID, StartIndex: "0000001", EndIndex: "0000050"},
		{SessionID: sess.ID, RoomID: room2.ID, StartIndex: "0000051", EndIndex: "0000100"},
	}
	for _, ra := range ranges {
		if err := m.CreateRangeAssignment(ctx, ra, 7); err != nil {
			t.Fatalf("create range: %v", err)
		}
	}
	return sess.ID
}

func TestResolveExplicitSession(t *testing.T) {
	m := mock.New()
	sessID := seedSessionWithRooms(t, m)
	r := NewResolver(m)

	tests := []struct {
		key      string
		wantRoom string
	}{
		{"0000025", "Room 1"},
		{"0000075", "Room 2"},
		{"0000051", "Room 2"}, // start boundary
		{"0000100", "Room 2"}, // end boundary
	}

	for _, tt := range tests {
		got, err := r.Resolve(context.Background(), tt.key, &sessID)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.key, err)
		}
		if got == nil {
			t.Fatalf("Resolve(%q) = nil, want %s", tt.key, tt.wantRoom)
		}
		if got.RoomNumber != tt.wantRoom {
			t.Errorf("Resolve(%q) = %s, want %s", tt.key, got.RoomNumber, tt.wantRoom)
		}
	}
}

func TestResolveNoCoveringRange(t *testing.T) {
	m := mock.New()
	sessID := seedSessionWithRooms(t, m)
	r := NewResolver(m)

	got, err := r.Resolve(context.Background(), "0000150", &sessID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != nil {
		t.Errorf("Resolve = %+v, want nil for uncovered key", got)
	}
}

func TestResolveWidthMismatchNeverMatches(t *testing.T) {
	m := mock.New()
	sessID := seedSessionWithRooms(t, m)
	r := NewResolver(m)

	got, err := r.Resolve(context.Background(), "75", &sessID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != nil {
		t.Errorf("short key resolved to %s, want nil", got.RoomNumber)
	}
}

// stubRanges lets tests feed the resolver an arbitrary range set,
// bypassing the store's one-active-session-per-day rule.
type stubRanges struct {
	ranges []store.RangeAssignment
	err    error
}

func (s *stubRanges) RangesForSession(ctx context.Context, sessionID int64) ([]store.RangeAssignment, error) {
	return s.ranges, s.err
}

func (s *stubRanges) RangesActiveOn(ctx context.Context, day time.Time) ([]store.RangeAssignment, error) {
	return s.ranges, s.err
}

func TestResolvePrefersMostRecentSession(t *testing.T) {
	may14 := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)
	may15 := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)

	stub := &stubRanges{ranges: []store.RangeAssignment{
		{RoomNumber: "Old Hall", StartIndex: "0000001", EndIndex: "0000100", ExamDate: may14, StartTime: "09:00"},
		{RoomNumber: "New Hall", StartIndex: "0000001", EndIndex: "0000100", ExamDate: may15, StartTime: "09:00"},
	}}

	got, err := NewResolver(stub).Resolve(context.Background(), "0000042", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.RoomNumber != "New Hall" {
		t.Errorf("got %+v, want New Hall (later exam date)", got)
	}
}

func TestResolveTieBreaksOnStartTime(t *testing.T) {
	day := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)

	stub := &stubRanges{ranges: []store.RangeAssignment{
		{RoomNumber: "Morning Hall", StartIndex: "0000001", EndIndex: "0000100", ExamDate: day, StartTime: "09:00"},
		{RoomNumber: "Afternoon Hall", StartIndex: "0000001", EndIndex: "0000100", ExamDate: day, StartTime: "14:00"},
	}}

	got, err := NewResolver(stub).Resolve(context.Background(), "0000042", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.RoomNumber != "Afternoon Hall" {
		t.Errorf("got %+v, want Afternoon Hall (later start time)", got)
	}
}

func TestResolveStorageError(t *testing.T) {
	stub := &stubRanges{err: context.DeadlineExceeded}

	_, err := NewResolver(stub).Resolve(context.Background(), "0000042", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindStorage {
		t.Errorf("error kind = %q, want storage", KindOf(err))
	}
}
