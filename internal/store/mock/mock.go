// Package mock provides an in-memory store implementation for tests.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbediako/examgate/internal/store"
)

// Store implements the store interfaces in memory. Zero value is not
// usable; call New. Error fields, when set, are returned by the matching
// method so tests can exercise failure paths.
type Store struct {
	mu sync.Mutex

	students   map[string]*store.Student
	sessions   map[int64]*store.ExamSession
	rooms      map[int64]*store.ExamRoom
	ranges     []store.RangeAssignment
	logs       []store.VerificationLog
	attendance map[string]store.AttendanceRecord
	admins     map[string]*store.Admin
	otps       []store.OTPCode

	nextSessionID int64
	nextRoomID    int64
	nextRangeID   int64
	nextLogID     int64

	ActiveDescriptorsErr error
	AppendLogErr         error
	UpsertAttendanceErr  error
	RangesErr            error
}

// New creates an empty mock store.
func New() *Store {
	return &Store{
		students:   make(map[string]*store.Student),
		sessions:   make(map[int64]*store.ExamSession),
		rooms:      make(map[int64]*store.ExamRoom),
		attendance: make(map[string]store.AttendanceRecord),
		admins:     make(map[string]*store.Admin),
	}
}

func (m *Store) ActiveDescriptors(ctx context.Context) ([]store.EnrolledDescriptor, error) {
	if m.ActiveDescriptorsErr != nil {
		return nil, m.ActiveDescriptorsErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.EnrolledDescriptor
	for _, s := range m.students {
		if s.Status != store.StudentActive || len(s.Descriptor) == 0 {
			continue
		}
		out = append(out, store.EnrolledDescriptor{
			StudentID:  s.ID,
			Descriptor: s.Descriptor,
		})
	}
	return out, nil
}

func (m *Store) GetStudent(ctx context.Context, id string) (*store.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Store) PutDescriptor(ctx context.Context, studentID string, descriptor []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[studentID]
	if !ok {
		return store.ErrNotFound
	}
	s.Descriptor = descriptor
	s.UpdatedAt = time.Now()
	return nil
}

func (m *Store) CreateStudent(ctx context.Context, s *store.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	for _, existing := range m.students {
		if existing.IndexNumber == s.IndexNumber && existing.Status != store.StudentDeleted {
			return fmt.Errorf("index number %s already enrolled", s.IndexNumber)
		}
	}
	if s.Status == "" {
		s.Status = store.StudentActive
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.students[s.ID] = &cp
	return nil
}

func (m *Store) ListStudents(ctx context.Context, includeDeleted bool) ([]store.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.Student
	for _, s := range m.students {
		if !includeDeleted && s.Status == store.StudentDeleted {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *Store) GetStudentByIndexNumber(ctx context.Context, indexNumber string) (*store.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.students {
		if s.IndexNumber == indexNumber && s.Status != store.StudentDeleted {
			cp := *s
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Store) UpdateStudent(ctx context.Context, s *store.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[s.ID]; !ok {
		return store.ErrNotFound
	}
	s.UpdatedAt = time.Now()
	cp := *s
	m.students[s.ID] = &cp
	return nil
}

func (m *Store) SetStudentStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

func (m *Store) SearchStudentsByName(ctx context.Context, name string) ([]store.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := store.NormalizeName(name)
	var out []store.Student
	for _, s := range m.students {
		if s.Status == store.StudentDeleted {
			continue
		}
		if strings.Contains(store.NormalizeName(s.FullName()), needle) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *Store) CreateSession(ctx context.Context, s *store.ExamSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSessionID++
	s.ID = m.nextSessionID
	if s.Status == "" {
		s.Status = store.SessionScheduled
	}
	s.CreatedAt = time.Now()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *Store) ListSessions(ctx context.Context) ([]store.ExamSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.ExamSession
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (m *Store) GetSession(ctx context.Context, id int64) (*store.ExamSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Store) ActivateSession(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, s := range m.sessions {
		if s.ID != id && s.Status == store.SessionActive && sameDay(s.ExamDate, target.ExamDate) {
			s.Status = store.SessionScheduled
		}
	}
	target.Status = store.SessionActive
	return nil
}

func (m *Store) CreateRoom(ctx context.Context, r *store.ExamRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextRoomID++
	r.ID = m.nextRoomID
	r.CreatedAt = time.Now()
	cp := *r
	m.rooms[r.ID] = &cp
	return nil
}

func (m *Store) ListRooms(ctx context.Context) ([]store.ExamRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.ExamRoom
	for _, r := range m.rooms {
		out = append(out, *r)
	}
	return out, nil
}

func (m *Store) CreateRangeAssignment(ctx context.Context, ra *store.RangeAssignment, keyWidth int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := store.ValidateRange(ra.StartIndex, ra.EndIndex, keyWidth); err != nil {
		return err
	}
	for _, existing := range m.ranges {
		if existing.SessionID != ra.SessionID || existing.Status != store.SessionActive {
			continue
		}
		if store.RangesOverlap(ra.StartIndex, ra.EndIndex, existing.StartIndex, existing.EndIndex) {
			return fmt.Errorf("range %s-%s against assignment %d: %w",
				ra.StartIndex, ra.EndIndex, existing.ID, store.ErrRangeOverlap)
		}
	}

	m.nextRangeID++
	ra.ID = m.nextRangeID
	if ra.Status == "" {
		ra.Status = store.SessionActive
	}
	ra.CreatedAt = time.Now()

	if sess, ok := m.sessions[ra.SessionID]; ok {
		ra.ExamTitle = sess.Title
		ra.Subject = sess.Subject
		ra.ExamDate = sess.ExamDate
		ra.StartTime = sess.StartTime
		ra.EndTime = sess.EndTime
	}
	if room, ok := m.rooms[ra.RoomID]; ok {
		ra.RoomNumber = room.RoomNumber
		ra.Building = room.Building
	}

	m.ranges = append(m.ranges, *ra)
	return nil
}

func (m *Store) ListRangeAssignments(ctx context.Context) ([]store.RangeAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]store.RangeAssignment, len(m.ranges))
	copy(out, m.ranges)
	return out, nil
}

func (m *Store) RangesForSession(ctx context.Context, sessionID int64) ([]store.RangeAssignment, error) {
	if m.RangesErr != nil {
		return nil, m.RangesErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.RangeAssignment
	for _, ra := range m.ranges {
		if ra.SessionID == sessionID && ra.Status == store.SessionActive {
			out = append(out, ra)
		}
	}
	return out, nil
}

func (m *Store) RangesActiveOn(ctx context.Context, day time.Time) ([]store.RangeAssignment, error) {
	if m.RangesErr != nil {
		return nil, m.RangesErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.RangeAssignment
	for _, ra := range m.ranges {
		if ra.Status != store.SessionActive {
			continue
		}
		sess, ok := m.sessions[ra.SessionID]
		if !ok || sess.Status != store.SessionActive || !sameDay(sess.ExamDate, day) {
			continue
		}
		out = append(out, ra)
	}
	return out, nil
}

func (m *Store) AppendVerificationLog(ctx context.Context, entry store.VerificationLog) error {
	if m.AppendLogErr != nil {
		return m.AppendLogErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextLogID++
	entry.ID = m.nextLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.logs = append(m.logs, entry)
	return nil
}

func (m *Store) UpsertAttendance(ctx context.Context, rec store.AttendanceRecord) error {
	if m.UpsertAttendanceErr != nil {
		return m.UpsertAttendanceErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s|%d", rec.StudentID, rec.SessionID)
	if prior, ok := m.attendance[key]; ok {
		rec.ID = prior.ID
		rec.CreatedAt = prior.CreatedAt
	} else {
		rec.ID = int64(len(m.attendance) + 1)
		rec.CreatedAt = time.Now()
	}
	m.attendance[key] = rec
	return nil
}

func (m *Store) ListAttendance(ctx context.Context, sessionID *int64) ([]store.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.AttendanceRecord
	for _, rec := range m.attendance {
		if sessionID != nil && rec.SessionID != *sessionID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *Store) RecentLogs(ctx context.Context, limit int) ([]store.VerificationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.logs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]store.VerificationLog, 0, n)
	for i := len(m.logs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *Store) CountLogsSince(ctx context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, l := range m.logs {
		if !l.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *Store) CountAttendance(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.attendance), nil
}

func (m *Store) CreateAdmin(ctx context.Context, a *store.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = "admin"
	}
	a.CreatedAt = time.Now()
	cp := *a
	m.admins[a.ID] = &cp
	return nil
}

func (m *Store) GetAdminByUsername(ctx context.Context, username string) (*store.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.admins {
		if a.Username == username && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Store) GetAdminByEmail(ctx context.Context, email string) (*store.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.admins {
		if a.Email == email && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Store) TouchLastLogin(ctx context.Context, adminID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.admins[adminID]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now()
	a.LastLogin = &now
	return nil
}

func (m *Store) CreateOTP(ctx context.Context, otp *store.OTPCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	otp.ID = int64(len(m.otps) + 1)
	otp.CreatedAt = time.Now()
	m.otps = append(m.otps, *otp)
	return nil
}

func (m *Store) ConsumeOTP(ctx context.Context, email, code, purpose string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.otps) - 1; i >= 0; i-- {
		otp := &m.otps[i]
		if otp.Email == email && otp.Code == code && otp.Purpose == purpose &&
			!otp.Used && otp.ExpiresAt.After(time.Now()) {
			otp.Used = true
			return nil
		}
	}
	return store.ErrNotFound
}

// OTPs returns a copy of all created one-time codes.
func (m *Store) OTPs() []store.OTPCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]store.OTPCode, len(m.otps))
	copy(out, m.otps)
	return out
}

// Logs returns a copy of all appended log rows, oldest first.
func (m *Store) Logs() []store.VerificationLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]store.VerificationLog, len(m.logs))
	copy(out, m.logs)
	return out
}

// AttendanceRows returns a copy of all attendance rows.
func (m *Store) AttendanceRows() []store.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.AttendanceRecord
	for _, rec := range m.attendance {
		out = append(out, rec)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
