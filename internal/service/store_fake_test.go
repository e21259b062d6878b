package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/lesson-seat-invitation/internal/model"
	"github.com/iliyamo/lesson-seat-invitation/internal/repository"
)

// memStore is an in-memory repository.Store used by the service tests.
// It mirrors the transactional behaviour of the SQL store: Begin takes
// a store-wide lock that is held until Commit or Rollback, writes made
// inside a transaction are staged and only become visible on Commit,
// and ClaimSeat enforces the optimistic version check against the
// committed seat row.
type memStore struct {
	mu sync.Mutex

	seats     map[uint64]*model.Seat
	lessons   map[uint64]*model.Lesson
	invites   map[string]*model.Invitation // keyed by code
	forms     map[uint64]*model.IdentityForm
	students  map[uint64]*model.GlobalStudent
	mappings  map[string]*model.StudentMapping
	guardians map[string]*model.GuardianRelationship // keyed by email|studentID

	nextInvitationID uint64
	nextStudentID    uint64

	// beforeClaimSeat, when set, runs inside the transaction right
	// before the version check. Tests use it to simulate a concurrent
	// writer bumping the seat version.
	beforeClaimSeat func(st *memStore)
}

func newMemStore() *memStore {
	return &memStore{
		seats:     make(map[uint64]*model.Seat),
		lessons:   make(map[uint64]*model.Lesson),
		invites:   make(map[string]*model.Invitation),
		forms:     make(map[uint64]*model.IdentityForm),
		students:  make(map[uint64]*model.GlobalStudent),
		mappings:  make(map[string]*model.StudentMapping),
		guardians: make(map[string]*model.GuardianRelationship),
	}
}

func guardianKey(email string, studentID uint64) string {
	return fmt.Sprintf("%s|%d", email, studentID)
}

func copySeat(s *model.Seat) *model.Seat { c := *s; return &c }

func copyInvitation(i *model.Invitation) *model.Invitation { c := *i; return &c }

func copyForm(f *model.IdentityForm) *model.IdentityForm { c := *f; return &c }

func copyStudent(s *model.GlobalStudent) *model.GlobalStudent { c := *s; return &c }

func (st *memStore) addLesson(l model.Lesson) { st.lessons[l.ID] = &l }

func (st *memStore) addSeat(s model.Seat) { st.seats[s.ID] = &s }

func (st *memStore) SeatByID(ctx context.Context, id uint64) (*model.Seat, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.seats[id]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	return copySeat(s), nil
}

func (st *memStore) MarkSeatInvited(ctx context.Context, seatID uint64) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.seats[seatID]
	if !ok {
		return repository.ErrSeatNotFound
	}
	switch s.Status {
	case model.SeatPending:
		s.Status = model.SeatInvited
		return nil
	case model.SeatInvited:
		return nil
	default:
		return repository.ErrInvalidTransition
	}
}

func (st *memStore) InvitationByCode(ctx context.Context, code string) (*model.Invitation, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	inv, ok := st.invites[code]
	if !ok {
		return nil, repository.ErrInvitationNotFound
	}
	return copyInvitation(inv), nil
}

func (st *memStore) InvitationBySeat(ctx context.Context, seatID uint64) (*model.Invitation, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, inv := range st.invites {
		if inv.SeatID == seatID {
			return copyInvitation(inv), nil
		}
	}
	return nil, repository.ErrInvitationNotFound
}

func (st *memStore) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.invites[inv.Code]; ok {
		return repository.ErrDuplicateCode
	}
	for _, existing := range st.invites {
		if existing.SeatID == inv.SeatID {
			return repository.ErrConflict
		}
	}
	st.nextInvitationID++
	inv.ID = st.nextInvitationID
	st.invites[inv.Code] = copyInvitation(inv)
	return nil
}

func (st *memStore) RefreshInvitation(ctx context.Context, seatID uint64, code string, expiresAt time.Time) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if other, ok := st.invites[code]; ok && other.SeatID != seatID {
		return repository.ErrDuplicateCode
	}
	for old, inv := range st.invites {
		if inv.SeatID == seatID {
			delete(st.invites, old)
			inv.Code = code
			inv.ExpiresAt = expiresAt
			st.invites[code] = inv
			return nil
		}
	}
	return repository.ErrInvitationNotFound
}

func (st *memStore) FormBySeat(ctx context.Context, seatID uint64) (*model.IdentityForm, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	f, ok := st.forms[seatID]
	if !ok {
		return nil, repository.ErrFormNotFound
	}
	return copyForm(f), nil
}

func (st *memStore) CreateForm(ctx context.Context, f *model.IdentityForm) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.forms[f.SeatID]; ok {
		return repository.ErrConflict
	}
	st.forms[f.SeatID] = copyForm(f)
	return nil
}

func (st *memStore) UpdateForm(ctx context.Context, f *model.IdentityForm) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	existing, ok := st.forms[f.SeatID]
	if !ok {
		return repository.ErrFormNotFound
	}
	if existing.Status == model.FormConfirmed {
		return repository.ErrConflict
	}
	st.forms[f.SeatID] = copyForm(f)
	return nil
}

// Begin locks the store for the duration of the transaction, like a
// serializable SQL transaction would.
func (st *memStore) Begin(ctx context.Context) (repository.Tx, error) {
	st.mu.Lock()
	return &memTx{store: st}, nil
}

// memTx stages all writes and applies them atomically on Commit.
// Rollback discards them, so a claim that fails partway leaves the
// store exactly as it was.
type memTx struct {
	store *memStore
	done  bool

	stagedSeat      *model.Seat
	stagedInvite    *model.Invitation
	stagedForm      *model.IdentityForm
	stagedStudents  []*model.GlobalStudent
	stagedMappings  []*model.StudentMapping
	stagedGuardians []*model.GuardianRelationship
}

func (t *memTx) SeatByID(ctx context.Context, id uint64) (*model.Seat, error) {
	s, ok := t.store.seats[id]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	return copySeat(s), nil
}

func (t *memTx) LessonByID(ctx context.Context, id uint64) (*model.Lesson, error) {
	l, ok := t.store.lessons[id]
	if !ok {
		return nil, repository.ErrLessonNotFound
	}
	c := *l
	return &c, nil
}

func (t *memTx) FindGlobalStudentByContact(ctx context.Context, email, phone string) (*model.GlobalStudent, error) {
	for _, s := range t.store.students {
		if (email != "" && s.Email == email) || (phone != "" && s.Phone == phone) {
			return copyStudent(s), nil
		}
	}
	return nil, repository.ErrStudentNotFound
}

func (t *memTx) CreateGlobalStudent(ctx context.Context, s *model.GlobalStudent) error {
	t.store.nextStudentID++
	s.ID = t.store.nextStudentID
	t.stagedStudents = append(t.stagedStudents, copyStudent(s))
	return nil
}

func (t *memTx) CreateStudentMapping(ctx context.Context, m *model.StudentMapping) error {
	c := *m
	t.stagedMappings = append(t.stagedMappings, &c)
	return nil
}

func (t *memTx) ClaimSeat(ctx context.Context, seatID, expectedVersion uint64, mappingID string, at time.Time) error {
	if t.store.beforeClaimSeat != nil {
		t.store.beforeClaimSeat(t.store)
	}
	s, ok := t.store.seats[seatID]
	if !ok {
		return repository.ErrSeatNotFound
	}
	if s.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	staged := copySeat(s)
	staged.Status = model.SeatClaimed
	staged.ClaimedMappingID = &mappingID
	claimedAt := at
	staged.ClaimedAt = &claimedAt
	staged.Version++
	t.stagedSeat = staged
	return nil
}

func (t *memTx) MarkInvitationClaimed(ctx context.Context, code, mappingID string, at time.Time) error {
	inv, ok := t.store.invites[code]
	if !ok {
		return repository.ErrInvitationNotFound
	}
	if inv.ClaimedAt != nil {
		return repository.ErrConflict
	}
	staged := copyInvitation(inv)
	claimedAt := at
	staged.ClaimedAt = &claimedAt
	staged.ClaimedBy = &mappingID
	t.stagedInvite = staged
	return nil
}

func (t *memTx) ConfirmIdentityForm(ctx context.Context, f *model.IdentityForm) error {
	if _, ok := t.store.forms[f.SeatID]; !ok {
		return repository.ErrFormNotFound
	}
	t.stagedForm = copyForm(f)
	return nil
}

func (t *memTx) HasGuardianRelationship(ctx context.Context, guardianEmail string, studentID uint64) (bool, error) {
	_, ok := t.store.guardians[guardianKey(guardianEmail, studentID)]
	return ok, nil
}

func (t *memTx) CreateGuardianRelationship(ctx context.Context, g *model.GuardianRelationship) error {
	c := *g
	t.stagedGuardians = append(t.stagedGuardians, &c)
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	st := t.store
	for _, s := range t.stagedStudents {
		st.students[s.ID] = s
	}
	for _, m := range t.stagedMappings {
		st.mappings[m.ID] = m
	}
	if t.stagedSeat != nil {
		st.seats[t.stagedSeat.ID] = t.stagedSeat
	}
	if t.stagedInvite != nil {
		st.invites[t.stagedInvite.Code] = t.stagedInvite
	}
	if t.stagedForm != nil {
		st.forms[t.stagedForm.SeatID] = t.stagedForm
	}
	for _, g := range t.stagedGuardians {
		st.guardians[guardianKey(g.GuardianEmail, g.GlobalStudentID)] = g
	}
	st.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}
