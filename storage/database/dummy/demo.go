package dummydb

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

// ErrConflict mirrors a unique constraint violation.
var ErrConflict = errors.New("duplicate key")

type demoRepository struct {
	db    *demoTables
	users *userTable
}

var _ demo.Repository = (*demoRepository)(nil) // interface compliance check

func NewDemoRepository(db *DB) demo.Repository {
	return &demoRepository{db: db.demo, users: db.user}
}

// state expects the tables to be locked.
func (repo *demoRepository) state(tenantID string) *demo.TenantDemoState {
	st, ok := repo.db.states[tenantID]
	if !ok {
		st = &demo.TenantDemoState{TenantID: tenantID}
		repo.db.states[tenantID] = st
	}
	return st
}

func (repo *demoRepository) GetState(_ context.Context, tenantID string) (demo.TenantDemoState, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	return *repo.state(tenantID), nil
}

func (repo *demoRepository) SetDemoMode(_ context.Context, tenantID string, enabled bool, now time.Time) (demo.TenantDemoState, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	st := repo.state(tenantID)
	st.DemoModeEnabled = enabled
	st.UpdatedAt = now
	return *st, nil
}

func (repo *demoRepository) AcquireState(_ context.Context, tenantID string, op demo.Operation, now, staleBefore time.Time) (demo.TenantDemoState, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	st := repo.state(tenantID)
	if st.Leased(staleBefore) {
		return *st, demo.ErrBusy
	}
	st.Operation = op
	st.OperationStartedAt = now
	st.UpdatedAt = now
	return *st, nil
}

func (repo *demoRepository) ReleaseState(_ context.Context, tenantID string, op demo.Operation, out demo.Outcome, now time.Time) (demo.TenantDemoState, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	st := repo.state(tenantID)
	if st.Operation != op {
		return *st, demo.ErrLeaseLost
	}
	st.DemoDataLoaded = out.Loaded
	st.DemoModeEnabled = st.DemoModeEnabled || out.EnableMode
	st.NeedsCleanup = out.NeedsCleanup
	st.LastRunID = out.RunID
	st.LastSeed = out.Seed
	st.Operation = ""
	st.OperationStartedAt = time.Time{}
	st.UpdatedAt = now
	return *st, nil
}

func (repo *demoRepository) StudentIDs(_ context.Context, tenantID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids []string
	for _, st := range repo.db.students {
		if st.TenantID == tenantID {
			ids = append(ids, st.StudentID)
		}
	}
	return ids, nil
}

// Inserts are all-or-nothing, like a single multi-row INSERT.

func (repo *demoRepository) InsertStudents(_ context.Context, students []demo.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	keys := make(map[string]struct{}, len(repo.db.students)+len(students))
	for _, st := range repo.db.students {
		keys[st.TenantID+"/"+st.StudentID] = struct{}{}
	}
	for _, st := range students {
		k := st.TenantID + "/" + st.StudentID
		if _, dup := keys[k]; dup {
			return errors.Wrapf(ErrConflict, "student %s", k)
		}
		keys[k] = struct{}{}
	}
	repo.db.students = append(repo.db.students, students...)
	return nil
}

func (repo *demoRepository) InsertStaff(_ context.Context, staff []user.User) error {
	repo.users.Lock()
	defer repo.users.Unlock()

	for i, usr := range staff {
		if err := checkUniqueness(repo.users.table, usr.Username, usr.Email); err != nil {
			return errors.Wrapf(err, "staff %s", usr.Username)
		}
		for _, other := range staff[:i] {
			if other.Username == usr.Username || other.Email == usr.Email || other.ID == usr.ID {
				return errors.Wrapf(ErrConflict, "staff %s", usr.Username)
			}
		}
		if _, exists := repo.users.table[usr.ID]; exists {
			return errors.Wrapf(ErrConflict, "staff %s", usr.ID)
		}
	}
	for _, usr := range staff {
		usr := usr
		repo.users.table[usr.ID] = &usr
	}
	return nil
}

func (repo *demoRepository) InsertAttendance(_ context.Context, marks []demo.AttendanceMark) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	keys := make(map[string]struct{}, len(repo.db.attendance)+len(marks))
	for _, m := range repo.db.attendance {
		keys[markKey(m)] = struct{}{}
	}
	for _, m := range marks {
		k := markKey(m)
		if _, dup := keys[k]; dup {
			return errors.Wrapf(ErrConflict, "attendance %s", k)
		}
		keys[k] = struct{}{}
	}
	repo.db.attendance = append(repo.db.attendance, marks...)
	return nil
}

func (repo *demoRepository) InsertFees(_ context.Context, fees []demo.FeeLine) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	keys := make(map[string]struct{}, len(repo.db.fees)+len(fees))
	for _, f := range repo.db.fees {
		keys[feeKey(f)] = struct{}{}
	}
	for _, f := range fees {
		if !f.Consistent() {
			return errors.Wrapf(demo.ErrFeeInvariant, "fee %s", feeKey(f))
		}
		k := feeKey(f)
		if _, dup := keys[k]; dup {
			return errors.Wrapf(ErrConflict, "fee %s", k)
		}
		keys[k] = struct{}{}
	}
	repo.db.fees = append(repo.db.fees, fees...)
	return nil
}

func (repo *demoRepository) DeleteStudents(_ context.Context, scope demo.Scope) (int64, error) {
	if !scope.Valid() {
		return 0, demo.ErrInvalidScope
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int64
	kept := repo.db.students[:0]
	for _, st := range repo.db.students {
		if scope.Matches(st.TenantID, st.IsDemoData) {
			n++
			continue
		}
		kept = append(kept, st)
	}
	repo.db.students = kept
	return n, nil
}

func (repo *demoRepository) DeleteStaff(_ context.Context, scope demo.Scope) (int64, error) {
	if !scope.Valid() {
		return 0, demo.ErrInvalidScope
	}
	repo.users.Lock()
	defer repo.users.Unlock()

	var n int64
	for id, usr := range repo.users.table {
		if scope.MatchesStaff(*usr) {
			delete(repo.users.table, id)
			n++
		}
	}
	return n, nil
}

func (repo *demoRepository) DeleteAttendance(_ context.Context, scope demo.Scope) (int64, error) {
	if !scope.Valid() {
		return 0, demo.ErrInvalidScope
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int64
	kept := repo.db.attendance[:0]
	for _, m := range repo.db.attendance {
		if scope.Matches(m.TenantID, m.IsDemoData) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	repo.db.attendance = kept
	return n, nil
}

func (repo *demoRepository) DeleteFees(_ context.Context, scope demo.Scope) (int64, error) {
	if !scope.Valid() {
		return 0, demo.ErrInvalidScope
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int64
	kept := repo.db.fees[:0]
	for _, f := range repo.db.fees {
		if scope.Matches(f.TenantID, f.IsDemoData) {
			n++
			continue
		}
		kept = append(kept, f)
	}
	repo.db.fees = kept
	return n, nil
}

func (repo *demoRepository) CountDemo(_ context.Context, scope demo.Scope) (demo.Counts, error) {
	if !scope.Valid() {
		return demo.Counts{}, demo.ErrInvalidScope
	}
	var c demo.Counts

	repo.db.RLock()
	for _, st := range repo.db.students {
		if scope.Matches(st.TenantID, st.IsDemoData) {
			c.Persons++
		}
	}
	for _, m := range repo.db.attendance {
		if scope.Matches(m.TenantID, m.IsDemoData) {
			c.Attendance++
		}
	}
	for _, f := range repo.db.fees {
		if scope.Matches(f.TenantID, f.IsDemoData) {
			c.Fees++
		}
	}
	repo.db.RUnlock()

	repo.users.RLock()
	for _, usr := range repo.users.table {
		if scope.MatchesStaff(*usr) {
			c.Staff++
		}
	}
	repo.users.RUnlock()
	return c, nil
}

// Snapshots of the demo tables, for inspection.

func (db *DB) Students() []demo.Student {
	db.demo.RLock()
	defer db.demo.RUnlock()
	return append([]demo.Student(nil), db.demo.students...)
}

func (db *DB) Attendance() []demo.AttendanceMark {
	db.demo.RLock()
	defer db.demo.RUnlock()
	return append([]demo.AttendanceMark(nil), db.demo.attendance...)
}

func (db *DB) Fees() []demo.FeeLine {
	db.demo.RLock()
	defer db.demo.RUnlock()
	return append([]demo.FeeLine(nil), db.demo.fees...)
}

func (db *DB) Users() []user.User {
	db.user.RLock()
	defer db.user.RUnlock()
	users := make([]user.User, 0, len(db.user.table))
	for _, usr := range db.user.table {
		users = append(users, *usr)
	}
	return users
}

func markKey(m demo.AttendanceMark) string {
	return m.TenantID + "/" + m.StudentID + "/" + m.Date
}

func feeKey(f demo.FeeLine) string {
	return fmt.Sprintf("%s/%s/%s/%d", f.TenantID, f.StudentID, f.Month, f.Year)
}
