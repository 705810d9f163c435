package dummydb

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

func newRepos(t *testing.T) (*DB, demo.Repository, user.Repository) {
	t.Helper()
	db, err := Open()
	require.NoError(t, err)
	return db, NewDemoRepository(db), NewUserRepository(db)
}

func TestDemoRepository_Lease(t *testing.T) {
	_, repo, _ := newRepos(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	st, err := repo.AcquireState(ctx, "T1", demo.OpLoad, now, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, demo.OpLoad, st.Operation)

	st, err = repo.AcquireState(ctx, "T1", demo.OpClear, now.Add(time.Second), now.Add(-time.Minute))
	assert.Equal(t, demo.ErrBusy, err)
	assert.Equal(t, demo.OpLoad, st.Operation)

	_, err = repo.ReleaseState(ctx, "T1", demo.OpClear, demo.Outcome{}, now)
	assert.Equal(t, demo.ErrLeaseLost, err)

	st, err = repo.ReleaseState(ctx, "T1", demo.OpLoad, demo.Outcome{Loaded: true, EnableMode: true, RunID: "run-1", Seed: 42}, now)
	require.NoError(t, err)
	assert.Empty(t, st.Operation)
	assert.True(t, st.OperationStartedAt.IsZero())
	assert.True(t, st.DemoDataLoaded)
	assert.True(t, st.DemoModeEnabled)
	assert.Equal(t, "run-1", st.LastRunID)
	assert.Equal(t, int64(42), st.LastSeed)

	// stale leases are taken over
	_, err = repo.AcquireState(ctx, "T1", demo.OpReset, now, now.Add(-time.Minute))
	require.NoError(t, err)
	st, err = repo.AcquireState(ctx, "T1", demo.OpClear, now.Add(time.Hour), now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, demo.OpClear, st.Operation)
}

func TestDemoRepository_ReleaseNeverDisables(t *testing.T) {
	_, repo, _ := newRepos(t)
	ctx := context.Background()
	now := time.Now()

	_, err := repo.SetDemoMode(ctx, "T1", true, now)
	require.NoError(t, err)
	_, err = repo.AcquireState(ctx, "T1", demo.OpClear, now, now.Add(-time.Minute))
	require.NoError(t, err)
	st, err := repo.ReleaseState(ctx, "T1", demo.OpClear, demo.Outcome{}, now)
	require.NoError(t, err)
	assert.True(t, st.DemoModeEnabled)
}

func TestDemoRepository_ScopedDeletes(t *testing.T) {
	db, repo, users := newRepos(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertStudents(ctx, []demo.Student{
		{StudentID: "S1", TenantID: "T1", IsDemoData: true},
		{StudentID: "S2", TenantID: "T1"},
		{StudentID: "S1", TenantID: "T2", IsDemoData: true},
	}))
	require.NoError(t, repo.InsertAttendance(ctx, []demo.AttendanceMark{
		{StudentID: "S1", Date: "2024-03-01", Status: demo.Present, TenantID: "T1", IsDemoData: true},
		{StudentID: "S2", Date: "2024-03-01", Status: demo.Present, TenantID: "T1"},
	}))
	require.NoError(t, repo.InsertFees(ctx, []demo.FeeLine{
		{StudentID: "S1", Month: "March", Year: 2024, Amount: 500, DueAmount: 500, Status: demo.FeePending, TenantID: "T1", IsDemoData: true},
		{StudentID: "S1", Month: "March", Year: 2024, Amount: 500, DueAmount: 500, Status: demo.FeePending, TenantID: "T2", IsDemoData: true},
	}))
	require.NoError(t, repo.InsertStaff(ctx, []user.User{
		{ID: "u1", Username: "demo_t1_teacher01", Email: "t1@demo.test", TenantID: "T1", IsDemoData: true, Roles: []string{user.RoleTeacher}},
		{ID: "u2", Username: "demo_owner", Email: "owner@demo.test", TenantID: "T1", IsDemoData: true, Roles: []string{user.RoleAdminOwner}},
	}))
	_, err := users.CreateUser(ctx, user.User{Username: "real", Email: "real@school.test", TenantID: "T1", Roles: []string{user.RoleTeacher}})
	require.NoError(t, err)

	scope, err := demo.ScopeFor("T1")
	require.NoError(t, err)

	counts, err := repo.CountDemo(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, demo.Counts{Persons: 1, Staff: 1, Attendance: 1, Fees: 1}, counts)

	n, err := repo.DeleteFees(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.DeleteAttendance(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.DeleteStudents(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.DeleteStaff(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Len(t, db.Students(), 2)
	assert.Len(t, db.Attendance(), 1)
	assert.Len(t, db.Fees(), 1)
	assert.Len(t, db.Users(), 2)

	ids, err := repo.StudentIDs(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, []string{"S2"}, ids)
}

func TestDemoRepository_ZeroScope(t *testing.T) {
	_, repo, _ := newRepos(t)
	ctx := context.Background()

	_, err := repo.DeleteStudents(ctx, demo.Scope{})
	assert.Equal(t, demo.ErrInvalidScope, err)
	_, err = repo.DeleteStaff(ctx, demo.Scope{})
	assert.Equal(t, demo.ErrInvalidScope, err)
	_, err = repo.CountDemo(ctx, demo.Scope{})
	assert.Equal(t, demo.ErrInvalidScope, err)
}

func TestDemoRepository_InsertConflicts(t *testing.T) {
	_, repo, users := newRepos(t)
	ctx := context.Background()

	err := repo.InsertStudents(ctx, []demo.Student{{StudentID: "S1", TenantID: "T1"}, {StudentID: "S1", TenantID: "T1"}})
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = users.CreateUser(ctx, user.User{Username: "taken", Email: "taken@school.test"})
	require.NoError(t, err)
	err = repo.InsertStaff(ctx, []user.User{{ID: "x", Username: "taken", Email: "other@school.test"}})
	assert.True(t, errors.Is(err, user.ErrUsernameExists))

	err = repo.InsertFees(ctx, []demo.FeeLine{{StudentID: "S1", Month: "March", Year: 2024, Amount: 500, PaidAmount: 100, Status: demo.FeePending}})
	assert.True(t, errors.Is(err, demo.ErrFeeInvariant))
}

func TestUserRepository(t *testing.T) {
	_, _, users := newRepos(t)
	ctx := context.Background()

	usr, err := users.CreateUser(ctx, user.User{TenantID: "T1", Username: "zaid", Email: "zaid@school.test"})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)

	assert.Equal(t, user.ErrUsernameExists, users.CheckUsernameUniqueness(ctx, "zaid", "x@school.test"))
	assert.Equal(t, user.ErrEmailExists, users.CheckUsernameUniqueness(ctx, "other", "zaid@school.test"))
	assert.NoError(t, users.CheckUsernameUniqueness(ctx, "zaid", "zaid@school.test", usr))

	got, err := users.GetUser(ctx, user.GetFilter{UsernameOrEmail: "zaid@school.test"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = users.GetUser(ctx, user.GetFilter{ID: "missing"})
	assert.Equal(t, user.ErrNotFound, err)

	got.Name = "Zaid Khan"
	got, err = users.UpdateUser(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Zaid Khan", got.Name)

	tenantUsers, err := users.QueryTenantUsers(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, tenantUsers, 1)
}
