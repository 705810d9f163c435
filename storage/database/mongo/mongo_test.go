package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

func TestScopeFilter(t *testing.T) {
	scope, err := demo.ScopeFor("T1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		collection string
		scope      demo.Scope
		want       bson.M
		wantErr    error
	}{
		{
			name:       "students",
			collection: studentsCollection,
			scope:      scope,
			want:       bson.M{"tenant_id": "T1", "is_demo_data": true},
		},
		{
			name:       "users skip protected roles",
			collection: usersCollection,
			scope:      scope,
			want:       bson.M{"tenant_id": "T1", "is_demo_data": true, "roles": bson.M{"$nin": user.ProtectedRoles}},
		},
		{
			name:       "zero scope",
			collection: feesCollection,
			wantErr:    demo.ErrInvalidScope,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scopeFilter(tt.collection, tt.scope)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUniquenessFilter(t *testing.T) {
	_, ok := uniquenessFilter("", "")
	assert.False(t, ok)

	filter, ok := uniquenessFilter("zaid", "", user.User{ID: "u1"})
	require.True(t, ok)
	assert.Equal(t, bson.M{
		"$or": bson.A{bson.M{"username": "zaid"}},
		"_id": bson.M{"$nin": []string{"u1"}},
	}, filter)
}

func TestUserDoc(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	usr := user.User{ID: "u1", TenantID: "T1", Username: "zaid", IsDemoData: true, CreatedAt: now, UpdatedAt: now}

	doc := newUserDoc(usr)
	assert.Equal(t, []string{}, doc.Roles)

	usr.Roles = []string{}
	assert.Equal(t, usr, doc.user())
}

func TestDefaultState(t *testing.T) {
	doc := defaultState("T1", "demo_mode_enabled", "updated_at")
	assert.Equal(t, "T1", doc["tenant_id"])
	assert.NotContains(t, doc, "demo_mode_enabled")
	assert.NotContains(t, doc, "updated_at")
	assert.Contains(t, doc, "operation")
}

// The repository tests below need a running deployment: MONGO_TEST_URI=mongodb://localhost:27017
func setupMongo(t *testing.T) (demo.Repository, user.Repository) {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is not set")
	}

	ctx := context.Background()
	conf := &core.Config{Mongo: core.MongoConfig{URI: uri, Database: "madarcrm_test_" + uuid.New().String()[:8]}}
	db, closeFn, err := Open(ctx, conf)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		closeFn()
	})
	require.NoError(t, EnsureIndexes(ctx, db))

	return NewDemoRepository(db), NewUserRepository(db)
}

func TestDemoRepository_Lease(t *testing.T) {
	repo, _ := setupMongo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	st, err := repo.GetState(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, demo.TenantDemoState{TenantID: "T1"}, st)

	st, err = repo.AcquireState(ctx, "T1", demo.OpLoad, now, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, demo.OpLoad, st.Operation)

	held, err := repo.AcquireState(ctx, "T1", demo.OpClear, now, now.Add(-time.Minute))
	assert.Equal(t, demo.ErrBusy, err)
	assert.Equal(t, demo.OpLoad, held.Operation)

	_, err = repo.ReleaseState(ctx, "T1", demo.OpClear, demo.Outcome{}, now)
	assert.Equal(t, demo.ErrLeaseLost, err)

	st, err = repo.ReleaseState(ctx, "T1", demo.OpLoad, demo.Outcome{Loaded: true, EnableMode: true, RunID: "r1", Seed: 7}, now)
	require.NoError(t, err)
	assert.True(t, st.DemoModeEnabled)
	assert.True(t, st.DemoDataLoaded)
	assert.Empty(t, st.Operation)
	assert.True(t, st.OperationStartedAt.IsZero())

	// stale leases are taken over
	_, err = repo.AcquireState(ctx, "T1", demo.OpReset, now, now.Add(-time.Minute))
	require.NoError(t, err)
	later := now.Add(time.Hour)
	st, err = repo.AcquireState(ctx, "T1", demo.OpClear, later, later.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, demo.OpClear, st.Operation)
}

func TestDemoRepository_ScopedDelete(t *testing.T) {
	repo, users := setupMongo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	students := []demo.Student{
		{TenantID: "T1", StudentID: "NET0001", IsDemoData: true, CreatedAt: now},
		{TenantID: "T1", StudentID: "REAL001", CreatedAt: now},
		{TenantID: "T2", StudentID: "NET0001", IsDemoData: true, CreatedAt: now},
	}
	require.NoError(t, repo.InsertStudents(ctx, students))
	require.NoError(t, repo.InsertStaff(ctx, []user.User{
		{ID: "s1", TenantID: "T1", Username: "demo1", IsDemoData: true, Roles: []string{user.RoleTeacher}},
		{ID: "s2", TenantID: "T1", Username: "owner", IsDemoData: true, Roles: []string{user.RoleAdminOwner}},
	}))

	ids, err := repo.StudentIDs(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, []string{"NET0001", "REAL001"}, ids)

	scope, err := demo.ScopeFor("T1")
	require.NoError(t, err)

	counts, err := repo.CountDemo(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, demo.Counts{Persons: 1, Staff: 1}, counts)

	n, err := repo.DeleteStudents(ctx, scope)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = repo.DeleteStaff(ctx, scope)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = users.GetUser(ctx, user.GetFilter{ID: "s2"})
	assert.NoError(t, err)
	ids, err = repo.StudentIDs(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, []string{"NET0001"}, ids)

	_, err = repo.DeleteFees(ctx, demo.Scope{})
	assert.Equal(t, demo.ErrInvalidScope, err)
}

func TestUserRepository(t *testing.T) {
	_, repo := setupMongo(t)
	ctx := context.Background()

	usr, err := repo.CreateUser(ctx, user.User{TenantID: "T1", Username: "zaid", Email: "zaid@school.test"})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)

	assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "zaid", ""))
	assert.Equal(t, user.ErrEmailExists, repo.CheckUsernameUniqueness(ctx, "other", "zaid@school.test"))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "zaid", "zaid@school.test", usr))

	got, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "zaid@school.test"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	got.Name = "Zaid Khan"
	got, err = repo.UpdateUser(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Zaid Khan", got.Name)

	list, err := repo.QueryTenantUsers(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
