package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

var stateCols = []string{
	"tenant_id", "demo_mode_enabled", "demo_data_loaded", "operation", "operation_started_at",
	"needs_cleanup", "last_run_id", "last_seed", "updated_at",
}

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func mustScope(t *testing.T, tenantID string) demo.Scope {
	t.Helper()
	scope, err := demo.ScopeFor(tenantID)
	require.NoError(t, err)
	return scope
}

func TestScopeClause(t *testing.T) {
	_, _, err := scopeClause("students", demo.Scope{}, 1)
	assert.Equal(t, demo.ErrInvalidScope, err)

	where, args, err := scopeClause("students", mustScope(t, "T1"), 1)
	require.NoError(t, err)
	assert.Equal(t, `tenant_id = $1 AND is_demo_data = TRUE`, where)
	assert.Equal(t, []interface{}{"T1"}, args)

	where, args, err = scopeClause("users", mustScope(t, "T1"), 3)
	require.NoError(t, err)
	assert.Equal(t, `tenant_id = $3 AND is_demo_data = TRUE AND NOT (roles && $4)`, where)
	require.Len(t, args, 2)
	assert.ElementsMatch(t, user.ProtectedRoles, args[1])
}

func TestNamedValues(t *testing.T) {
	assert.Equal(t, ":a, :b, :c", namedValues("a, b,c"))
}

func TestDemoRepository_GetState(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tenant_demo_states WHERE tenant_id = $1`)).
		WithArgs("T1").
		WillReturnError(sql.ErrNoRows)

	st, err := repo.GetState(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, demo.TenantDemoState{TenantID: "T1"}, st)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoRepository_AcquireState(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	stale := now.Add(-10 * time.Minute)

	t.Run("free", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewDemoRepository(db)

		mock.ExpectQuery(`INSERT INTO tenant_demo_states AS s .* WHERE s.operation = ''`).
			WithArgs("T1", "load", now, stale).
			WillReturnRows(sqlmock.NewRows(stateCols).AddRow("T1", true, false, "load", now, false, "", 0, now))

		st, err := repo.AcquireState(context.Background(), "T1", demo.OpLoad, now, stale)
		require.NoError(t, err)
		assert.Equal(t, demo.OpLoad, st.Operation)
		assert.Equal(t, now, st.OperationStartedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("held", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewDemoRepository(db)

		mock.ExpectQuery(`INSERT INTO tenant_demo_states AS s`).
			WithArgs("T1", "clear", now, stale).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM tenant_demo_states WHERE tenant_id = $1`)).
			WithArgs("T1").
			WillReturnRows(sqlmock.NewRows(stateCols).AddRow("T1", true, false, "load", now, false, "", 0, now))

		st, err := repo.AcquireState(context.Background(), "T1", demo.OpClear, now, stale)
		assert.Equal(t, demo.ErrBusy, err)
		assert.Equal(t, demo.OpLoad, st.Operation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDemoRepository_ReleaseState(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	out := demo.Outcome{Loaded: true, EnableMode: true, RunID: "run-1", Seed: 42}

	t.Run("held", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewDemoRepository(db)

		mock.ExpectQuery(`UPDATE tenant_demo_states SET .* demo_mode_enabled = demo_mode_enabled OR \$4`).
			WithArgs("T1", "load", true, true, false, "run-1", int64(42), now).
			WillReturnRows(sqlmock.NewRows(stateCols).AddRow("T1", true, true, "", nil, false, "run-1", 42, now))

		st, err := repo.ReleaseState(context.Background(), "T1", demo.OpLoad, out, now)
		require.NoError(t, err)
		assert.True(t, st.DemoDataLoaded)
		assert.Empty(t, st.Operation)
		assert.True(t, st.OperationStartedAt.IsZero())
		assert.Equal(t, int64(42), st.LastSeed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewDemoRepository(db)

		mock.ExpectQuery(`UPDATE tenant_demo_states`).WillReturnError(sql.ErrNoRows)

		_, err := repo.ReleaseState(context.Background(), "T1", demo.OpLoad, out, now)
		assert.Equal(t, demo.ErrLeaseLost, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDemoRepository_Deletes(t *testing.T) {
	tests := []struct {
		name  string
		query string
		args  []driver.Value
		del   func(demo.Repository) func(context.Context, demo.Scope) (int64, error)
	}{
		{
			name:  "students",
			query: `DELETE FROM students WHERE tenant_id = $1 AND is_demo_data = TRUE`,
			args:  []driver.Value{"T1"},
			del:   func(r demo.Repository) func(context.Context, demo.Scope) (int64, error) { return r.DeleteStudents },
		},
		{
			name:  "staff",
			query: `DELETE FROM users WHERE tenant_id = $1 AND is_demo_data = TRUE AND NOT (roles && $2)`,
			args:  []driver.Value{"T1", sqlmock.AnyArg()},
			del:   func(r demo.Repository) func(context.Context, demo.Scope) (int64, error) { return r.DeleteStaff },
		},
		{
			name:  "attendance",
			query: `DELETE FROM attendance_marks WHERE tenant_id = $1 AND is_demo_data = TRUE`,
			args:  []driver.Value{"T1"},
			del:   func(r demo.Repository) func(context.Context, demo.Scope) (int64, error) { return r.DeleteAttendance },
		},
		{
			name:  "fees",
			query: `DELETE FROM fee_lines WHERE tenant_id = $1 AND is_demo_data = TRUE`,
			args:  []driver.Value{"T1"},
			del:   func(r demo.Repository) func(context.Context, demo.Scope) (int64, error) { return r.DeleteFees },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewDemoRepository(db)

			mock.ExpectExec(regexp.QuoteMeta(tt.query) + "$").
				WithArgs(tt.args...).
				WillReturnResult(sqlmock.NewResult(0, 7))

			n, err := tt.del(repo)(context.Background(), mustScope(t, "T1"))
			require.NoError(t, err)
			assert.Equal(t, int64(7), n)

			_, err = tt.del(repo)(context.Background(), demo.Scope{})
			assert.Equal(t, demo.ErrInvalidScope, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDemoRepository_DeleteReferencedByReal(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM students WHERE tenant_id = $1 AND is_demo_data = TRUE`)).
		WithArgs("T1").
		WillReturnError(&pq.Error{
			Code:       "23503",
			Constraint: "attendance_marks_tenant_id_student_id_fkey",
			Detail:     `Key (tenant_id, student_id)=(T1, NET0004) is still referenced from table "attendance_marks".`,
		})

	n, err := repo.DeleteStudents(context.Background(), mustScope(t, "T1"))
	require.Error(t, err)
	assert.Zero(t, n)
	assert.True(t, errors.Is(err, demo.ErrReferencedByReal))
	assert.Contains(t, err.Error(), "NET0004")
	assert.Contains(t, err.Error(), "attendance_marks_tenant_id_student_id_fkey")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoRepository_InsertFeesInBatches(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoRepository(db)

	paid := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	fees := make([]demo.FeeLine, 2500)
	for i := range fees {
		fees[i] = demo.FeeLine{
			StudentID: "NET0001", Month: "March", Year: 2024,
			Amount: 500, PaidAmount: 500, Status: demo.FeePaid, PaymentDate: &paid,
			TenantID: "T1", IsDemoData: true,
		}
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO fee_lines`).WillReturnResult(sqlmock.NewResult(0, 1000))
	mock.ExpectExec(`INSERT INTO fee_lines`).WillReturnResult(sqlmock.NewResult(0, 1000))
	mock.ExpectExec(`INSERT INTO fee_lines`).WillReturnResult(sqlmock.NewResult(0, 500))
	mock.ExpectCommit()

	require.NoError(t, repo.InsertFees(context.Background(), fees))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoRepository_InsertRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoRepository(db)

	students := []demo.Student{{
		StudentID: "NET0001", TenantID: "T1", IsDemoData: true, Status: demo.StudentActive,
		Name: demo.LocalizedValue{EN: "Zaid Khan", HI: "ज़ैद ख़ान", UR: "زید خان"},
	}}

	boom := errors.New("duplicate key value violates unique constraint")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO students \(tenant_id, student_id, name`).WillReturnError(boom)
	mock.ExpectRollback()

	err := repo.InsertStudents(context.Background(), students)
	assert.Equal(t, boom, errors.Cause(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoRepository_InsertEmpty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoRepository(db)

	require.NoError(t, repo.InsertAttendance(context.Background(), nil))
	require.NoError(t, repo.InsertStaff(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoRepository_CountDemo(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT (SELECT COUNT(*) FROM students WHERE tenant_id = $1 AND is_demo_data = TRUE) AS persons, (SELECT COUNT(*) FROM users WHERE tenant_id = $2 AND is_demo_data = TRUE AND NOT (roles && $3)) AS staff`)).
		WithArgs("T1", "T1", sqlmock.AnyArg(), "T1", "T1").
		WillReturnRows(sqlmock.NewRows([]string{"persons", "staff", "attendance", "fees"}).AddRow(80, 12, 3100, 480))

	c, err := repo.CountDemo(context.Background(), mustScope(t, "T1"))
	require.NoError(t, err)
	assert.Equal(t, demo.Counts{Persons: 80, Staff: 12, Attendance: 3100, Fees: 480}, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoRepository_StudentIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoRepository(db)

	mock.ExpectQuery(`SELECT student_id FROM students WHERE tenant_id = \$1`).
		WithArgs("T1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow("NET0001").AddRow("R-7"))

	ids, err := repo.StudentIDs(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, []string{"NET0001", "R-7"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
