package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

const foreignKeyViolation pq.ErrorCode = "23503"

// batchSize bounds the rows of a single multi-row INSERT (postgres caps bind parameters at 65535).
const batchSize = 1000

type demoRepository struct {
	db *sqlx.DB
}

var _ demo.Repository = (*demoRepository)(nil) // interface compliance check

func NewDemoRepository(db *sqlx.DB) demo.Repository {
	return &demoRepository{db: db}
}

// GetState never writes: a tenant without a row gets the default state.
func (repo *demoRepository) GetState(ctx context.Context, tenantID string) (demo.TenantDemoState, error) {
	var row stateRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+stateColumns+` FROM tenant_demo_states WHERE tenant_id = $1`, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return demo.TenantDemoState{TenantID: tenantID}, nil
	}
	if err != nil {
		return demo.TenantDemoState{}, errors.Wrap(err, "getting demo state")
	}
	return row.state(), nil
}

func (repo *demoRepository) SetDemoMode(ctx context.Context, tenantID string, enabled bool, now time.Time) (demo.TenantDemoState, error) {
	var row stateRow
	if err := repo.db.GetContext(ctx, &row,
		`INSERT INTO tenant_demo_states (tenant_id, demo_mode_enabled, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id) DO UPDATE SET demo_mode_enabled = EXCLUDED.demo_mode_enabled, updated_at = EXCLUDED.updated_at
		RETURNING `+stateColumns,
		tenantID, enabled, now.UTC(),
	); err != nil {
		return demo.TenantDemoState{}, errors.Wrap(err, "setting demo mode")
	}
	return row.state(), nil
}

// AcquireState is a single conditional upsert: the lease is taken only if it is free or stale.
func (repo *demoRepository) AcquireState(ctx context.Context, tenantID string, op demo.Operation, now, staleBefore time.Time) (demo.TenantDemoState, error) {
	var row stateRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO tenant_demo_states AS s (tenant_id, operation, operation_started_at, updated_at) VALUES ($1, $2, $3, $3)
		ON CONFLICT (tenant_id) DO UPDATE
		SET operation = EXCLUDED.operation, operation_started_at = EXCLUDED.operation_started_at, updated_at = EXCLUDED.updated_at
		WHERE s.operation = '' OR s.operation_started_at IS NULL OR s.operation_started_at < $4
		RETURNING `+stateColumns,
		tenantID, string(op), now.UTC(), staleBefore.UTC(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		held, getErr := repo.GetState(ctx, tenantID)
		if getErr != nil {
			return demo.TenantDemoState{}, getErr
		}
		return held, demo.ErrBusy
	}
	if err != nil {
		return demo.TenantDemoState{}, errors.Wrap(err, "acquiring demo lease")
	}
	return row.state(), nil
}

func (repo *demoRepository) ReleaseState(ctx context.Context, tenantID string, op demo.Operation, out demo.Outcome, now time.Time) (demo.TenantDemoState, error) {
	var row stateRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE tenant_demo_states SET
			demo_data_loaded = $3, demo_mode_enabled = demo_mode_enabled OR $4, needs_cleanup = $5,
			last_run_id = $6, last_seed = $7, operation = '', operation_started_at = NULL, updated_at = $8
		WHERE tenant_id = $1 AND operation = $2
		RETURNING `+stateColumns,
		tenantID, string(op), out.Loaded, out.EnableMode, out.NeedsCleanup, out.RunID, out.Seed, now.UTC(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return demo.TenantDemoState{}, demo.ErrLeaseLost
	}
	if err != nil {
		return demo.TenantDemoState{}, errors.Wrap(err, "releasing demo lease")
	}
	return row.state(), nil
}

func (repo *demoRepository) StudentIDs(ctx context.Context, tenantID string) ([]string, error) {
	var ids []string
	if err := repo.db.SelectContext(ctx, &ids,
		`SELECT student_id FROM students WHERE tenant_id = $1 ORDER BY student_id`, tenantID,
	); err != nil {
		return nil, errors.Wrap(err, "listing student ids")
	}
	return ids, nil
}

func (repo *demoRepository) InsertStudents(ctx context.Context, students []demo.Student) error {
	rows := make([]studentRow, 0, len(students))
	for _, st := range students {
		row, err := newStudentRow(st)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return insertBatches(ctx, repo.db, "students", studentColumns, len(rows), func(i, j int) interface{} { return rows[i:j] })
}

func (repo *demoRepository) InsertStaff(ctx context.Context, staff []user.User) error {
	rows := make([]userRow, 0, len(staff))
	for _, usr := range staff {
		rows = append(rows, newUserRow(usr))
	}
	return insertBatches(ctx, repo.db, "users", userColumns, len(rows), func(i, j int) interface{} { return rows[i:j] })
}

func (repo *demoRepository) InsertAttendance(ctx context.Context, marks []demo.AttendanceMark) error {
	rows := make([]markRow, 0, len(marks))
	for _, m := range marks {
		row, err := newMarkRow(m)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return insertBatches(ctx, repo.db, "attendance_marks", markColumns, len(rows), func(i, j int) interface{} { return rows[i:j] })
}

func (repo *demoRepository) InsertFees(ctx context.Context, fees []demo.FeeLine) error {
	rows := make([]feeRow, 0, len(fees))
	for _, f := range fees {
		rows = append(rows, newFeeRow(f))
	}
	return insertBatches(ctx, repo.db, "fee_lines", feeColumns, len(rows), func(i, j int) interface{} { return rows[i:j] })
}

func (repo *demoRepository) DeleteStudents(ctx context.Context, scope demo.Scope) (int64, error) {
	return repo.deleteScoped(ctx, "students", scope)
}

func (repo *demoRepository) DeleteStaff(ctx context.Context, scope demo.Scope) (int64, error) {
	return repo.deleteScoped(ctx, "users", scope)
}

func (repo *demoRepository) DeleteAttendance(ctx context.Context, scope demo.Scope) (int64, error) {
	return repo.deleteScoped(ctx, "attendance_marks", scope)
}

func (repo *demoRepository) DeleteFees(ctx context.Context, scope demo.Scope) (int64, error) {
	return repo.deleteScoped(ctx, "fee_lines", scope)
}

func (repo *demoRepository) deleteScoped(ctx context.Context, table string, scope demo.Scope) (int64, error) {
	where, args, err := scopeClause(table, scope, 1)
	if err != nil {
		return 0, err
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+where, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			// real rows pointing at demo rows are kept, the clear stops here
			return 0, errors.Wrapf(demo.ErrReferencedByReal, "deleting demo %s: %s (%s)", table, pqErr.Detail, pqErr.Constraint)
		}
		return 0, errors.Wrapf(err, "deleting demo %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrapf(err, "deleting demo %s", table)
	}
	return n, nil
}

func (repo *demoRepository) CountDemo(ctx context.Context, scope demo.Scope) (demo.Counts, error) {
	tables := []string{"students", "users", "attendance_marks", "fee_lines"}
	selects := make([]string, 0, len(tables))
	var args []interface{}
	for _, table := range tables {
		where, tArgs, err := scopeClause(table, scope, len(args)+1)
		if err != nil {
			return demo.Counts{}, err
		}
		selects = append(selects, fmt.Sprintf(`(SELECT COUNT(*) FROM %s WHERE %s)`, table, where))
		args = append(args, tArgs...)
	}

	var c struct {
		Persons    int `db:"persons"`
		Staff      int `db:"staff"`
		Attendance int `db:"attendance"`
		Fees       int `db:"fees"`
	}
	query := fmt.Sprintf(`SELECT %s AS persons, %s AS staff, %s AS attendance, %s AS fees`, selects[0], selects[1], selects[2], selects[3])
	if err := repo.db.GetContext(ctx, &c, query, args...); err != nil {
		return demo.Counts{}, errors.Wrap(err, "counting demo data")
	}
	return demo.Counts{Persons: c.Persons, Staff: c.Staff, Attendance: c.Attendance, Fees: c.Fees}, nil
}

// insertBatches writes n rows in one transaction, batchSize rows per statement.
// slice(i, j) returns the rows [i, j) as a slice of db-tagged structs.
func insertBatches(ctx context.Context, db *sqlx.DB, table, columns string, n int, slice func(i, j int) interface{}) error {
	if n == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, columns, namedValues(columns))

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "inserting %s", table)
	}
	for i := 0; i < n; i += batchSize {
		j := i + batchSize
		if j > n {
			j = n
		}
		if _, err = tx.NamedExecContext(ctx, query, slice(i, j)); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "inserting %s", table)
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "inserting %s", table)
	}
	return nil
}
