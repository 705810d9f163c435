package sqlxrepos

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

const (
	userColumns    = `id, tenant_id, name, username, email, is_active, roles, password_hash, is_demo_data, created_at, updated_at`
	stateColumns   = `tenant_id, demo_mode_enabled, demo_data_loaded, operation, operation_started_at, needs_cleanup, last_run_id, last_seed, updated_at`
	studentColumns = `tenant_id, student_id, name, father_name, mother_name, class, section, date_of_birth, address, phone, admission_date, status, is_demo_data, created_at`
	markColumns    = `tenant_id, student_id, date, status, remark, is_demo_data`
	feeColumns     = `tenant_id, student_id, month, year, amount, paid_amount, due_amount, status, payment_date, is_demo_data`
)

type userRow struct {
	ID           string         `db:"id"`
	TenantID     string         `db:"tenant_id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	IsDemoData   bool           `db:"is_demo_data"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func newUserRow(usr user.User) userRow {
	roles := pq.StringArray(usr.Roles)
	if roles == nil {
		roles = pq.StringArray{}
	}
	return userRow{
		ID:           usr.ID,
		TenantID:     usr.TenantID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        roles,
		PasswordHash: usr.PasswordHash,
		IsDemoData:   usr.IsDemoData,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
}

func (r userRow) user() user.User {
	return user.User{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     r.IsActive,
		Roles:        []string(r.Roles),
		PasswordHash: r.PasswordHash,
		IsDemoData:   r.IsDemoData,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type stateRow struct {
	TenantID           string    `db:"tenant_id"`
	DemoModeEnabled    bool      `db:"demo_mode_enabled"`
	DemoDataLoaded     bool      `db:"demo_data_loaded"`
	Operation          string    `db:"operation"`
	OperationStartedAt null.Time `db:"operation_started_at"`
	NeedsCleanup       bool      `db:"needs_cleanup"`
	LastRunID          string    `db:"last_run_id"`
	LastSeed           int64     `db:"last_seed"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r stateRow) state() demo.TenantDemoState {
	st := demo.TenantDemoState{
		TenantID:        r.TenantID,
		DemoModeEnabled: r.DemoModeEnabled,
		DemoDataLoaded:  r.DemoDataLoaded,
		Operation:       demo.Operation(r.Operation),
		NeedsCleanup:    r.NeedsCleanup,
		LastRunID:       r.LastRunID,
		LastSeed:        r.LastSeed,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.OperationStartedAt.Valid {
		st.OperationStartedAt = r.OperationStartedAt.Time
	}
	return st
}

type studentRow struct {
	TenantID      string         `db:"tenant_id"`
	StudentID     string         `db:"student_id"`
	Name          types.JSONText `db:"name"`
	FatherName    types.JSONText `db:"father_name"`
	MotherName    types.JSONText `db:"mother_name"`
	Class         string         `db:"class"`
	Section       string         `db:"section"`
	DateOfBirth   time.Time      `db:"date_of_birth"`
	Address       types.JSONText `db:"address"`
	Phone         string         `db:"phone"`
	AdmissionDate time.Time      `db:"admission_date"`
	Status        string         `db:"status"`
	IsDemoData    bool           `db:"is_demo_data"`
	CreatedAt     time.Time      `db:"created_at"`
}

func newStudentRow(st demo.Student) (studentRow, error) {
	row := studentRow{
		TenantID:      st.TenantID,
		StudentID:     st.StudentID,
		Class:         st.Class,
		Section:       st.Section,
		DateOfBirth:   st.DateOfBirth,
		Phone:         st.Phone,
		AdmissionDate: st.AdmissionDate,
		Status:        string(st.Status),
		IsDemoData:    st.IsDemoData,
		CreatedAt:     st.CreatedAt.UTC(),
	}
	var err error
	for _, f := range []struct {
		dst *types.JSONText
		val demo.LocalizedValue
	}{
		{&row.Name, st.Name},
		{&row.FatherName, st.FatherName},
		{&row.MotherName, st.MotherName},
		{&row.Address, st.Address},
	} {
		if *f.dst, err = json.Marshal(f.val); err != nil {
			return studentRow{}, errors.Wrapf(err, "encoding student %s", st.StudentID)
		}
	}
	return row, nil
}

type markRow struct {
	TenantID   string    `db:"tenant_id"`
	StudentID  string    `db:"student_id"`
	Date       string    `db:"date"`
	Status     string    `db:"status"`
	Remark     null.JSON `db:"remark"`
	IsDemoData bool      `db:"is_demo_data"`
}

func newMarkRow(m demo.AttendanceMark) (markRow, error) {
	row := markRow{
		TenantID:   m.TenantID,
		StudentID:  m.StudentID,
		Date:       m.Date,
		Status:     string(m.Status),
		IsDemoData: m.IsDemoData,
	}
	if m.Remark != nil {
		b, err := json.Marshal(m.Remark)
		if err != nil {
			return markRow{}, errors.Wrapf(err, "encoding remark of %s %s", m.StudentID, m.Date)
		}
		row.Remark = null.JSONFrom(b)
	}
	return row, nil
}

type feeRow struct {
	TenantID    string    `db:"tenant_id"`
	StudentID   string    `db:"student_id"`
	Month       string    `db:"month"`
	Year        int       `db:"year"`
	Amount      int64     `db:"amount"`
	PaidAmount  int64     `db:"paid_amount"`
	DueAmount   int64     `db:"due_amount"`
	Status      string    `db:"status"`
	PaymentDate null.Time `db:"payment_date"`
	IsDemoData  bool      `db:"is_demo_data"`
}

func newFeeRow(f demo.FeeLine) feeRow {
	return feeRow{
		TenantID:    f.TenantID,
		StudentID:   f.StudentID,
		Month:       f.Month,
		Year:        f.Year,
		Amount:      f.Amount,
		PaidAmount:  f.PaidAmount,
		DueAmount:   f.DueAmount,
		Status:      string(f.Status),
		PaymentDate: null.TimeFromPtr(f.PaymentDate),
		IsDemoData:  f.IsDemoData,
	}
}
