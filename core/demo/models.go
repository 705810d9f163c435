package demo

import (
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrBusy              = errors.New("another demo operation is running for this tenant")
	ErrLeaseLost         = errors.New("demo operation lease was lost")
	ErrInvalidScope      = errors.New("demo scope requires a tenant id")
	ErrImpossibleDate    = errors.New("impossible calendar date")
	ErrPoolExhausted     = errors.New("value pool exhausted")
	ErrDanglingReference = errors.New("record references a person outside the run")
	ErrDuplicateMark     = errors.New("duplicate attendance mark")
	ErrFeeInvariant      = errors.New("inconsistent fee line")
	ErrUntagged          = errors.New("record is not tagged for the run scope")
	ErrReferencedByReal  = errors.New("demo records are referenced by real records")
)

// DateLayout is the layout of calendar dates (attendance dates).
const DateLayout = "2006-01-02"

type Operation string

const (
	OpStatus  Operation = "status"
	OpEnable  Operation = "enable"
	OpDisable Operation = "disable"
	OpLoad    Operation = "load"
	OpReset   Operation = "reset"
	OpClear   Operation = "clear"
)

// Status is the outcome of a lifecycle operation.
type Status string

const (
	StatusOK    Status = "ok"
	StatusBusy  Status = "busy"
	StatusNoop  Status = "no-op"
	StatusError Status = "error"
)

type (
	StudentStatus    string
	AttendanceStatus string
	FeeStatus        string
)

const (
	StudentActive   StudentStatus = "Active"
	StudentInactive StudentStatus = "Inactive"

	Present AttendanceStatus = "Present"
	Absent  AttendanceStatus = "Absent"

	FeePaid    FeeStatus = "paid"
	FeePending FeeStatus = "pending"
)

// LocalizedValue holds the same text in every dashboard locale.
type LocalizedValue struct {
	EN string `json:"en" bson:"en"`
	HI string `json:"hi" bson:"hi"`
	UR string `json:"ur" bson:"ur"`
}

func (v LocalizedValue) Get(locale string) string {
	switch locale {
	case "hi":
		return v.HI
	case "ur":
		return v.UR
	default:
		return v.EN
	}
}

func (v LocalizedValue) Complete() bool {
	return v.EN != "" && v.HI != "" && v.UR != ""
}

type Student struct {
	StudentID     string         `json:"student_id"`
	Name          LocalizedValue `json:"name"`
	FatherName    LocalizedValue `json:"father_name"`
	MotherName    LocalizedValue `json:"mother_name"`
	Class         string         `json:"class"`
	Section       string         `json:"section"`
	DateOfBirth   time.Time      `json:"date_of_birth"`
	Address       LocalizedValue `json:"address"`
	Phone         string         `json:"phone"`
	AdmissionDate time.Time      `json:"admission_date"`
	Status        StudentStatus  `json:"status"`
	TenantID      string         `json:"tenant_id"`
	IsDemoData    bool           `json:"is_demo_data"`
	CreatedAt     time.Time      `json:"created_at"`
}

type AttendanceMark struct {
	StudentID  string           `json:"student_id"`
	Date       string           `json:"date"` // YYYY-MM-DD
	Status     AttendanceStatus `json:"status"`
	Remark     *LocalizedValue  `json:"remark,omitempty"`
	TenantID   string           `json:"tenant_id"`
	IsDemoData bool             `json:"is_demo_data"`
}

type FeeLine struct {
	StudentID   string     `json:"student_id"`
	Month       string     `json:"month"`
	Year        int        `json:"year"`
	Amount      int64      `json:"amount"`
	PaidAmount  int64      `json:"paid_amount"`
	DueAmount   int64      `json:"due_amount"`
	Status      FeeStatus  `json:"status"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	TenantID    string     `json:"tenant_id"`
	IsDemoData  bool       `json:"is_demo_data"`
}

// Consistent reports whether the amounts, status and payment date agree.
func (f FeeLine) Consistent() bool {
	return f.Amount > 0 &&
		f.PaidAmount >= 0 && f.DueAmount >= 0 &&
		f.PaidAmount+f.DueAmount == f.Amount &&
		(f.Status == FeePaid) == (f.DueAmount == 0) &&
		(f.PaymentDate != nil) == (f.Status == FeePaid)
}

// TenantDemoState is the per-tenant lifecycle record. Operation holds the single writer lease.
type TenantDemoState struct {
	TenantID           string    `json:"tenant_id"`
	DemoModeEnabled    bool      `json:"demo_mode_enabled"`
	DemoDataLoaded     bool      `json:"demo_data_loaded"`
	Operation          Operation `json:"operation,omitempty"`
	OperationStartedAt time.Time `json:"operation_started_at"`
	NeedsCleanup       bool      `json:"needs_cleanup"`
	LastRunID          string    `json:"last_run_id,omitempty"`
	LastSeed           int64     `json:"last_seed,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Leased reports whether a live operation holds the tenant. Leases started before staleBefore are abandoned.
func (s TenantDemoState) Leased(staleBefore time.Time) bool {
	return s.Operation != "" && !s.OperationStartedAt.Before(staleBefore)
}

// Phase names the lifecycle state for display.
func (s TenantDemoState) Phase() string {
	switch {
	case s.DemoModeEnabled && s.DemoDataLoaded:
		return "enabled-loaded"
	case s.DemoModeEnabled:
		return "enabled-empty"
	case s.DemoDataLoaded:
		return "disabled-loaded"
	default:
		return "off"
	}
}

// Outcome is what a finished operation writes back when releasing its lease.
type Outcome struct {
	Loaded       bool
	EnableMode   bool // only ever switches demo mode on
	NeedsCleanup bool
	RunID        string
	Seed         int64
}

type Counts struct {
	Persons    int `json:"persons"`
	Staff      int `json:"staff"`
	Attendance int `json:"attendance"`
	Fees       int `json:"fees"`
}

func (c Counts) Total() int {
	return c.Persons + c.Staff + c.Attendance + c.Fees
}

// Result is returned by every Controller operation.
type Result struct {
	Operation Operation       `json:"operation"`
	TenantID  string          `json:"tenant_id"`
	Status    Status          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Counts    Counts          `json:"counts"`
	State     TenantDemoState `json:"state"`
	Duration  time.Duration   `json:"-"`
}
