package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

type stateDoc struct {
	TenantID           string    `bson:"tenant_id"`
	DemoModeEnabled    bool      `bson:"demo_mode_enabled"`
	DemoDataLoaded     bool      `bson:"demo_data_loaded"`
	Operation          string    `bson:"operation"`
	OperationStartedAt time.Time `bson:"operation_started_at,omitempty"`
	NeedsCleanup       bool      `bson:"needs_cleanup"`
	LastRunID          string    `bson:"last_run_id"`
	LastSeed           int64     `bson:"last_seed"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func (d stateDoc) state() demo.TenantDemoState {
	return demo.TenantDemoState{
		TenantID:           d.TenantID,
		DemoModeEnabled:    d.DemoModeEnabled,
		DemoDataLoaded:     d.DemoDataLoaded,
		Operation:          demo.Operation(d.Operation),
		OperationStartedAt: d.OperationStartedAt,
		NeedsCleanup:       d.NeedsCleanup,
		LastRunID:          d.LastRunID,
		LastSeed:           d.LastSeed,
		UpdatedAt:          d.UpdatedAt,
	}
}

type studentDoc struct {
	TenantID      string              `bson:"tenant_id"`
	StudentID     string              `bson:"student_id"`
	Name          demo.LocalizedValue `bson:"name"`
	FatherName    demo.LocalizedValue `bson:"father_name"`
	MotherName    demo.LocalizedValue `bson:"mother_name"`
	Class         string              `bson:"class"`
	Section       string              `bson:"section"`
	DateOfBirth   time.Time           `bson:"date_of_birth"`
	Address       demo.LocalizedValue `bson:"address"`
	Phone         string              `bson:"phone"`
	AdmissionDate time.Time           `bson:"admission_date"`
	Status        string              `bson:"status"`
	IsDemoData    bool                `bson:"is_demo_data"`
	CreatedAt     time.Time           `bson:"created_at"`
}

func newStudentDoc(st demo.Student) studentDoc {
	return studentDoc{
		TenantID:      st.TenantID,
		StudentID:     st.StudentID,
		Name:          st.Name,
		FatherName:    st.FatherName,
		MotherName:    st.MotherName,
		Class:         st.Class,
		Section:       st.Section,
		DateOfBirth:   st.DateOfBirth,
		Address:       st.Address,
		Phone:         st.Phone,
		AdmissionDate: st.AdmissionDate,
		Status:        string(st.Status),
		IsDemoData:    st.IsDemoData,
		CreatedAt:     st.CreatedAt,
	}
}

type markDoc struct {
	TenantID   string               `bson:"tenant_id"`
	StudentID  string               `bson:"student_id"`
	Date       string               `bson:"date"`
	Status     string               `bson:"status"`
	Remark     *demo.LocalizedValue `bson:"remark,omitempty"`
	IsDemoData bool                 `bson:"is_demo_data"`
}

type feeDoc struct {
	TenantID    string     `bson:"tenant_id"`
	StudentID   string     `bson:"student_id"`
	Month       string     `bson:"month"`
	Year        int        `bson:"year"`
	Amount      int64      `bson:"amount"`
	PaidAmount  int64      `bson:"paid_amount"`
	DueAmount   int64      `bson:"due_amount"`
	Status      string     `bson:"status"`
	PaymentDate *time.Time `bson:"payment_date,omitempty"`
	IsDemoData  bool       `bson:"is_demo_data"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	TenantID     string    `bson:"tenant_id"`
	Name         string    `bson:"name"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	IsActive     bool      `bson:"is_active"`
	Roles        []string  `bson:"roles"`
	PasswordHash []byte    `bson:"password_hash"`
	IsDemoData   bool      `bson:"is_demo_data"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newUserDoc(usr user.User) userDoc {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userDoc{
		ID:           usr.ID,
		TenantID:     usr.TenantID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        roles,
		PasswordHash: usr.PasswordHash,
		IsDemoData:   usr.IsDemoData,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
}

func (d userDoc) user() user.User {
	return user.User{
		ID:           d.ID,
		TenantID:     d.TenantID,
		Name:         d.Name,
		Username:     d.Username,
		Email:        d.Email,
		IsActive:     d.IsActive,
		Roles:        d.Roles,
		PasswordHash: d.PasswordHash,
		IsDemoData:   d.IsDemoData,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// scopeFilter is the only builder of filters for destructive demo operations.
// Accounts holding a protected role never match.
func scopeFilter(collection string, scope demo.Scope) (bson.M, error) {
	if !scope.Valid() {
		return nil, demo.ErrInvalidScope
	}
	filter := bson.M{"tenant_id": scope.TenantID(), "is_demo_data": true}
	if collection == usersCollection {
		filter["roles"] = bson.M{"$nin": user.ProtectedRoles}
	}
	return filter, nil
}
