package demo

import (
	"strings"

	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

// Scope selects the synthetic records of one tenant: tenant_id = X AND is_demo_data = true.
// It is the only predicate destructive repository operations accept.
// The zero Scope matches nothing; backends reject it.
type Scope struct {
	tenantID string
}

func ScopeFor(tenantID string) (Scope, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return Scope{}, ErrInvalidScope
	}
	return Scope{tenantID: tenantID}, nil
}

func (s Scope) TenantID() string {
	return s.tenantID
}

func (s Scope) Valid() bool {
	return s.tenantID != ""
}

// Matches reports whether a record with these tags falls inside the scope.
func (s Scope) Matches(tenantID string, isDemoData bool) bool {
	return s.Valid() && isDemoData && tenantID == s.tenantID
}

// MatchesStaff is Matches for accounts: protected accounts never match.
func (s Scope) MatchesStaff(usr user.User) bool {
	return s.Matches(usr.TenantID, usr.IsDemoData) && !usr.IsProtected()
}

func (s Scope) tagStudent(st *Student) {
	st.TenantID, st.IsDemoData = s.tenantID, true
}

func (s Scope) tagStaff(usr *user.User) {
	usr.TenantID, usr.IsDemoData = s.tenantID, true
}

func (s Scope) tagMark(m *AttendanceMark) {
	m.TenantID, m.IsDemoData = s.tenantID, true
}

func (s Scope) tagFee(f *FeeLine) {
	f.TenantID, f.IsDemoData = s.tenantID, true
}
