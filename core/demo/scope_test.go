package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

func TestScopeFor(t *testing.T) {
	_, err := ScopeFor("   ")
	assert.Equal(t, ErrInvalidScope, err)

	scope, err := ScopeFor(" T1 ")
	assert.NoError(t, err)
	assert.Equal(t, "T1", scope.TenantID())
	assert.True(t, scope.Valid())
	assert.False(t, Scope{}.Valid())
}

func TestScope_Matches(t *testing.T) {
	scope := mustScope(t, "T1")
	tests := []struct {
		name     string
		scope    Scope
		tenantID string
		isDemo   bool
		want     bool
	}{
		{name: "demo record", scope: scope, tenantID: "T1", isDemo: true, want: true},
		{name: "real record", scope: scope, tenantID: "T1", isDemo: false, want: false},
		{name: "other tenant", scope: scope, tenantID: "T2", isDemo: true, want: false},
		{name: "zero scope", scope: Scope{}, tenantID: "", isDemo: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Matches(tt.tenantID, tt.isDemo))
		})
	}
}

func TestScope_MatchesStaff(t *testing.T) {
	scope := mustScope(t, "T1")
	tests := []struct {
		name string
		usr  user.User
		want bool
	}{
		{name: "demo teacher", usr: user.User{TenantID: "T1", IsDemoData: true, Roles: []string{user.RoleTeacher}}, want: true},
		{name: "real teacher", usr: user.User{TenantID: "T1", Roles: []string{user.RoleTeacher}}, want: false},
		{name: "demo owner", usr: user.User{TenantID: "T1", IsDemoData: true, Roles: []string{user.RoleAdminOwner}}, want: false},
		{name: "demo super admin", usr: user.User{TenantID: "T1", IsDemoData: true, Roles: []string{user.RoleSuperAdmin}}, want: false},
		{name: "other tenant", usr: user.User{TenantID: "T2", IsDemoData: true, Roles: []string{user.RoleTeacher}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scope.MatchesStaff(tt.usr))
		})
	}
}

func TestScope_Tagging(t *testing.T) {
	scope := mustScope(t, "T1")

	var st Student
	scope.tagStudent(&st)
	var usr user.User
	scope.tagStaff(&usr)
	var m AttendanceMark
	scope.tagMark(&m)
	var f FeeLine
	scope.tagFee(&f)

	assert.True(t, scope.Matches(st.TenantID, st.IsDemoData))
	assert.True(t, scope.Matches(usr.TenantID, usr.IsDemoData))
	assert.True(t, scope.Matches(m.TenantID, m.IsDemoData))
	assert.True(t, scope.Matches(f.TenantID, f.IsDemoData))
}

func TestTenantDemoState_Leased(t *testing.T) {
	st := TenantDemoState{Operation: OpLoad, OperationStartedAt: testAsOf}
	assert.True(t, st.Leased(testAsOf.Add(-1)))
	assert.True(t, st.Leased(testAsOf))
	assert.False(t, st.Leased(testAsOf.Add(1)))
	assert.False(t, TenantDemoState{}.Leased(testAsOf))
}

func TestTenantDemoState_Phase(t *testing.T) {
	assert.Equal(t, "off", TenantDemoState{}.Phase())
	assert.Equal(t, "enabled-empty", TenantDemoState{DemoModeEnabled: true}.Phase())
	assert.Equal(t, "enabled-loaded", TenantDemoState{DemoModeEnabled: true, DemoDataLoaded: true}.Phase())
	assert.Equal(t, "disabled-loaded", TenantDemoState{DemoDataLoaded: true}.Phase())
}
