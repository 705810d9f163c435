package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alisaqulain/madarcrm-sub000/core"
)

// Roles
const (
	// Admin
	RoleSuperAdmin     = "admin:super"
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Staff
	RoleTeacher    = "teacher:"
	RoleAccountant = "staff:accountant"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleSuperAdmin, RoleAdminOwner, RoleAdminPrincipal, RoleAdmin}
	StaffRoles   = []string{RoleTeacher, RoleAccountant}
	StudentRoles = []string{RoleStudent}
	AllRoles     = getAllRoles()

	// ProtectedRoles are never removed by bulk operations, whatever their provenance.
	ProtectedRoles = []string{RoleSuperAdmin, RoleAdminOwner}

	rolePriorities = map[string]int{
		// Admins: 40 - 21
		RoleSuperAdmin:     40,
		RoleAdminOwner:     30,
		RoleAdminPrincipal: 29,
		RoleAdmin:          21,

		// Staff: 20 - 11
		RoleAccountant: 12,
		RoleTeacher:    11,

		// Students: 10 - 1
		RoleStudent: 1,
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 7)
	all = append(all, AdminRoles...)
	all = append(all, StaffRoles...)
	all = append(all, StudentRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

// User is a dashboard account. Accounts belong to one tenant; synthetic accounts carry IsDemoData.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	IsDemoData   bool      `json:"is_demo_data"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// HashPassword returns the bcrypt hash of pwd.
func HashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
}

func (u *User) SetPassword(pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) HasAnyRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

func (u *User) IsSuperAdmin() bool {
	return u.HasAnyRole(RoleSuperAdmin)
}

// IsProtected reports whether the account must survive demo cleanup.
func (u *User) IsProtected() bool {
	return !u.IsDemoData || u.HasAnyRole(ProtectedRoles...)
}

// NewUser contains information needed to create a new (real) User.
type NewUser struct {
	TenantID        string   `json:"tenant_id" validate:"required,max=64,tenantid"`
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.TenantID = core.CleanString(nu.TenantID)
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// GetFilter selects a single User. The first set field wins.
type GetFilter struct {
	ID              string
	UsernameOrEmail string
}
