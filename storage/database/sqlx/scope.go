package sqlxrepos

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

// scopeClause is the only builder of predicates for destructive demo statements.
// Placeholders are numbered from first. Accounts holding a protected role never match.
func scopeClause(table string, scope demo.Scope, first int) (string, []interface{}, error) {
	if !scope.Valid() {
		return "", nil, demo.ErrInvalidScope
	}
	where := fmt.Sprintf(`tenant_id = $%d AND is_demo_data = TRUE`, first)
	args := []interface{}{scope.TenantID()}
	if table == "users" {
		where += fmt.Sprintf(` AND NOT (roles && $%d)`, first+1)
		args = append(args, pq.StringArray(user.ProtectedRoles))
	}
	return where, args, nil
}

// namedValues turns "a, b" into ":a, :b".
func namedValues(columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = ":" + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
