package dummydb

import (
	"sync"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

type (
	// DB is a process-local store. Both repositories share the user table.
	DB struct {
		user *userTable
		demo *demoTables
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	demoTables struct {
		sync.RWMutex
		states     map[string]*demo.TenantDemoState
		students   []demo.Student
		attendance []demo.AttendanceMark
		fees       []demo.FeeLine
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		demo: &demoTables{states: make(map[string]*demo.TenantDemoState)},
	}
	return db, nil
}
