// Package storage selects the configured backend and builds its repositories.
package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
	"github.com/Alisaqulain/madarcrm-sub000/storage/database"
	dummydb "github.com/Alisaqulain/madarcrm-sub000/storage/database/dummy"
	mongodb "github.com/Alisaqulain/madarcrm-sub000/storage/database/mongo"
	sqlxrepos "github.com/Alisaqulain/madarcrm-sub000/storage/database/sqlx"
)

var ErrUnknownStorage = errors.New("unknown storage backend")

type Repos struct {
	Demo  demo.Repository
	Users user.Repository
	// SQL is the relational handle, nil for the other backends.
	SQL *sql.DB

	closeFn func()
}

// Close releases the backend connections.
func (r *Repos) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
}

// Open connects to conf.Storage. The relational backend is created and migrated if needed,
// the document backend gets its indexes.
func Open(ctx context.Context, conf *core.Config) (*Repos, error) {
	switch conf.Storage {
	case core.StorageMemory, "":
		db, err := dummydb.Open()
		if err != nil {
			return nil, err
		}
		return &Repos{Demo: dummydb.NewDemoRepository(db), Users: dummydb.NewUserRepository(db)}, nil

	case core.StoragePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		db, err := database.OpenX(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Repos{
			Demo:    sqlxrepos.NewDemoRepository(db),
			Users:   sqlxrepos.NewUserRepository(db),
			SQL:     db.DB,
			closeFn: func() { _ = db.Close() },
		}, nil

	case core.StorageMongo:
		db, closeFn, err := mongodb.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = mongodb.EnsureIndexes(ctx, db); err != nil {
			closeFn()
			return nil, err
		}
		return &Repos{
			Demo:    mongodb.NewDemoRepository(db),
			Users:   mongodb.NewUserRepository(db),
			closeFn: closeFn,
		}, nil
	}
	return nil, errors.Wrap(ErrUnknownStorage, conf.Storage)
}
