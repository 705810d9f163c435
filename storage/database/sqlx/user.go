package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

// todo: + Masterminds/squirrel once filtering grows past tenant lookups

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excluded := make(pq.StringArray, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded = append(excluded, usr.ID)
	}

	var found struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err := repo.db.GetContext(ctx, &found,
		`SELECT username, email FROM users
		WHERE (($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)) AND NOT (id::text = ANY($3))
		LIMIT 1`,
		username, email, excluded,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return errors.Wrap(err, "checking username uniqueness")
	case username != "" && found.Username == username:
		return user.ErrUsernameExists
	default:
		return user.ErrEmailExists
	}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	if _, err := repo.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (:id, :tenant_id, :name, :username, :email, :is_active, :roles, :password_hash, :is_demo_data, :created_at, :updated_at)`,
		newUserRow(usr),
	); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		row userRow
		err error
	)
	switch {
	case filter.ID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, filter.ID)
	case filter.UsernameOrEmail != "":
		err = repo.db.GetContext(ctx, &row,
			`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1 ORDER BY username LIMIT 1`,
			filter.UsernameOrEmail,
		)
	default:
		return user.User{}, user.ErrNotFound
	}
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	query, args, err := repo.db.BindNamed(`UPDATE users SET
		name = :name, username = :username, email = :email, is_active = :is_active,
		roles = :roles, password_hash = :password_hash, updated_at = :updated_at
		WHERE CAST(id AS TEXT) = :id
		RETURNING `+userColumns,
		newUserRow(usr),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "binding user update")
	}

	var row userRow
	err = repo.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.user(), nil
}

func (repo *userRepository) QueryTenantUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY username`, tenantID,
	); err != nil {
		return nil, errors.Wrap(err, "querying tenant users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}
