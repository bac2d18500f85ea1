package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/esperluet/cv-smarter/internal/model"
	"github.com/esperluet/cv-smarter/internal/pkg/dbutil"
	appErr "github.com/esperluet/cv-smarter/internal/pkg/errors"
)

var userColumns = []string{"id", "email", "password_hash", "ctime", "mtime"}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	row := map[string]interface{}{
		"id":            user.ID,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"ctime":         user.Ctime,
		"mtime":         user.Mtime,
	}
	query, args, err := builder.BuildInsert("users", []map[string]interface{}{row})
	if err != nil {
		return err
	}
	query, args = dbutil.Finalize(query, args)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID})
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	query, args, err := builder.BuildSelect("users", where, userColumns)
	if err != nil {
		return nil, err
	}
	query, args = dbutil.Finalize(query, args)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var user model.User
	if err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Ctime, &user.Mtime); err != nil {
		return nil, err
	}
	return &user, nil
}
