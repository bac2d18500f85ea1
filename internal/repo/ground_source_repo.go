package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/esperluet/cv-smarter/internal/model"
	"github.com/esperluet/cv-smarter/internal/pkg/dbutil"
	appErr "github.com/esperluet/cv-smarter/internal/pkg/errors"
)

var groundSourceColumns = []string{
	"id", "user_id", "name", "original_filename", "content_type",
	"size_bytes", "storage_path", "canonical_text", "content_hash", "ctime",
}

type GroundSourceRepo struct {
	db *sql.DB
}

func NewGroundSourceRepo(db *sql.DB) *GroundSourceRepo {
	return &GroundSourceRepo{db: db}
}

func (r *GroundSourceRepo) Create(ctx context.Context, source *model.GroundSource) error {
	data := map[string]interface{}{
		"id":                source.ID,
		"user_id":           source.UserID,
		"name":              source.Name,
		"original_filename": source.OriginalFilename,
		"content_type":      source.ContentType,
		"size_bytes":        source.SizeBytes,
		"storage_path":      source.StoragePath,
		"canonical_text":    source.CanonicalText,
		"content_hash":      source.ContentHash,
		"ctime":             source.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("ground_sources", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *GroundSourceRepo) Get(ctx context.Context, userID, sourceID string) (*model.GroundSource, error) {
	where := map[string]interface{}{
		"id":      sourceID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("ground_sources", where, groundSourceColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	source, err := scanGroundSource(rows)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (r *GroundSourceRepo) List(ctx context.Context, userID string) ([]*model.GroundSource, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("ground_sources", where, groundSourceColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var sources []*model.GroundSource
	for rows.Next() {
		source, err := scanGroundSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *GroundSourceRepo) Delete(ctx context.Context, userID, sourceID string) error {
	where := map[string]interface{}{
		"id":      sourceID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("ground_sources", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanGroundSource(rows *sql.Rows) (*model.GroundSource, error) {
	var source model.GroundSource
	if err := rows.Scan(&source.ID, &source.UserID, &source.Name, &source.OriginalFilename,
		&source.ContentType, &source.SizeBytes, &source.StoragePath, &source.CanonicalText,
		&source.ContentHash, &source.Ctime); err != nil {
		return nil, err
	}
	return &source, nil
}
