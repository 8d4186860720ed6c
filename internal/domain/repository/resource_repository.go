package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"knowledge_hub/internal/common"
	"knowledge_hub/internal/domain/model"
)

type ResourceRepository interface {
	Create(ctx context.Context, tx *sql.Tx, resource *model.Resource) error
	Update(ctx context.Context, tx *sql.Tx, resource *model.Resource) error
	FindByID(ctx context.Context, id string) (*model.Resource, error)
	List(ctx context.Context) ([]model.Resource, error)
	ListByUserID(ctx context.Context, userID string) ([]model.Resource, error)
	Delete(ctx context.Context, id string) error

	// ReplaceTags rewrites the resource's tag set, preserving the supplied
	// order for display.
	ReplaceTags(ctx context.Context, tx *sql.Tx, resourceID string, tagIDs []string) error
	GetTagsByResourceID(ctx context.Context, resourceID string) ([]model.Tag, error)
}

type pgResourceRepository struct {
	db *sql.DB
}

func NewPgResourceRepository(db *sql.DB) ResourceRepository {
	return &pgResourceRepository{db: db}
}

func (r *pgResourceRepository) runner(tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *pgResourceRepository) Create(ctx context.Context, tx *sql.Tx, res *model.Resource) error {
	query := `INSERT INTO resources (id, title, description, type, url, code, author, user_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.runner(tx).ExecContext(ctx, query,
		res.ID, res.Title, res.Description, res.Type, res.URL, res.Code, res.Author, res.UserID, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgResourceRepository.Create: %w", err)
	}
	return nil
}

func (r *pgResourceRepository) Update(ctx context.Context, tx *sql.Tx, res *model.Resource) error {
	// user_id and created_at are immutable across updates.
	query := `UPDATE resources SET title = $1, description = $2, type = $3, url = $4, code = $5, author = $6
	          WHERE id = $7`
	result, err := r.runner(tx).ExecContext(ctx, query,
		res.Title, res.Description, res.Type, res.URL, res.Code, res.Author, res.ID)
	if err != nil {
		return fmt.Errorf("pgResourceRepository.Update: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	query := `SELECT id, title, description, type, url, code, author, user_id, created_at
	          FROM resources WHERE id = $1`
	res := &model.Resource{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.Title, &res.Description, &res.Type, &res.URL, &res.Code, &res.Author, &res.UserID, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgResourceRepository.FindByID: %w", err)
	}
	return res, nil
}

func (r *pgResourceRepository) List(ctx context.Context) ([]model.Resource, error) {
	query := `SELECT id, title, description, type, url, code, author, user_id, created_at
	          FROM resources ORDER BY created_at DESC`
	return r.queryResources(ctx, query)
}

func (r *pgResourceRepository) ListByUserID(ctx context.Context, userID string) ([]model.Resource, error) {
	query := `SELECT id, title, description, type, url, code, author, user_id, created_at
	          FROM resources WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryResources(ctx, query, userID)
}

func (r *pgResourceRepository) queryResources(ctx context.Context, query string, args ...interface{}) ([]model.Resource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgResourceRepository query: %w", err)
	}
	defer rows.Close()

	resources := []model.Resource{}
	for rows.Next() {
		var res model.Resource
		if err := rows.Scan(&res.ID, &res.Title, &res.Description, &res.Type,
			&res.URL, &res.Code, &res.Author, &res.UserID, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgResourceRepository scan: %w", err)
		}
		resources = append(resources, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgResourceRepository rows.Err: %w", err)
	}
	return resources, nil
}

func (r *pgResourceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgResourceRepository.Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgResourceRepository) ReplaceTags(ctx context.Context, tx *sql.Tx, resourceID string, tagIDs []string) error {
	run := r.runner(tx)
	if _, err := run.ExecContext(ctx, `DELETE FROM resource_tags WHERE resource_id = $1`, resourceID); err != nil {
		return fmt.Errorf("pgResourceRepository.ReplaceTags clear: %w", err)
	}
	for i, tagID := range tagIDs {
		_, err := run.ExecContext(ctx,
			`INSERT INTO resource_tags (resource_id, tag_id, sort_order) VALUES ($1, $2, $3)`,
			resourceID, tagID, i+1)
		if err != nil {
			return fmt.Errorf("pgResourceRepository.ReplaceTags insert tag %s: %w", tagID, err)
		}
	}
	return nil
}

func (r *pgResourceRepository) GetTagsByResourceID(ctx context.Context, resourceID string) ([]model.Tag, error) {
	query := `SELECT t.id, t.name, t.slug
	          FROM tags t
	          JOIN resource_tags rt ON rt.tag_id = t.id
	          WHERE rt.resource_id = $1
	          ORDER BY rt.sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("pgResourceRepository.GetTagsByResourceID query: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("pgResourceRepository.GetTagsByResourceID scan: %w", err)
		}
		tags = append(tags, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgResourceRepository.GetTagsByResourceID rows.Err: %w", err)
	}
	return tags, nil
}
