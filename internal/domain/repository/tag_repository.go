package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"knowledge_hub/internal/common"
	"knowledge_hub/internal/domain/model"
)

type TagRepository interface {
	// Create inserts a tag, inside tx when one is supplied (tags created
	// lazily during a resource write share its transaction).
	Create(ctx context.Context, tx *sql.Tx, tag *model.Tag) error
	FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Tag, error)
	// FindBySlug resolves a tag by its slug-normalized name.
	FindBySlug(ctx context.Context, tx *sql.Tx, slug string) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
}

type pgTagRepository struct {
	db *sql.DB
}

func NewPgTagRepository(db *sql.DB) TagRepository {
	return &pgTagRepository{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *pgTagRepository) runner(tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *pgTagRepository) Create(ctx context.Context, tx *sql.Tx, tag *model.Tag) error {
	query := `INSERT INTO tags (id, name, slug) VALUES ($1, $2, $3)`
	if _, err := r.runner(tx).ExecContext(ctx, query, tag.ID, tag.Name, tag.Slug); err != nil {
		return fmt.Errorf("pgTagRepository.Create: %w", err)
	}
	return nil
}

func (r *pgTagRepository) FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Tag, error) {
	query := `SELECT id, name, slug FROM tags WHERE id = $1`
	tag := &model.Tag{}
	err := r.runner(tx).QueryRowContext(ctx, query, id).Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTagRepository.FindByID: %w", err)
	}
	return tag, nil
}

func (r *pgTagRepository) FindBySlug(ctx context.Context, tx *sql.Tx, slug string) (*model.Tag, error) {
	// Names are not unique in the store; the oldest tag wins so repeated
	// lookups stay stable.
	query := `SELECT id, name, slug FROM tags WHERE slug = $1 ORDER BY created_at ASC LIMIT 1`
	tag := &model.Tag{}
	err := r.runner(tx).QueryRowContext(ctx, query, slug).Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTagRepository.FindBySlug: %w", err)
	}
	return tag, nil
}

func (r *pgTagRepository) List(ctx context.Context) ([]model.Tag, error) {
	query := `SELECT id, name, slug FROM tags ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgTagRepository.List query: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("pgTagRepository.List scan: %w", err)
		}
		tags = append(tags, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgTagRepository.List rows.Err: %w", err)
	}
	return tags, nil
}
