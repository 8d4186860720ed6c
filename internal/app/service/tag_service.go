package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"knowledge_hub/internal/common"
	"knowledge_hub/internal/domain/model"
	"knowledge_hub/internal/domain/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	tagCacheKey = "tags:all"
	tagCacheTTL = time.Hour
)

// TagService owns tag creation and lookup. The full tag list is cached in
// Redis: tags are created lazily and never updated or deleted, so the cache
// only has to be dropped on create. Cache failures fall through to Postgres.
type TagService struct {
	tagRepo  repository.TagRepository
	cache    *redis.Client // may be nil (caching disabled)
	validate *validator.Validate
	logger   *zap.Logger
}

func NewTagService(tagRepo repository.TagRepository, cache *redis.Client, logger *zap.Logger) *TagService {
	return &TagService{tagRepo: tagRepo, cache: cache, validate: newValidator(), logger: logger}
}

type CreateTagRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *TagService) Create(ctx context.Context, req CreateTagRequest) (*model.Tag, error) {
	if err := checkStruct(s.validate, req); err != nil {
		return nil, err
	}

	tag := &model.Tag{
		ID:   uuid.NewString(),
		Name: req.Name,
		Slug: slug.Make(req.Name),
	}
	if err := s.tagRepo.Create(ctx, nil, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	s.InvalidateCache(ctx)
	return tag, nil
}

func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	if cached, ok := s.cachedList(ctx); ok {
		return cached, nil
	}

	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	s.storeList(ctx, tags)
	return tags, nil
}

// FindOrCreateTags resolves tag references (ids or free-text names) to tag
// records inside the caller's transaction, creating tags that don't exist
// yet. Duplicate references are dropped; the first occurrence keeps its
// order slot. This runs in the same transaction as the resource write, so a
// failed resource create leaves no orphan tags behind.
//
// The returned flag reports whether any tag was created. The caller owns the
// transaction, so it also owns cache invalidation: dropping the cache here
// would let a concurrent list repopulate it from a snapshot taken before the
// commit. Invalidate after the commit succeeds.
func (s *TagService) FindOrCreateTags(ctx context.Context, tx *sql.Tx, refs []string) ([]model.Tag, bool, error) {
	if len(refs) == 0 {
		return []model.Tag{}, false, nil
	}

	seen := make(map[string]bool, len(refs))
	tags := make([]model.Tag, 0, len(refs))
	created := false

	for _, ref := range refs {
		if ref == "" {
			continue
		}
		tag, err := s.resolveTag(ctx, tx, ref)
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				return nil, false, fmt.Errorf("failed to resolve tag %q: %w", ref, err)
			}
			tag = &model.Tag{ID: uuid.NewString(), Name: ref, Slug: slug.Make(ref)}
			if err := s.tagRepo.Create(ctx, tx, tag); err != nil {
				return nil, false, fmt.Errorf("failed to create tag %q: %w", ref, err)
			}
			created = true
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		tags = append(tags, *tag)
	}

	return tags, created, nil
}

// resolveTag accepts either a tag id or a tag name; name matching is
// slug-normalized so "Unit Testing" and "unit-testing" land on one tag.
func (s *TagService) resolveTag(ctx context.Context, tx *sql.Tx, ref string) (*model.Tag, error) {
	tag, err := s.tagRepo.FindByID(ctx, tx, ref)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	return s.tagRepo.FindBySlug(ctx, tx, slug.Make(ref))
}

func (s *TagService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, tagCacheKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate tag cache", zap.Error(err))
	}
}

func (s *TagService) cachedList(ctx context.Context) ([]model.Tag, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, tagCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("tag cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var tags []model.Tag
	if err := json.Unmarshal(payload, &tags); err != nil {
		s.logger.Warn("tag cache payload corrupt, dropping", zap.Error(err))
		s.InvalidateCache(ctx)
		return nil, false
	}
	return tags, true
}

func (s *TagService) storeList(ctx context.Context, tags []model.Tag) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(tags)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, tagCacheKey, payload, tagCacheTTL).Err(); err != nil {
		s.logger.Warn("tag cache write failed", zap.Error(err))
	}
}
