package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"knowledge_hub/internal/common"
	"knowledge_hub/internal/domain/model"
	"knowledge_hub/internal/domain/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ResourceService struct {
	resourceRepo repository.ResourceRepository
	userRepo     repository.UserRepository
	tagService   *TagService
	db           *sql.DB // For transactions
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewResourceService(
	resourceRepo repository.ResourceRepository,
	userRepo repository.UserRepository,
	tagService *TagService,
	db *sql.DB,
	logger *zap.Logger,
) *ResourceService {
	return &ResourceService{
		resourceRepo: resourceRepo,
		userRepo:     userRepo,
		tagService:   tagService,
		db:           db,
		validate:     newValidator(),
		logger:       logger,
	}
}

// ResourceRequest is the create/update payload. Tags may reference existing
// tags by id or by name; unknown names are created with the resource.
type ResourceRequest struct {
	Title       string             `json:"title" validate:"required"`
	Description string             `json:"description" validate:"required"`
	Type        model.ResourceType `json:"type" validate:"required"`
	URL         string             `json:"url"`
	Code        string             `json:"code"`
	Author      string             `json:"author"`
	Tags        []string           `json:"tags"`
}

// applyVariant enforces the per-type required field and clears fields that
// don't belong to the variant, so exactly one variant ever applies to a
// stored resource.
func applyVariant(res *model.Resource, req ResourceRequest) error {
	switch req.Type {
	case model.TypeArticle:
		if req.URL == "" {
			return common.NewValidationError("url", "is required for type article")
		}
		res.URL = strPtr(req.URL)
		res.Code, res.Author = nil, nil
	case model.TypeCodeSnippet:
		if req.Code == "" {
			return common.NewValidationError("code", "is required for type code_snippet")
		}
		res.Code = strPtr(req.Code)
		res.URL, res.Author = nil, nil
	case model.TypeBook:
		res.Author = optStrPtr(req.Author)
		res.URL, res.Code = nil, nil
	case model.TypeCourse:
		res.Author = optStrPtr(req.Author)
		res.URL = optStrPtr(req.URL)
		res.Code = nil
	default:
		return common.NewValidationError("type", "must be one of article, code_snippet, book, course")
	}
	return nil
}

func (s *ResourceService) Create(ctx context.Context, ownerID string, req ResourceRequest) (*model.Resource, error) {
	if err := checkStruct(s.validate, req); err != nil {
		return nil, err
	}

	res := &model.Resource{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		UserID:      ownerID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := applyVariant(res, req); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.resourceRepo.Create(ctx, tx, res); err != nil {
		return nil, common.Errorf("failed to create resource: %w", err)
	}

	tags, tagsCreated, err := s.tagService.FindOrCreateTags(ctx, tx, req.Tags)
	if err != nil {
		return nil, common.Errorf("failed to process tags: %w", err)
	}
	if err := s.resourceRepo.ReplaceTags(ctx, tx, res.ID, tagIDs(tags)); err != nil {
		return nil, common.Errorf("failed to attach tags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	if tagsCreated {
		s.tagService.InvalidateCache(ctx)
	}

	res.Tags = tags
	if err := s.attachOwner(ctx, res, nil); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ResourceService) List(ctx context.Context) ([]model.Resource, error) {
	resources, err := s.resourceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	if err := s.expandAll(ctx, resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (s *ResourceService) ListByUser(ctx context.Context, userID string) ([]model.Resource, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err // common.ErrNotFound for unknown users
	}
	resources, err := s.resourceRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources for user %s: %w", userID, err)
	}
	if err := s.expandAll(ctx, resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (s *ResourceService) Update(ctx context.Context, resourceID, requesterID string, req ResourceRequest) (*model.Resource, error) {
	existing, err := s.resourceRepo.FindByID(ctx, resourceID)
	if err != nil {
		return nil, err // common.ErrNotFound if no such resource
	}
	if existing.UserID != requesterID {
		return nil, common.ErrForbidden
	}
	if err := checkStruct(s.validate, req); err != nil {
		return nil, err
	}

	// Owner and creation time survive updates untouched; no version check,
	// concurrent updates are last-write-wins.
	existing.Title = req.Title
	existing.Description = req.Description
	existing.Type = req.Type
	if err := applyVariant(existing, req); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.resourceRepo.Update(ctx, tx, existing); err != nil {
		return nil, common.Errorf("failed to update resource: %w", err)
	}

	tags, tagsCreated, err := s.tagService.FindOrCreateTags(ctx, tx, req.Tags)
	if err != nil {
		return nil, common.Errorf("failed to process tags: %w", err)
	}
	if err := s.resourceRepo.ReplaceTags(ctx, tx, existing.ID, tagIDs(tags)); err != nil {
		return nil, common.Errorf("failed to attach tags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	if tagsCreated {
		s.tagService.InvalidateCache(ctx)
	}

	existing.Tags = tags
	if err := s.attachOwner(ctx, existing, nil); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *ResourceService) Delete(ctx context.Context, resourceID, requesterID string) error {
	existing, err := s.resourceRepo.FindByID(ctx, resourceID)
	if err != nil {
		return err // deleting an already-deleted id reports NotFound
	}
	if existing.UserID != requesterID {
		return common.ErrForbidden
	}
	if err := s.resourceRepo.Delete(ctx, resourceID); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}

// expandAll resolves owners and tags for a result set. Denormalization
// happens here, at read time, so profile edits show up on the next read.
func (s *ResourceService) expandAll(ctx context.Context, resources []model.Resource) error {
	owners := make(map[string]*model.PublicUser)
	for i := range resources {
		if err := s.attachOwner(ctx, &resources[i], owners); err != nil {
			return err
		}
		tags, err := s.resourceRepo.GetTagsByResourceID(ctx, resources[i].ID)
		if err != nil {
			return fmt.Errorf("failed to fetch tags for resource %s: %w", resources[i].ID, err)
		}
		resources[i].Tags = tags
	}
	return nil
}

// attachOwner sets the denormalized public profile; memo avoids refetching
// the same owner within one call.
func (s *ResourceService) attachOwner(ctx context.Context, res *model.Resource, memo map[string]*model.PublicUser) error {
	if memo != nil {
		if cached, ok := memo[res.UserID]; ok {
			res.User = cached
			return nil
		}
	}
	owner, err := s.userRepo.FindByID(ctx, res.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve owner for resource %s: %w", res.ID, err)
	}
	res.User = owner.Public()
	if memo != nil {
		memo[res.UserID] = res.User
	}
	return nil
}

func tagIDs(tags []model.Tag) []string {
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

func strPtr(s string) *string { return &s }

func optStrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
