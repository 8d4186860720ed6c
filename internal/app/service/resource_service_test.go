package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"knowledge_hub/internal/common"
	"knowledge_hub/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestResourceService(t *testing.T) (*ResourceService, *MockResourceRepository, *MockUserRepository, *MockTagRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	resourceRepo := new(MockResourceRepository)
	userRepo := new(MockUserRepository)
	tagRepo := new(MockTagRepository)
	tagService := NewTagService(tagRepo, nil, zap.NewNop())
	svc := NewResourceService(resourceRepo, userRepo, tagService, db, zap.NewNop())
	return svc, resourceRepo, userRepo, tagRepo, dbMock
}

func TestCreateResource_VariantValidation(t *testing.T) {
	cases := []struct {
		name      string
		req       ResourceRequest
		wantField string
	}{
		{
			name:      "article without url",
			req:       ResourceRequest{Title: "Go Concurrency", Description: "Pipelines", Type: model.TypeArticle},
			wantField: "url",
		},
		{
			name:      "code snippet without code",
			req:       ResourceRequest{Title: "Worker pool", Description: "Bounded workers", Type: model.TypeCodeSnippet},
			wantField: "code",
		},
		{
			name:      "unknown type",
			req:       ResourceRequest{Title: "Something", Description: "Else", Type: "podcast"},
			wantField: "type",
		},
		{
			name:      "missing title",
			req:       ResourceRequest{Description: "No title", Type: model.TypeBook},
			wantField: "title",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _, _, _ := newTestResourceService(t)

			_, err := svc.Create(context.Background(), "user-1", tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Contains(t, err.Error(), tc.wantField)
		})
	}
}

func TestCreateResource_Article(t *testing.T) {
	svc, resourceRepo, userRepo, tagRepo, dbMock := newTestResourceService(t)

	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	goTag := &model.Tag{ID: "tag-go", Name: "go", Slug: "go"}
	tagRepo.On("FindByID", mock.Anything, mock.Anything, "go").Return(nil, common.ErrNotFound)
	tagRepo.On("FindBySlug", mock.Anything, mock.Anything, "go").Return(goTag, nil)

	resourceRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(res *model.Resource) bool {
		return res.Title == "Go Concurrency" && res.UserID == "user-1" && res.URL != nil && *res.URL == "https://go.dev/blog/pipelines"
	})).Return(nil)
	resourceRepo.On("ReplaceTags", mock.Anything, mock.Anything, mock.Anything, []string{"tag-go"}).Return(nil)

	owner := &model.User{ID: "user-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	userRepo.On("FindByID", mock.Anything, "user-1").Return(owner, nil)

	res, err := svc.Create(context.Background(), "user-1", ResourceRequest{
		Title:       "Go Concurrency",
		Description: "Pipelines and cancellation",
		Type:        model.TypeArticle,
		URL:         "https://go.dev/blog/pipelines",
		Code:        "stray code that must not survive",
		Tags:        []string{"go"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Nil(t, res.Code, "non-variant fields are cleared")
	assert.Nil(t, res.Author)
	require.NotNil(t, res.User)
	assert.Equal(t, "Ada", res.User.FirstName)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, "tag-go", res.Tags[0].ID)

	assert.NoError(t, dbMock.ExpectationsWereMet())
	resourceRepo.AssertExpectations(t)
}

func TestCreateResource_BookAuthorOptional(t *testing.T) {
	svc, resourceRepo, userRepo, _, dbMock := newTestResourceService(t)

	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	resourceRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(res *model.Resource) bool {
		return res.Type == model.TypeBook && res.Author == nil && res.URL == nil && res.Code == nil
	})).Return(nil)
	resourceRepo.On("ReplaceTags", mock.Anything, mock.Anything, mock.Anything, []string{}).Return(nil)
	userRepo.On("FindByID", mock.Anything, "user-1").Return(&model.User{ID: "user-1"}, nil)

	res, err := svc.Create(context.Background(), "user-1", ResourceRequest{
		Title:       "The Go Programming Language",
		Description: "Reference",
		Type:        model.TypeBook,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Tags)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestUpdateResource_Ownership(t *testing.T) {
	svc, resourceRepo, _, _, _ := newTestResourceService(t)

	resourceRepo.On("FindByID", mock.Anything, "missing").Return(nil, common.ErrNotFound)
	resourceRepo.On("FindByID", mock.Anything, "res-1").Return(&model.Resource{ID: "res-1", UserID: "owner"}, nil)

	req := ResourceRequest{Title: "t", Description: "d", Type: model.TypeBook}

	_, err := svc.Update(context.Background(), "missing", "owner", req)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.Update(context.Background(), "res-1", "intruder", req)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestUpdateResource_PreservesOwnerAndCreatedAt(t *testing.T) {
	svc, resourceRepo, userRepo, _, dbMock := newTestResourceService(t)

	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	existing := &model.Resource{
		ID: "res-1", Title: "Old", Description: "Old desc",
		Type: model.TypeArticle, URL: strPtr("https://old.example"),
		UserID: "owner", CreatedAt: created,
	}
	resourceRepo.On("FindByID", mock.Anything, "res-1").Return(existing, nil)

	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	resourceRepo.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(res *model.Resource) bool {
		return res.UserID == "owner" && res.CreatedAt.Equal(created) &&
			res.Type == model.TypeCodeSnippet && res.URL == nil && res.Code != nil
	})).Return(nil)
	resourceRepo.On("ReplaceTags", mock.Anything, mock.Anything, "res-1", []string{}).Return(nil)
	userRepo.On("FindByID", mock.Anything, "owner").Return(&model.User{ID: "owner"}, nil)

	res, err := svc.Update(context.Background(), "res-1", "owner", ResourceRequest{
		Title:       "New",
		Description: "New desc",
		Type:        model.TypeCodeSnippet,
		Code:        "fmt.Println(\"hi\")",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner", res.UserID)
	assert.Equal(t, created, res.CreatedAt)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestDeleteResource(t *testing.T) {
	svc, resourceRepo, _, _, _ := newTestResourceService(t)

	resourceRepo.On("FindByID", mock.Anything, "gone").Return(nil, common.ErrNotFound)
	resourceRepo.On("FindByID", mock.Anything, "res-1").Return(&model.Resource{ID: "res-1", UserID: "owner"}, nil)
	resourceRepo.On("Delete", mock.Anything, "res-1").Return(nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), "gone", "owner"), common.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "res-1", "intruder"), common.ErrForbidden)
	assert.NoError(t, svc.Delete(context.Background(), "res-1", "owner"))

	resourceRepo.AssertCalled(t, "Delete", mock.Anything, "res-1")
}

func TestListByUser_UnknownUser(t *testing.T) {
	svc, _, userRepo, _, _ := newTestResourceService(t)

	userRepo.On("FindByID", mock.Anything, "nobody").Return(nil, common.ErrNotFound)

	_, err := svc.ListByUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// Owner profiles are resolved at read time, so a renamed owner shows up on
// resources created before the rename.
func TestList_OwnerResolvedAtReadTime(t *testing.T) {
	svc, resourceRepo, userRepo, _, _ := newTestResourceService(t)

	resources := []model.Resource{
		{ID: "res-1", Title: "A", UserID: "user-1"},
		{ID: "res-2", Title: "B", UserID: "user-1"},
	}
	resourceRepo.On("List", mock.Anything).Return(resources, nil)
	resourceRepo.On("GetTagsByResourceID", mock.Anything, mock.Anything).Return([]model.Tag{}, nil)

	renamed := &model.User{ID: "user-1", FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}
	userRepo.On("FindByID", mock.Anything, "user-1").Return(renamed, nil)

	out, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, res := range out {
		require.NotNil(t, res.User)
		assert.Equal(t, "Grace", res.User.FirstName)
	}
	// Shared owner is fetched once per call.
	userRepo.AssertNumberOfCalls(t, "FindByID", 1)
}

// The tag cache must only be dropped once the transaction has committed;
// invalidating earlier lets a concurrent list repopulate the cache from a
// pre-commit snapshot. The cache client here points at a dead address, so
// every invalidation attempt leaves a warning in the log.
func TestCreateResource_TagCacheInvalidatedAfterCommit(t *testing.T) {
	newObservedService := func(t *testing.T, resourceRepo *MockResourceRepository, userRepo *MockUserRepository, tagRepo *MockTagRepository) (*ResourceService, sqlmock.Sqlmock, *observer.ObservedLogs) {
		t.Helper()
		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		core, logs := observer.New(zap.WarnLevel)
		logger := zap.New(core)
		deadCache := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		t.Cleanup(func() { deadCache.Close() })

		tagService := NewTagService(tagRepo, deadCache, logger)
		return NewResourceService(resourceRepo, userRepo, tagService, db, logger), dbMock, logs
	}

	req := ResourceRequest{
		Title:       "Go Concurrency",
		Description: "Pipelines",
		Type:        model.TypeArticle,
		URL:         "https://go.dev/blog/pipelines",
		Tags:        []string{"fresh-tag"},
	}

	expectTagCreation := func(resourceRepo *MockResourceRepository, tagRepo *MockTagRepository) {
		tagRepo.On("FindByID", mock.Anything, mock.Anything, "fresh-tag").Return(nil, common.ErrNotFound)
		tagRepo.On("FindBySlug", mock.Anything, mock.Anything, "fresh-tag").Return(nil, common.ErrNotFound)
		tagRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		resourceRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		resourceRepo.On("ReplaceTags", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	}

	t.Run("failed commit leaves the cache alone", func(t *testing.T) {
		resourceRepo, userRepo, tagRepo := new(MockResourceRepository), new(MockUserRepository), new(MockTagRepository)
		svc, dbMock, logs := newObservedService(t, resourceRepo, userRepo, tagRepo)

		expectTagCreation(resourceRepo, tagRepo)
		dbMock.ExpectBegin()
		dbMock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		_, err := svc.Create(context.Background(), "user-1", req)
		require.Error(t, err)
		assert.Zero(t, logs.FilterMessage("failed to invalidate tag cache").Len())
	})

	t.Run("successful commit invalidates", func(t *testing.T) {
		resourceRepo, userRepo, tagRepo := new(MockResourceRepository), new(MockUserRepository), new(MockTagRepository)
		svc, dbMock, logs := newObservedService(t, resourceRepo, userRepo, tagRepo)

		expectTagCreation(resourceRepo, tagRepo)
		userRepo.On("FindByID", mock.Anything, "user-1").Return(&model.User{ID: "user-1"}, nil)
		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		_, err := svc.Create(context.Background(), "user-1", req)
		require.NoError(t, err)
		assert.Equal(t, 1, logs.FilterMessage("failed to invalidate tag cache").Len())
	})
}
