package service

import (
	"context"
	"testing"

	"knowledge_hub/internal/common"
	"knowledge_hub/internal/common/security"
	"knowledge_hub/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := NewAuthService(userRepo)

	var stored *model.User
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		stored = u
		return u.Email == "ada@example.com" && u.HashedPassword != "" && u.HashedPassword != "s3cret"
	})).Return(nil)

	resp, err := svc.Signup(context.Background(), SignupRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "s3cret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.True(t, security.CheckPasswordHash("s3cret", stored.HashedPassword))
}

func TestSignup_Validation(t *testing.T) {
	svc := NewAuthService(new(MockUserRepository))

	cases := []struct {
		name      string
		req       SignupRequest
		wantField string
	}{
		{"missing email", SignupRequest{FirstName: "A", LastName: "B", Password: "x"}, "email"},
		{"bad email", SignupRequest{FirstName: "A", LastName: "B", Email: "not-an-email", Password: "x"}, "email"},
		{"missing password", SignupRequest{FirstName: "A", LastName: "B", Email: "a@b.co"}, "password"},
		{"missing first name", SignupRequest{LastName: "B", Email: "a@b.co", Password: "x"}, "first_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Contains(t, err.Error(), tc.wantField)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := NewAuthService(userRepo)

	userRepo.On("Create", mock.Anything, mock.Anything).Return(common.ErrConflict)

	_, err := svc.Signup(context.Background(), SignupRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "s3cret",
	})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestLogin(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := NewAuthService(userRepo)

	hash, err := security.HashPassword("s3cret")
	require.NoError(t, err)
	user := &model.User{ID: "user-1", Email: "ada@example.com", HashedPassword: hash}

	userRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(user, nil)
	userRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, common.ErrNotFound)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "s3cret"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "user-1", resp.User.ID)
	})

	// Unknown email and wrong password produce the same generic error.
	t.Run("wrong password", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		assert.Nil(t, resp)
	})

	t.Run("unknown email", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "s3cret"})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		assert.Nil(t, resp)
	})
}
