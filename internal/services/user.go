package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/contactsbook/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateRefreshToken(ctx context.Context, id int, token *string) error
	ConfirmEmail(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email string, avatarURL string) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Create stores a new user. Accounts start unconfirmed with the default
// role and a Gravatar-derived avatar URL.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	if user.Avatar == nil {
		avatar := gravatarURL(user.Email)
		user.Avatar = &avatar
	}
	return s.repo.Create(ctx, user)
}

// UpdateRefreshToken replaces the stored refresh token; nil clears it.
func (s *UserService) UpdateRefreshToken(ctx context.Context, id int, token *string) error {
	return s.repo.UpdateRefreshToken(ctx, id, token)
}

func (s *UserService) ConfirmEmail(ctx context.Context, email string) error {
	return s.repo.ConfirmEmail(ctx, email)
}

func (s *UserService) UpdateAvatar(ctx context.Context, email string, avatarURL string) (types.User, error) {
	return s.repo.UpdateAvatar(ctx, email, avatarURL)
}

// gravatarURL derives the default avatar from the email per the
// Gravatar convention: md5 of the trimmed, lowercased address.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:])
}
