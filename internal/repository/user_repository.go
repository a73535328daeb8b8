package repository

import (
	"context"
	"errors"
	"strings"

	"daytracker/internal/model"

	"gorm.io/gorm"
)

// UserRepositoryInterface is the account storage used by register/login.
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new account. Emails are kept lowercased; a second account
// with the same email fails with ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return err
}

// FindByEmail returns nil, nil when no account uses the email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		Limit(1).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
