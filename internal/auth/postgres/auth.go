package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/jobly/internal/auth"
	usermodel "github.com/frahmantamala/jobly/internal/core/datamodel/user"
	"github.com/frahmantamala/jobly/internal/core/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var row usermodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user credentials: %w", err)
	}
	return &auth.Credentials{
		UserID:       row.ID,
		Email:        row.Email,
		Role:         user.Role(row.Role),
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
	}, nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*user.User, error) {
	var row usermodel.User
	err := r.db.WithContext(ctx).First(&row, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user %d: %w", userID, err)
	}
	return ToDomain(&row), nil
}

func ToDomain(row *usermodel.User) *user.User {
	return &user.User{
		ID:        row.ID,
		Email:     row.Email,
		FullName:  row.FullName,
		Phone:     row.Phone,
		Role:      user.Role(row.Role),
		IsStaff:   row.IsStaff,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
	}
}
