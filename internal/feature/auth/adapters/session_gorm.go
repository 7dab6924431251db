package adapters

import (
	"context"
	"errors"

	"petserver/internal/feature/auth/usecase"

	"gorm.io/gorm"
)

// sessionGorm is a SQL implementation of the SessionRepository interface.
type sessionGorm struct {
	db *gorm.DB
}

// Compile-time check to ensure sessionGorm implements SessionRepository.
var _ usecase.SessionRepository = (*sessionGorm)(nil)

// NewSessionGorm creates a new instance of sessionGorm.
func NewSessionGorm(db *gorm.DB) *sessionGorm {
	return &sessionGorm{db: db}
}

// Create persists token -> email.
func (r *sessionGorm) Create(ctx context.Context, token, email string) error {
	return r.db.WithContext(ctx).Create(&SessionModel{Token: token, Email: email}).Error
}

// FindEmail retrieves the email owning token.
func (r *sessionGorm) FindEmail(ctx context.Context, token string) (string, error) {
	var model SessionModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", usecase.ErrSessionNotFound
		}
		return "", err
	}
	return model.Email, nil
}

// Delete removes the session by token.
func (r *sessionGorm) Delete(ctx context.Context, token string) error {
	result := r.db.WithContext(ctx).Where("token = ?", token).Delete(&SessionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// Reset removes all sessions.
func (r *sessionGorm) Reset(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&SessionModel{}).Error
}
