package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"petserver/internal/feature/auth/domain/entity"
	"petserver/internal/feature/auth/usecase"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
// SQLite / PostgreSQL のどちらでも動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Upsert は既存レコードに空でないフィールドをマージして保存します。
// レコードが存在しない場合は新規作成します。
func (r *userGorm) Upsert(ctx context.Context, patch *entity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u entity.User
		err := tx.Where("email = ?", patch.Email).First(&u).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		u.Merge(patch)
		return tx.Save(&u).Error
	})
}

// Reset は全ユーザーを削除します。
func (r *userGorm) Reset(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&entity.User{}).Error
}
