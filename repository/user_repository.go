package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Audiotheque/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	// UpsertOnLogin records a sign-in, creating the user on first visit.
	UpsertOnLogin(ctx context.Context, email, displayName string, role model.Role) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// gormUserRepository GORM 实现
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository 创建 GORM 用户仓库
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) UpsertOnLogin(ctx context.Context, email, displayName string, role model.Role) (*model.User, error) {
	now := time.Now().UTC()
	u := &model.User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		LastLoginAt: now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "role", "last_login_at", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", email, err)
	}
	return r.GetByEmail(ctx, email)
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", email, err)
	}
	return &u, nil
}

// List returns users, most recent sign-in first.
func (r *gormUserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("last_login_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
