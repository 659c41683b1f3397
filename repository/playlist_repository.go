package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Audiotheque/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaylistRepository 播放列表数据访问接口
type PlaylistRepository interface {
	List(ctx context.Context) ([]model.Playlist, error)
	Get(ctx context.Context, id string) (*model.Playlist, error)
	Create(ctx context.Context, name string) (*model.Playlist, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// gormPlaylistRepository GORM 实现
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository 创建 GORM 播放列表仓库
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// List returns every playlist by display order.
func (r *gormPlaylistRepository) List(ctx context.Context) ([]model.Playlist, error) {
	var playlists []model.Playlist
	if err := r.db.WithContext(ctx).
		Order("sort_order ASC, created_at ASC").
		Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return playlists, nil
}

func (r *gormPlaylistRepository) Get(ctx context.Context, id string) (*model.Playlist, error) {
	var p model.Playlist
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get playlist %s: %w", id, err)
	}
	return &p, nil
}

// Create appends a playlist after the existing ones.
func (r *gormPlaylistRepository) Create(ctx context.Context, name string) (*model.Playlist, error) {
	p := &model.Playlist{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Playlist{}).Count(&count).Error; err != nil {
			return err
		}
		p.Order = int(count)
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	return p, nil
}

func (r *gormPlaylistRepository) Rename(ctx context.Context, id, name string) error {
	res := r.db.WithContext(ctx).Model(&model.Playlist{}).
		Where("id = ?", id).
		Update("name", name)
	if res.Error != nil {
		return fmt.Errorf("rename playlist %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports 0 rows when the name is unchanged
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the playlist only; its tracks stay in the library.
func (r *gormPlaylistRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Playlist{})
	if res.Error != nil {
		return fmt.Errorf("delete playlist %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormPlaylistRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Playlist{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count playlists: %w", err)
	}
	return count, nil
}
