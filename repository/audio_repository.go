package repository

import (
	"context"
	"errors"
	"fmt"

	"Audiotheque/model"

	"gorm.io/gorm"
)

// AudioRepository 音频数据访问接口
type AudioRepository interface {
	ListAll(ctx context.Context) ([]model.Audio, error)
	ListByPlaylist(ctx context.Context, playlistID string) ([]model.Audio, error)
	Get(ctx context.Context, id string) (*model.Audio, error)
	Create(ctx context.Context, audio *model.Audio) error
	Update(ctx context.Context, audio *model.Audio) error
	Delete(ctx context.Context, id string) error
	CountByPlaylist(ctx context.Context, playlistID string) (int64, error)
	ListPublicIDs(ctx context.Context) ([]string, error)
}

// gormAudioRepository GORM 实现
type gormAudioRepository struct {
	db *gorm.DB
}

// NewGormAudioRepository 创建 GORM 音频仓库
func NewGormAudioRepository(db *gorm.DB) AudioRepository {
	return &gormAudioRepository{db: db}
}

// ListAll returns every audio, newest upload first.
func (r *gormAudioRepository) ListAll(ctx context.Context) ([]model.Audio, error) {
	var audios []model.Audio
	if err := r.db.WithContext(ctx).Order("uploaded_at DESC").Find(&audios).Error; err != nil {
		return nil, fmt.Errorf("list audios: %w", err)
	}
	return audios, nil
}

// ListByPlaylist returns the raw batch of one playlist. Callers sort.
func (r *gormAudioRepository) ListByPlaylist(ctx context.Context, playlistID string) ([]model.Audio, error) {
	var audios []model.Audio
	if err := r.db.WithContext(ctx).Where("playlist_id = ?", playlistID).Find(&audios).Error; err != nil {
		return nil, fmt.Errorf("list audios of playlist %s: %w", playlistID, err)
	}
	return audios, nil
}

func (r *gormAudioRepository) Get(ctx context.Context, id string) (*model.Audio, error) {
	var a model.Audio
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get audio %s: %w", id, err)
	}
	return &a, nil
}

func (r *gormAudioRepository) Create(ctx context.Context, audio *model.Audio) error {
	if err := r.db.WithContext(ctx).Create(audio).Error; err != nil {
		return fmt.Errorf("create audio: %w", err)
	}
	return nil
}

// Update writes the editable fields of audio.
func (r *gormAudioRepository) Update(ctx context.Context, audio *model.Audio) error {
	res := r.db.WithContext(ctx).Model(&model.Audio{}).
		Where("id = ?", audio.ID).
		Updates(map[string]interface{}{
			"title":       audio.Title,
			"playlist_id": audio.PlaylistID,
			"date":        audio.Date,
			"visible_for": audio.VisibleFor,
		})
	if res.Error != nil {
		return fmt.Errorf("update audio %s: %w", audio.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, audio.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *gormAudioRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Audio{})
	if res.Error != nil {
		return fmt.Errorf("delete audio %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormAudioRepository) CountByPlaylist(ctx context.Context, playlistID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Audio{}).
		Where("playlist_id = ?", playlistID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count audios of playlist %s: %w", playlistID, err)
	}
	return count, nil
}

// ListPublicIDs returns the media keys referenced by any audio.
func (r *gormAudioRepository) ListPublicIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Audio{}).
		Where("public_id <> ''").
		Pluck("public_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list public ids: %w", err)
	}
	return ids, nil
}
