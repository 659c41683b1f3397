package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Audiotheque/model"

	"github.com/redis/go-redis/v9"
)

const (
	catalogPlaylistsKey = "catalog:playlists"
	catalogAllAudiosKey = "catalog:audios:all"
	catalogPlaylistKey  = "catalog:audios:playlist:%s"
	catalogIndexKey     = "catalog:keys" // Set of every key written above
)

// CatalogCache keeps raw playlist and audio batches in Redis. A nil
// *CatalogCache is valid and always misses.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache 创建目录缓存
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if client == nil {
		return nil
	}
	return &CatalogCache{client: client, ttl: ttl}
}

func (c *CatalogCache) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("catalog cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		// a corrupt entry is a miss; the next write replaces it
		return false, nil
	}
	return true, nil
}

func (c *CatalogCache) set(ctx context.Context, key string, v interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("catalog cache marshal: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, catalogIndexKey, key)
	pipe.Expire(ctx, catalogIndexKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("catalog cache set %s: %w", key, err)
	}
	return nil
}

// GetPlaylists returns the cached playlist batch.
func (c *CatalogCache) GetPlaylists(ctx context.Context) ([]model.Playlist, bool, error) {
	var out []model.Playlist
	ok, err := c.get(ctx, catalogPlaylistsKey, &out)
	return out, ok, err
}

// SetPlaylists caches the playlist batch.
func (c *CatalogCache) SetPlaylists(ctx context.Context, playlists []model.Playlist) error {
	return c.set(ctx, catalogPlaylistsKey, playlists)
}

// GetPlaylistAudios returns the cached audio batch of one playlist.
func (c *CatalogCache) GetPlaylistAudios(ctx context.Context, playlistID string) ([]model.Audio, bool, error) {
	var out []model.Audio
	ok, err := c.get(ctx, fmt.Sprintf(catalogPlaylistKey, playlistID), &out)
	return out, ok, err
}

// SetPlaylistAudios caches the audio batch of one playlist.
func (c *CatalogCache) SetPlaylistAudios(ctx context.Context, playlistID string, audios []model.Audio) error {
	return c.set(ctx, fmt.Sprintf(catalogPlaylistKey, playlistID), audios)
}

// GetAllAudios returns the cached batch of every audio.
func (c *CatalogCache) GetAllAudios(ctx context.Context) ([]model.Audio, bool, error) {
	var out []model.Audio
	ok, err := c.get(ctx, catalogAllAudiosKey, &out)
	return out, ok, err
}

// SetAllAudios caches the batch of every audio.
func (c *CatalogCache) SetAllAudios(ctx context.Context, audios []model.Audio) error {
	return c.set(ctx, catalogAllAudiosKey, audios)
}

// Invalidate drops every catalog entry. Called after each admin write.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	keys, err := c.client.SMembers(ctx, catalogIndexKey).Result()
	if err != nil {
		return fmt.Errorf("catalog cache index: %w", err)
	}
	keys = append(keys, catalogIndexKey, catalogPlaylistsKey, catalogAllAudiosKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("catalog cache invalidate: %w", err)
	}
	return nil
}
