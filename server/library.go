package server

import (
	"context"
	"time"

	"Audiotheque/cache"
	"Audiotheque/core/queue"
	"Audiotheque/logger"
	"Audiotheque/model"
	"Audiotheque/repository"
)

// Library loads raw playlist and audio batches, going through the catalog
// cache when one is configured. Cache failures fall back to the store.
type Library struct {
	playlists repository.PlaylistRepository
	audios    repository.AudioRepository
	cache     *cache.CatalogCache
	loc       *time.Location
}

// NewLibrary creates a loader; catalog may be nil.
func NewLibrary(playlists repository.PlaylistRepository, audios repository.AudioRepository, catalog *cache.CatalogCache, loc *time.Location) *Library {
	if loc == nil {
		loc = time.Local
	}
	return &Library{playlists: playlists, audios: audios, cache: catalog, loc: loc}
}

// Location is the time zone used for upload-date fallback.
func (l *Library) Location() *time.Location {
	return l.loc
}

// Playlists returns every playlist in display order.
func (l *Library) Playlists(ctx context.Context) ([]model.Playlist, error) {
	if cached, ok, err := l.cache.GetPlaylists(ctx); err != nil {
		logger.Warn("Catalog cache read failed", logger.ErrorField(err))
	} else if ok {
		return cached, nil
	}

	playlists, err := l.playlists.List(ctx)
	if err != nil {
		return nil, err
	}
	queue.SortPlaylists(playlists)
	if err := l.cache.SetPlaylists(ctx, playlists); err != nil {
		logger.Warn("Catalog cache write failed", logger.ErrorField(err))
	}
	return playlists, nil
}

// PlaylistAudios returns the unsorted batch of one playlist.
func (l *Library) PlaylistAudios(ctx context.Context, playlistID string) ([]model.Audio, error) {
	if cached, ok, err := l.cache.GetPlaylistAudios(ctx, playlistID); err != nil {
		logger.Warn("Catalog cache read failed", logger.ErrorField(err))
	} else if ok {
		return cached, nil
	}

	audios, err := l.audios.ListByPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := l.cache.SetPlaylistAudios(ctx, playlistID, audios); err != nil {
		logger.Warn("Catalog cache write failed", logger.ErrorField(err))
	}
	return audios, nil
}

// AllAudios returns every audio; the calendar is built from it.
func (l *Library) AllAudios(ctx context.Context) ([]model.Audio, error) {
	if cached, ok, err := l.cache.GetAllAudios(ctx); err != nil {
		logger.Warn("Catalog cache read failed", logger.ErrorField(err))
	} else if ok {
		return cached, nil
	}

	audios, err := l.audios.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.cache.SetAllAudios(ctx, audios); err != nil {
		logger.Warn("Catalog cache write failed", logger.ErrorField(err))
	}
	return audios, nil
}

// PlaylistQueue is the ordered, role-filtered queue of a playlist.
func (l *Library) PlaylistQueue(ctx context.Context, playlistID string, r model.Role) ([]model.Audio, error) {
	audios, err := l.PlaylistAudios(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return queue.PlaylistQueue(audios, playlistID, r), nil
}

// Calendar groups the audios visible to r by effective date.
func (l *Library) Calendar(ctx context.Context, r model.Role) (*queue.Calendar, error) {
	audios, err := l.AllAudios(ctx)
	if err != nil {
		return nil, err
	}
	return queue.NewCalendar(audios, r, l.loc), nil
}

// Invalidate drops cached batches after a write.
func (l *Library) Invalidate(ctx context.Context) {
	if err := l.cache.Invalidate(ctx); err != nil {
		logger.Warn("Catalog cache invalidation failed", logger.ErrorField(err))
	}
}
