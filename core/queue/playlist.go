package queue

import (
	"slices"

	"Audiotheque/core/role"
	"Audiotheque/model"
)

// PlaylistQueue builds the playback queue of one playlist for role: tracks
// of other playlists and hidden tracks are dropped, the rest is stably
// sorted by Order.
func PlaylistQueue(tracks []model.Audio, playlistID string, r model.Role) []model.Audio {
	out := make([]model.Audio, 0, len(tracks))
	for _, t := range tracks {
		if t.PlaylistID == playlistID && role.Visible(r, t.VisibleFor) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Audio) int {
		return a.Order - b.Order
	})
	return out
}

// SortPlaylists orders playlists by their Order field, keeping ties stable.
func SortPlaylists(playlists []model.Playlist) {
	slices.SortStableFunc(playlists, func(a, b model.Playlist) int {
		return a.Order - b.Order
	})
}
