package server

import (
	"net/http"
	"strconv"
	"time"

	"Audiotheque/core/queue"
	"Audiotheque/core/role"
	"Audiotheque/model"

	"github.com/gorilla/mux"
)

type meResponse struct {
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Role        model.Role `json:"role"`
	RoleLabel   string     `json:"roleLabel"`
	CanManage   bool       `json:"canManage"`
}

type playlistTracksResponse struct {
	Playlist model.Playlist `json:"playlist"`
	Tracks   []model.Audio  `json:"tracks"`
}

type dayResponse struct {
	Date   string        `json:"date"`
	Tracks []model.Audio `json:"tracks"`
}

// HandleMe returns the signed-in user.
func (h *APIHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	writeJSON(w, http.StatusOK, meResponse{
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		RoleLabel:   p.Role.Label(),
		CanManage:   role.CanManageContent(p.Role),
	})
}

// HandleListPlaylists 获取歌单列表
func (h *APIHandler) HandleListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.library.Playlists(r.Context())
	if err != nil {
		writeRepoError(w, "List playlists", err)
		return
	}
	if playlists == nil {
		playlists = []model.Playlist{}
	}
	writeJSON(w, http.StatusOK, playlists)
}

// HandlePlaylistTracks returns the ordered tracks of a playlist the user
// may see.
func (h *APIHandler) HandlePlaylistTracks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, _ := PrincipalFrom(r.Context())

	pl, err := h.playlists.Get(r.Context(), id)
	if err != nil {
		writeRepoError(w, "Get playlist", err)
		return
	}
	tracks, err := h.library.PlaylistQueue(r.Context(), id, p.Role)
	if err != nil {
		writeRepoError(w, "List playlist tracks", err)
		return
	}
	writeJSON(w, http.StatusOK, playlistTracksResponse{Playlist: *pl, Tracks: nonNil(tracks)})
}

// HandleCalendarMonth returns the month grid. Without query parameters it
// shows the current month.
func (h *APIHandler) HandleCalendarMonth(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	now := h.now().In(h.library.Location())

	year, month := now.Year(), now.Month()
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(m)
	}

	cal, err := h.library.Calendar(r.Context(), p.Role)
	if err != nil {
		writeRepoError(w, "Build calendar", err)
		return
	}
	grid, err := cal.Month(year, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// HandleCalendarDay returns the tracks of one day.
func (h *APIHandler) HandleCalendarDay(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if _, err := queue.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	p, _ := PrincipalFrom(r.Context())

	cal, err := h.library.Calendar(r.Context(), p.Role)
	if err != nil {
		writeRepoError(w, "Build calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{Date: date, Tracks: nonNil(cal.Day(date))})
}

func nonNil(tracks []model.Audio) []model.Audio {
	if tracks == nil {
		return []model.Audio{}
	}
	return tracks
}
