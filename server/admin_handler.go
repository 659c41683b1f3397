package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"Audiotheque/core/audio"
	"Audiotheque/core/queue"
	"Audiotheque/core/role"
	"Audiotheque/logger"
	"Audiotheque/model"
	"Audiotheque/repository"
	"Audiotheque/storage"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type playlistRequest struct {
	Name string `json:"name"`
}

type audioUpdateRequest struct {
	Title      string   `json:"title"`
	PlaylistID *string  `json:"playlistId"`
	Date       *string  `json:"date"`
	VisibleFor []string `json:"visibleFor"`
}

type toggleRoleRequest struct {
	Role string `json:"role"`
}

type uploadResponse struct {
	Audio     model.Audio           `json:"audio"`
	Upload    *storage.UploadResult `json:"upload"`
	SizeHuman string                `json:"sizeHuman"`
}

// HandleCreatePlaylist 创建歌单
func (h *APIHandler) HandleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	pl, err := h.playlists.Create(r.Context(), name)
	if err != nil {
		writeRepoError(w, "Create playlist", err)
		return
	}
	h.library.Invalidate(r.Context())

	logger.Info("Playlist created", logger.String("id", pl.ID), logger.String("name", pl.Name))
	writeJSON(w, http.StatusCreated, pl)
}

// HandleRenamePlaylist 重命名歌单
func (h *APIHandler) HandleRenamePlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.playlists.Rename(r.Context(), id, name); err != nil {
		writeRepoError(w, "Rename playlist", err)
		return
	}
	h.library.Invalidate(r.Context())

	pl, err := h.playlists.Get(r.Context(), id)
	if err != nil {
		writeRepoError(w, "Get playlist", err)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

// HandleDeletePlaylist removes a playlist. Its tracks are kept and simply
// no longer reachable through it.
func (h *APIHandler) HandleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.playlists.Delete(r.Context(), id); err != nil {
		writeRepoError(w, "Delete playlist", err)
		return
	}
	h.library.Invalidate(r.Context())

	logger.Info("Playlist deleted", logger.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAudios returns every track, newest upload first.
func (h *APIHandler) HandleListAudios(w http.ResponseWriter, r *http.Request) {
	audios, err := h.audios.ListAll(r.Context())
	if err != nil {
		writeRepoError(w, "List audios", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(audios))
}

// parseVisibility reads role names; an empty input means everyone.
func parseVisibility(values []string) (model.RoleList, error) {
	if len(values) == 0 {
		return role.DefaultVisibility(), nil
	}
	set := make(model.RoleList, 0, len(values))
	for _, v := range values {
		rl, err := model.ParseRole(v)
		if err != nil {
			return nil, err
		}
		set = append(set, rl)
	}
	return role.NormalizeVisibility(set), nil
}

// parseDate accepts "" as no date.
func parseDate(v string) (*string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if _, err := queue.ParseDate(v); err != nil {
		return nil, err
	}
	return &v, nil
}

// HandleUploadAudio stores a new track: the file goes to the media host and
// a document is created at the end of its playlist.
func (h *APIHandler) HandleUploadAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid upload form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		logger.Warn("Rejected upload", logger.String("contentType", contentType), logger.String("filename", header.Filename))
		writeError(w, http.StatusBadRequest, "file must be an audio file")
		return
	}

	playlistID := strings.TrimSpace(r.FormValue("playlistId"))
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "playlistId is required")
		return
	}
	if _, err := h.playlists.Get(ctx, playlistID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown playlist")
			return
		}
		writeRepoError(w, "Get playlist", err)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = audio.TitleFromFilename(header.Filename)
	}
	date, err := parseDate(r.FormValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	visibleFor, err := parseVisibility(formValues(r, "visibleFor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tmp, err := os.CreateTemp("", "audiotheque-upload-*")
	if err != nil {
		logger.Error("Failed to create temp file", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, file)
	if err != nil {
		logger.Error("Failed to buffer upload", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var info *audio.Info
	if h.prober != nil {
		info, err = h.prober.Probe(ctx, tmp.Name())
		if err != nil {
			logger.Warn("Probe failed", logger.String("filename", header.Filename), logger.ErrorField(err))
		}
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		logger.Error("Failed to rewind upload", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result, err := h.media.Upload(ctx, header.Filename, tmp, size, contentType)
	if err != nil {
		logger.Error("Media upload failed", logger.String("filename", header.Filename), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	if info != nil {
		result.Duration = audio.RoundDuration(info.Duration)
		if result.Format == "" && info.FileType != "" {
			result.Format = strings.ToLower(info.FileType)
		}
	}

	count, err := h.audios.CountByPlaylist(ctx, playlistID)
	if err != nil {
		h.discardMedia(ctx, result.PublicID)
		writeRepoError(w, "Count playlist audios", err)
		return
	}

	a := model.Audio{
		ID:         uuid.NewString(),
		Title:      title,
		PlaylistID: playlistID,
		URL:        result.URL,
		PublicID:   result.PublicID,
		Format:     result.Format,
		Duration:   result.Duration,
		Date:       date,
		VisibleFor: visibleFor,
		Size:       size,
		UploadedAt: h.now().UTC(),
		Order:      int(count),
	}
	if err := h.audios.Create(ctx, &a); err != nil {
		h.discardMedia(ctx, result.PublicID)
		writeRepoError(w, "Create audio", err)
		return
	}
	h.library.Invalidate(ctx)

	logger.Info("Audio uploaded",
		logger.String("id", a.ID),
		logger.String("title", a.Title),
		logger.String("playlistId", a.PlaylistID),
		logger.Int("duration", a.Duration),
		logger.String("size", humanize.IBytes(uint64(size))))

	writeJSON(w, http.StatusCreated, uploadResponse{
		Audio:     a,
		Upload:    result,
		SizeHuman: humanize.IBytes(uint64(size)),
	})
}

// formValues accepts both "name" and "name[]" fields.
func formValues(r *http.Request, name string) []string {
	if r.MultipartForm == nil {
		return nil
	}
	vals := append([]string{}, r.MultipartForm.Value[name]...)
	return append(vals, r.MultipartForm.Value[name+"[]"]...)
}

// discardMedia removes an object whose document could not be written.
func (h *APIHandler) discardMedia(ctx context.Context, key string) {
	if err := h.media.Delete(ctx, key); err != nil {
		logger.Warn("Failed to remove orphaned media", logger.String("key", key), logger.ErrorField(err))
	}
}

// HandleUpdateAudio edits the metadata of a track.
func (h *APIHandler) HandleUpdateAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	var req audioUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	a, err := h.audios.Get(ctx, id)
	if err != nil {
		writeRepoError(w, "Get audio", err)
		return
	}
	a.Title = title

	if req.PlaylistID != nil {
		pid := strings.TrimSpace(*req.PlaylistID)
		if pid == "" {
			writeError(w, http.StatusBadRequest, "playlistId must not be empty")
			return
		}
		if pid != a.PlaylistID {
			if _, err := h.playlists.Get(ctx, pid); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					writeError(w, http.StatusBadRequest, "unknown playlist")
					return
				}
				writeRepoError(w, "Get playlist", err)
				return
			}
			a.PlaylistID = pid
		}
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		a.Date = date
	}
	if req.VisibleFor != nil {
		set, err := parseVisibility(req.VisibleFor)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.VisibleFor = set
	}

	if err := h.audios.Update(ctx, a); err != nil {
		writeRepoError(w, "Update audio", err)
		return
	}
	h.library.Invalidate(ctx)
	writeJSON(w, http.StatusOK, a)
}

// HandleToggleAudioRole flips one role in the visibility set of a track.
func (h *APIHandler) HandleToggleAudioRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	var req toggleRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rl, err := model.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.audios.Get(ctx, id)
	if err != nil {
		writeRepoError(w, "Get audio", err)
		return
	}
	a.VisibleFor = role.TogglePermission(a.VisibleFor, rl)
	if err := h.audios.Update(ctx, a); err != nil {
		writeRepoError(w, "Update audio", err)
		return
	}
	h.library.Invalidate(ctx)
	writeJSON(w, http.StatusOK, a)
}

// HandleDeleteAudio deletes the document, then the media object. A media
// failure is logged and left to the janitor.
func (h *APIHandler) HandleDeleteAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	a, err := h.audios.Get(ctx, id)
	if err != nil {
		writeRepoError(w, "Get audio", err)
		return
	}
	if err := h.audios.Delete(ctx, id); err != nil {
		writeRepoError(w, "Delete audio", err)
		return
	}
	h.library.Invalidate(ctx)

	if a.PublicID != "" {
		if err := h.media.Delete(ctx, a.PublicID); err != nil {
			logger.Warn("Media delete failed", logger.String("key", a.PublicID), logger.ErrorField(err))
		}
	}
	logger.Info("Audio deleted", logger.String("id", id), logger.String("title", a.Title))
	w.WriteHeader(http.StatusNoContent)
}
