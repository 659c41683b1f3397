package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"Audiotheque/config"
	"Audiotheque/core/audio"
	"Audiotheque/core/auth"
	"Audiotheque/logger"
	"Audiotheque/model"
	"Audiotheque/repository"
	"Audiotheque/storage"
)

// MediaStore is the media host as seen by the handlers.
type MediaStore interface {
	Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (*storage.UploadResult, error)
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadSeekCloser, storage.ObjectInfo, error)
}

// StateStore remembers OAuth state parameters.
type StateStore interface {
	Save(ctx context.Context, state, returnTo string) error
	Consume(ctx context.Context, state string) (string, bool, error)
}

// IdentityProvider runs the federated sign-in flow.
type IdentityProvider interface {
	Configured() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// RoleResolver maps an email to its role.
type RoleResolver interface {
	Resolve(email string) model.Role
}

// Deps groups everything the API handler is built from.
type Deps struct {
	Config    *config.Config
	Playlists repository.PlaylistRepository
	Audios    repository.AudioRepository
	Users     repository.UserRepository
	Library   *Library
	Media     MediaStore
	Prober    audio.Prober
	Roles     RoleResolver
	Tokens    *auth.TokenIssuer
	Identity  IdentityProvider
	States    StateStore
}

// APIHandler 处理所有API请求
type APIHandler struct {
	cfg       *config.Config
	playlists repository.PlaylistRepository
	audios    repository.AudioRepository
	users     repository.UserRepository
	library   *Library
	media     MediaStore
	prober    audio.Prober
	roles     RoleResolver
	tokens    *auth.TokenIssuer
	identity  IdentityProvider
	states    StateStore
	now       func() time.Time
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(d Deps) *APIHandler {
	lib := d.Library
	if lib == nil {
		lib = NewLibrary(d.Playlists, d.Audios, nil, d.Config.CalendarLocation())
	}
	return &APIHandler{
		cfg:       d.Config,
		playlists: d.Playlists,
		audios:    d.Audios,
		users:     d.Users,
		library:   lib,
		media:     d.Media,
		prober:    d.Prober,
		roles:     d.Roles,
		tokens:    d.Tokens,
		identity:  d.Identity,
		states:    d.States,
		now:       time.Now,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeRepoError maps a repository error to a response, logging the
// unexpected ones.
func writeRepoError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	logger.Error(op+" failed", logger.ErrorField(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(dst)
}
