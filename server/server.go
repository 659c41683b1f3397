package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Audiotheque/cache"
	"Audiotheque/config"
	"Audiotheque/core/audio"
	"Audiotheque/core/auth"
	"Audiotheque/core/janitor"
	"Audiotheque/core/role"
	"Audiotheque/db"
	"Audiotheque/logger"
	"Audiotheque/repository"
	"Audiotheque/storage"

	"github.com/gorilla/mux"
)

// oauthStateTTL bounds how long a sign-in may take.
const oauthStateTTL = 10 * time.Minute

// NewRouter registers every route of the application.
func NewRouter(h *APIHandler, webAppDir string) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(loggingMiddleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/google/login", h.HandleGoogleLogin).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/google/callback", h.HandleGoogleCallback).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/logout", h.HandleLogout).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/me", h.AuthMiddleware(h.HandleMe)).Methods(http.MethodGet)

	// 播放列表与日历
	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.HandleListPlaylists)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}/tracks", h.AuthMiddleware(h.HandlePlaylistTracks)).Methods(http.MethodGet)
	router.HandleFunc("/api/calendar", h.AuthMiddleware(h.HandleCalendarMonth)).Methods(http.MethodGet)
	router.HandleFunc("/api/calendar/{date}", h.AuthMiddleware(h.HandleCalendarDay)).Methods(http.MethodGet)

	// 管理端点
	router.HandleFunc("/api/admin/playlists", h.RequireAdmin(h.HandleCreatePlaylist)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/admin/playlists/{id}", h.RequireAdmin(h.HandleRenamePlaylist)).Methods(http.MethodPut, http.MethodOptions)
	router.HandleFunc("/api/admin/playlists/{id}", h.RequireAdmin(h.HandleDeletePlaylist)).Methods(http.MethodDelete)
	router.HandleFunc("/api/admin/audios", h.RequireAdmin(h.HandleListAudios)).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/audios", h.RequireAdmin(h.HandleUploadAudio)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/admin/audios/{id}", h.RequireAdmin(h.HandleUpdateAudio)).Methods(http.MethodPut, http.MethodOptions)
	router.HandleFunc("/api/admin/audios/{id}", h.RequireAdmin(h.HandleDeleteAudio)).Methods(http.MethodDelete)
	router.HandleFunc("/api/admin/audios/{id}/toggle-role", h.RequireAdmin(h.HandleToggleAudioRole)).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/ws/player", h.AuthMiddleware(h.HandlePlayerSocket))

	// 媒体文件代理
	router.HandleFunc(storage.MediaRoute+"{key:.+}", h.HandleMedia).Methods(http.MethodGet, http.MethodHead)

	// Frontend UI serving
	if webAppDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(webAppDir)))
	}
	return router
}

// Start wires the stores and services and serves HTTP until SIGINT or
// SIGTERM.
func Start(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}

	rdb, err := cache.ConnectRedis(cfg)
	if err != nil {
		return err
	}
	defer cache.CloseRedis()

	media, err := storage.NewMediaHost(cfg)
	if err != nil {
		return err
	}
	if err := media.EnsureBucket(ctx); err != nil {
		return err
	}

	resolver := role.NewResolver(cfg.AdminEmails, cfg.PrivilegedEmails)
	if cfg.RolesFile != "" {
		if err := resolver.Watch(ctx, cfg.RolesFile); err != nil {
			return fmt.Errorf("load roles file: %w", err)
		}
	}

	playlists := repository.NewGormPlaylistRepository(gdb)
	audios := repository.NewGormAudioRepository(gdb)
	users := repository.NewGormUserRepository(gdb)

	loc := cfg.CalendarLocation()
	library := NewLibrary(playlists, audios, cache.NewCatalogCache(rdb, cfg.CatalogCacheTTL), loc)

	google := auth.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	if !google.Configured() {
		logger.Warn("Google sign-in is not configured; login is disabled")
	}

	h := NewAPIHandler(Deps{
		Config:    cfg,
		Playlists: playlists,
		Audios:    audios,
		Users:     users,
		Library:   library,
		Media:     media,
		Prober:    audio.NewFFprobeProber(cfg.FFmpegPath),
		Roles:     resolver,
		Tokens:    auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Identity:  google,
		States:    cache.NewOAuthStateStore(rdb, oauthStateTTL),
	})

	sweeper := janitor.New(media, audios, janitor.DefaultGrace)
	if err := sweeper.Start(cfg.JanitorSchedule); err != nil {
		return err
	}
	defer sweeper.Stop()

	// 设置服务器超时; WriteTimeout stays off so long media responses and
	// WebSocket sessions are not cut.
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           NewRouter(h, cfg.WebAppDir),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logger.String("addr", cfg.ServerAddr),
			logger.String("publicUrl", cfg.PublicURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
