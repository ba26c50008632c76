package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cassette/cache"
	"cassette/config"
	"cassette/core/lifecycle"
	"cassette/core/stats"
	"cassette/db"
	"cassette/logger"
	"cassette/model"
	"cassette/repository"
	"cassette/storage"

	"github.com/gorilla/mux"
)

// catalogSource adapts the repositories to the aggregation engine's
// counter interface.
type catalogSource struct {
	users  repository.UserRepository
	songs  repository.SongRepository
	albums repository.AlbumRepository
}

func (c catalogSource) CountUsersByRole(ctx context.Context, role model.Role) (int64, error) {
	return c.users.CountUsersByRole(ctx, role)
}
func (c catalogSource) CountSongs(ctx context.Context) (int64, error) {
	return c.songs.CountSongs(ctx)
}
func (c catalogSource) CountAlbums(ctx context.Context) (int64, error) {
	return c.albums.CountAlbums(ctx)
}
func (c catalogSource) CountGenres(ctx context.Context) (int64, error) {
	return c.songs.CountGenres(ctx)
}

// Start initializes every dependency and runs the HTTP server until
// an interrupt arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("failed to initialize object storage", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect migration session", logger.ErrorField(err))
	}
	if err := db.MigrateSchema(); err != nil {
		logger.Fatal("failed to migrate schema", logger.ErrorField(err))
	}
	db.CloseGormDB()

	if err := db.EnsureAdmin(cfg); err != nil {
		logger.Fatal("failed to provision admin account", logger.ErrorField(err))
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	userRepo := repository.NewMySQLUserRepository(db.DB)
	songRepo := repository.NewMySQLSongRepository(db.DB)
	albumRepo := repository.NewMySQLAlbumRepository(db.DB)
	playlistRepo := repository.NewMySQLPlaylistRepository(db.DB)
	queueRepo := repository.NewMySQLQueueRepository(db.DB)
	ratingRepo := repository.NewMySQLRatingRepository(db.DB)
	playRepo := repository.NewMySQLPlayRepository(db.DB)
	store := repository.NewSQLStore(db.DB)

	manager := lifecycle.NewManager(userRepo, songRepo, albumRepo, playlistRepo, queueRepo, ratingRepo, playRepo, store)
	engine := stats.NewEngine(ratingRepo, playRepo, catalogSource{users: userRepo, songs: songRepo, albums: albumRepo})
	statsCache := cache.NewStatsCache(cache.RedisClient, cfg.StatsTTL)

	apiHandler := NewAPIHandler(manager, engine, userRepo, songRepo, albumRepo, playlistRepo, queueRepo, statsCache, cfg)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// Auth
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", apiHandler.AuthMiddleware(apiHandler.LogoutHandler)).Methods(http.MethodPost)

	// Account
	router.HandleFunc("/api/users/me", apiHandler.AuthMiddleware(apiHandler.MeHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/me/creator", apiHandler.AuthMiddleware(apiHandler.UpgradeToCreatorHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/users/me/dark-mode", apiHandler.AuthMiddleware(apiHandler.DarkModeHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/users/me/picture", apiHandler.AuthMiddleware(apiHandler.UploadProfilePicHandler)).Methods(http.MethodPost)

	// User administration
	router.HandleFunc("/api/users", apiHandler.RequireAdmin(apiHandler.ListUsersHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id}", apiHandler.RequireAdmin(apiHandler.DeleteUserHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/users/{id}/blacklist", apiHandler.RequireAdmin(apiHandler.ToggleBlacklistHandler)).Methods(http.MethodPut)

	// Songs
	router.HandleFunc("/api/songs", apiHandler.AuthMiddleware(apiHandler.ListSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", apiHandler.AuthMiddleware(apiHandler.UploadSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/mine", apiHandler.AuthMiddleware(apiHandler.MySongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.GetSongHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateSongHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteSongHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/songs/{id}/flag", apiHandler.RequireAdmin(apiHandler.ToggleSongFlagHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/songs/{id}/rate", apiHandler.AuthMiddleware(apiHandler.RateSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/rating", apiHandler.AuthMiddleware(apiHandler.SongRatingHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}/stream", apiHandler.AuthMiddleware(apiHandler.StreamSongHandler)).Methods(http.MethodGet)

	// Albums
	router.HandleFunc("/api/albums", apiHandler.AuthMiddleware(apiHandler.ListAlbumsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/albums", apiHandler.AuthMiddleware(apiHandler.CreateAlbumHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/albums/mine", apiHandler.AuthMiddleware(apiHandler.MyAlbumsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/albums/{id}", apiHandler.AuthMiddleware(apiHandler.GetAlbumHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/albums/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateAlbumHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/albums/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteAlbumHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/albums/{id}/flag", apiHandler.RequireAdmin(apiHandler.ToggleAlbumFlagHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/albums/{id}/songs/{song_id}", apiHandler.AuthMiddleware(apiHandler.AddSongToAlbumHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/albums/{id}/songs/{song_id}", apiHandler.AuthMiddleware(apiHandler.RemoveSongFromAlbumHandler)).Methods(http.MethodDelete)

	// Playlists
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.MyPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/public", apiHandler.AuthMiddleware(apiHandler.PublicPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.GetPlaylistHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.DeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/songs/{song_id}", apiHandler.AuthMiddleware(apiHandler.AddSongToPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/songs/{song_id}", apiHandler.AuthMiddleware(apiHandler.RemoveSongFromPlaylistHandler)).Methods(http.MethodDelete)

	// Queue
	router.HandleFunc("/api/queue", apiHandler.AuthMiddleware(apiHandler.GetQueueHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/queue", apiHandler.AuthMiddleware(apiHandler.AddToQueueHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/queue", apiHandler.AuthMiddleware(apiHandler.ClearQueueHandler)).Methods(http.MethodDelete)

	// Statistics
	router.HandleFunc("/api/stats/overview", apiHandler.RequireAdmin(apiHandler.OverviewHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/ranked", apiHandler.AuthMiddleware(apiHandler.RankedSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/plays/songs", apiHandler.RequireAdmin(apiHandler.PlaysBySongHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/plays/users", apiHandler.RequireAdmin(apiHandler.PlaysByUserHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/monthly", apiHandler.RequireAdmin(apiHandler.MonthlyUsageHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/creator", apiHandler.AuthMiddleware(apiHandler.CreatorDashboardHandler)).Methods(http.MethodGet)

	// Covers and profile pictures served straight from object storage.
	router.PathPrefix("/media/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/media/")

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, err := storage.GetObject(ctx, objectPath)
		if err != nil {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		contentType := "application/octet-stream"
		if strings.HasPrefix(objectPath, "covers/") || strings.HasPrefix(objectPath, "profiles/") {
			contentType = "image/jpeg"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")

		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("failed to serve media object", logger.ErrorField(err))
		}
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("server stopped")
}
