package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blindtest-service/internal/app"
	"blindtest-service/internal/config"
	"blindtest-service/internal/domain"
	"blindtest-service/internal/infra/memory"
	pgstore "blindtest-service/internal/infra/postgres"
	redisstore "blindtest-service/internal/infra/redis"
	"blindtest-service/internal/spotify"
	transport "blindtest-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the blindtest server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	spotifyClient, err := spotify.NewClient(spotify.Config{
		ClientID:    cfg.Spotify.ClientID,
		RedirectURI: cfg.Spotify.RedirectURI,
		Scopes:      cfg.SpotifyScopes(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	verifiers := memory.NewVerifierStore()
	tokens := memory.NewTokenStore()
	settings := app.NewSettingsStore(cfg.GameSettings())

	policy := memory.CachePolicy{
		TTL:            config.TTLDuration(cfg.Quiz.CacheTTL, 24*time.Hour),
		MinDurationMS:  cfg.MinTrackDurationMS(),
		MinSongsToPlay: settings.Current().MinSongsToPlay,
	}
	fetcher := spotify.NewLibraryFetcher(spotifyClient, tokens)

	var library app.LibraryRepository
	if redisClient != nil {
		library = redisstore.NewLibraryCache(redisClient, fetcher, policy)
	} else {
		library = memory.NewLibraryCache(fetcher, policy)
	}

	var scores app.HighScoreRepository
	switch {
	case pool != nil:
		scores = pgstore.NewHighScoreStore(pool)
	case redisClient != nil:
		scores = redisstore.NewHighScoreStore(redisClient)
	default:
		scores = memory.NewHighScoreStore()
	}

	gameCfg := app.GameConfig{
		QuizSeconds:   cfg.QuizSeconds(),
		FeedbackDelay: cfg.FeedbackDelay(),
		TickInterval:  time.Second,
		PlayerVolume:  cfg.PlayerVolume(),
	}
	service := app.NewGameService(library, scores, settings, memory.NewSessionStore(), gameCfg, logger)

	playerFactory := func(userID, deviceID string) (app.Player, error) {
		creds, ok := tokens.Credentials(userID)
		if !ok {
			return nil, domain.ErrNotAuthenticated
		}
		return spotify.NewBoundPlayer(spotifyClient.Player(), creds.AccessToken, deviceID), nil
	}

	authHandler := transport.NewAuthHandler(spotifyClient, verifiers, tokens, service, logger)
	gameHandler := transport.NewGameHandler(service, playerFactory, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/login", authHandler.Login)
	mux.HandleFunc("/callback", authHandler.Callback)
	mux.HandleFunc("/logout", authHandler.Logout)
	mux.HandleFunc("/ws", gameHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info().Str("port", finalPort).Msg("starting blindtest service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down server")
	case <-ctx.Done():
		logger.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
