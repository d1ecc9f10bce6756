package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/susu3304/guildbot/internal/config"
	"github.com/susu3304/guildbot/internal/db"
	"github.com/susu3304/guildbot/internal/split"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Store is the part of the database the API reads directly.
type Store interface {
	RegisteredGuildIDs(ctx context.Context) ([]int64, error)
	ListRounds(ctx context.Context, guildID int64, limit int) ([]db.Round, error)
	RoundEntries(ctx context.Context, guildID int64, roundID string) ([]db.RoundEntry, error)
}

type RoundNotifier interface {
	RoundCommitted(ctx context.Context, round *db.Round, sum split.Summary) error
}

type API struct {
	router      *mux.Router
	server      *http.Server
	store       Store
	split       *split.Service
	notifier    RoundNotifier
	config      *config.Config
	oauthConfig *oauth2.Config
	jwtSecret   []byte
	logger      *zap.Logger

	// guildAccess reports whether the holder of a Discord access token is in the guild.
	guildAccess func(ctx context.Context, accessToken string, guildID int64) bool
}

func New(cfg *config.Config, store Store, svc *split.Service, notifier RoundNotifier, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &API{
		router:    mux.NewRouter(),
		store:     store,
		split:     svc,
		notifier:  notifier,
		config:    cfg,
		jwtSecret: []byte(cfg.JWTSecret),
		logger:    logger,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
	}
	api.guildAccess = api.userHasGuildAccess

	api.setupRoutes()
	api.server = &http.Server{
		Addr:              cfg.WebBind,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return api
}

func (a *API) setupRoutes() {
	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/user/guilds", a.handleUserGuilds).Methods("GET")

	guild := protected.PathPrefix("/guilds/{guild_id:[0-9]+}").Subrouter()
	guild.Use(a.guildMiddleware)

	guild.HandleFunc("/diamonds", a.handleOpen).Methods("GET")
	guild.HandleFunc("/diamonds", a.handleClose).Methods("DELETE")
	guild.HandleFunc("/diamonds/budget", a.handleSetBudget).Methods("PUT")
	guild.HandleFunc("/diamonds/distribute", a.handleDistribute).Methods("POST")
	guild.HandleFunc("/diamonds/members/{member_id}/nudge", a.handleNudge).Methods("POST")
	guild.HandleFunc("/diamonds/members/{member_id}", a.handleOverride).Methods("PUT")
	guild.HandleFunc("/diamonds/reset", a.handleReset).Methods("POST")
	guild.HandleFunc("/diamonds/reload", a.handleReload).Methods("POST")
	guild.HandleFunc("/diamonds/export.csv", a.handleExportCSV).Methods("GET")
	guild.HandleFunc("/diamonds/commit", a.handleCommit).Methods("POST")
	guild.HandleFunc("/diamonds/rounds", a.handleListRounds).Methods("GET")
	guild.HandleFunc("/diamonds/rounds/{round_id}", a.handleRoundEntries).Methods("GET")
}

// Handler is the router wrapped with CORS. Only the web UI origin may call the API
// from a browser; without one configured every origin is allowed.
func (a *API) Handler() http.Handler {
	origins := []string{"*"}
	if a.config.WebUIBaseURL != "" {
		origins = []string{a.config.WebUIBaseURL}
	}
	corsOptions := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start blocks until the server stops. It returns http.ErrServerClosed after Shutdown,
// including when Shutdown ran first.
func (a *API) Start() error {
	a.logger.Info("api: listening", zap.String("addr", "http://"+a.config.WebBind))
	return a.server.ListenAndServe()
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
