package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/spotlight-api/internal/config"
	"github.com/prperemyshlev/spotlight-api/internal/gateway"
	"github.com/prperemyshlev/spotlight-api/internal/handler"
	"github.com/prperemyshlev/spotlight-api/internal/repository"
	"github.com/prperemyshlev/spotlight-api/internal/service"
	"github.com/prperemyshlev/spotlight-api/internal/utils"
	"github.com/prperemyshlev/spotlight-api/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra   Infrastructure
	config  *config.Config
	router  *gin.Engine
	server  *http.Server
	hub     *gateway.Hub
	sweeper *TokenSweeper
}

type handlers struct {
	auth    *handler.AuthHandler
	chat    *handler.ChatHandler
	user    *handler.UserHandler
	gateway *gateway.Gateway
	health  *HealthChecker
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	logger := infra.Logger()
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	tokenIssuer := service.NewTokenIssuer(repos.Token, jwtManager, utils.NewTokenHasher(cfg.JWT.RefreshSecret))
	passwords := utils.NewPasswordHasher(utils.Argon2Params{
		Memory:      cfg.Security.Argon2Memory,
		Time:        cfg.Security.Argon2Time,
		Parallelism: cfg.Security.Argon2Parallelism,
	})

	authService := service.NewAuthService(service.AuthDeps{
		Accounts:         repos.Account,
		Tokens:           repos.Token,
		Issuer:           tokenIssuer,
		Passwords:        passwords,
		JWT:              jwtManager,
		ResetStore:       service.NewRedisResetStore(infra.Redis()),
		Notifier:         service.NewLogNotifier(logger),
		PasswordResetTTL: cfg.Security.PasswordResetTTL.Duration,
		Metrics:          infra.Metrics(),
		Logger:           logger,
	})
	chatService := service.NewChatService(repos.Chat, repos.Account, infra.Metrics(), logger)

	hub := gateway.NewHub(infra.Metrics(), logger)
	health := NewHealthChecker(map[string]Pinger{
		"postgres": infra.Postgres(),
		"redis":    infra.Redis(),
	})

	h := handlers{
		auth:    handler.NewAuthHandler(authService),
		chat:    handler.NewChatHandler(chatService, hub),
		user:    handler.NewUserHandler(service.NewUserService(repos.Account, logger)),
		gateway: gateway.NewGateway(hub, authService, chatService, cfg.CORS.AllowedOrigins, logger),
		health:  health,
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, h, authService, newRateLimiter(cfg, infra), logger, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:   infra,
		config:  cfg,
		router:  router,
		server:  srv,
		hub:     hub,
		sweeper: NewTokenSweeper(repos.Token, tokenSweepInterval, cfg.Security.RefreshTokenRetention.Duration, logger),
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// newRateLimiter builds the policy table from config on the configured store
func newRateLimiter(cfg *config.Config, infra Infrastructure) *service.RateLimiter {
	var store service.RateStore
	switch cfg.RateLimit.Store {
	case "memory":
		store = service.NewMemoryRateStore()
	default:
		store = service.NewRedisRateStore(infra.Redis())
	}

	rl := cfg.RateLimit
	return service.NewRateLimiter(store,
		service.Policy{Name: service.PolicyGeneral, Max: rl.GeneralMax, Window: rl.GeneralWindow.Duration},
		service.Policy{Name: service.PolicyLogin, Max: rl.LoginMax, Window: rl.LoginWindow.Duration},
		service.Policy{Name: service.PolicyRegister, Max: rl.RegisterMax, Window: rl.RegisterWindow.Duration},
	)
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	logger *zap.Logger,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", h.health.Handler)

	limit := func(policy string) gin.HandlerFunc {
		return handler.RateLimitMiddleware(rateLimiter, policy, logger)
	}
	requireAuth := handler.AuthMiddleware(authService)

	api := router.Group(cfg.Server.APIPrefix, limit(service.PolicyGeneral))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limit(service.PolicyRegister), h.auth.Register)
			auth.POST("/login", limit(service.PolicyLogin), h.auth.Login)
			auth.POST("/refresh-token", limit(service.PolicyLogin), h.auth.RefreshToken)
			auth.POST("/forgot-password", limit(service.PolicyLogin), h.auth.ForgotPassword)
			auth.POST("/reset-password", limit(service.PolicyLogin), h.auth.ResetPassword)
			auth.PUT("/update-password", requireAuth, h.auth.UpdatePassword)
			auth.POST("/logout", requireAuth, h.auth.Logout)
			auth.GET("/me", requireAuth, h.auth.GetMe)
		}

		users := api.Group("/users", requireAuth)
		{
			users.PUT("/me", h.user.UpdateProfile)
			users.GET("/preferences", h.user.GetPreferences)
			users.PUT("/preferences", h.user.UpdatePreferences)
			users.DELETE("/:id/disable", h.user.DisableAccount)
		}

		chat := api.Group("/chat", requireAuth)
		{
			chat.GET("", h.chat.ListRooms)
			chat.POST("", h.chat.CreateGroupRoom)
			chat.GET("/:id", h.chat.GetRoom)
			chat.POST("/:id", h.chat.CreateDirectRoom)
			chat.GET("/:id/messages", h.chat.ListMessages)
			chat.POST("/:id/messages", h.chat.SendMessage)
		}

		api.GET("/ws", h.gateway.Serve)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.sweeper.Run(sweepCtx)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
			zap.String("api_prefix", a.config.Server.APIPrefix),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	stopSweeper()

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by http.Server.
	a.hub.Close()

	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("HTTP server shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	if err := a.infra.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
