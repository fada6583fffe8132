package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/authgate/internal/auth"
	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/auth/gate"
	"github.com/smallbiznis/authgate/internal/auth/session"
	"github.com/smallbiznis/authgate/internal/config"
	"github.com/smallbiznis/authgate/internal/observability"
	obsmiddleware "github.com/smallbiznis/authgate/internal/observability/logger"
	obstracing "github.com/smallbiznis/authgate/internal/observability/tracing"
	"github.com/smallbiznis/authgate/internal/user"
	userdomain "github.com/smallbiznis/authgate/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	user.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	log      *zap.Logger
	authsvc  authdomain.Service
	usersvc  userdomain.Service
	gate     *gate.Gate
	sessions *session.Manager
	cookies  *session.Manager
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	Authsvc  authdomain.Service
	Usersvc  userdomain.Service
	Gate     *gate.Gate
	Sessions *session.Manager
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		log:      log.Named("http"),
		authsvc:  p.Authsvc,
		usersvc:  p.Usersvc,
		gate:     p.Gate,
		sessions: p.Sessions,
		cookies:  session.NewNamedManager(session.ServiceCookieName, p.Cfg.Auth.CookieSecure, p.Cfg.Auth.SessionDuration),
	}
}

func registerRoutes(s *Server) {
	s.RegisterServiceRoutes()
	s.RegisterAPIRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterServiceRoutes mounts the user-authentication service at the root.
func (s *Server) RegisterServiceRoutes() {
	s.engine.GET("/", s.Welcome)
	s.engine.POST("/users", s.RegisterUser)
	s.engine.POST("/sessions", s.StartSession)
	s.engine.DELETE("/sessions", s.EndSession)
	s.engine.GET("/profile", s.Profile)
	s.engine.POST("/reset_password", s.ResetPasswordToken)
	s.engine.PUT("/reset_password", s.UpdatePassword)
}

// RegisterAPIRoutes mounts /api/v1 behind the auth gate.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api/v1", AuthGate(s.gate))

	api.GET("/status", s.Status)
	api.GET("/stats", s.Stats)
	api.GET("/unauthorized", s.Unauthorized)
	api.GET("/forbidden", s.Forbidden)

	users := api.Group("/users")
	{
		users.GET("", s.ListUsers)
		users.POST("", s.CreateUser)
		users.GET("/:user_id", s.GetUser)
		users.PUT("/:user_id", s.UpdateUser)
		users.DELETE("/:user_id", s.DeleteUser)
	}

	authSession := api.Group("/auth_session")
	{
		authSession.POST("/login", s.SessionLogin)
		authSession.DELETE("/logout", s.SessionLogout)
	}
}
