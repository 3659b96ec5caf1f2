package server

import (
	"net/http"

	"czar-party/internal/config"
	"czar-party/internal/game"
	"czar-party/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	svc     *game.Service
	cfg     config.Config
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	auth    *authenticator
	limiter *rateLimiter
	admins  map[string]bool
}

type Option func(*Server)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics exposes m at /metrics. It should be the instance the game
// service records into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

func New(svc *game.Service, cfg config.Config, opts ...Option) *Server {
	registerValidators()
	s := &Server{
		svc:     svc,
		cfg:     cfg,
		log:     zap.NewNop().Sugar(),
		auth:    newAuthenticator(cfg.JWTSecret, cfg.JWTIssuer),
		limiter: newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		admins:  make(map[string]bool, len(cfg.AdminSubjects)),
	}
	for _, subject := range cfg.AdminSubjects {
		s.admins[subject] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	if !s.cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.Use(cors.New(s.corsConfig()))

	router.GET("/health", s.handleHealth)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := router.Group("/api")
	api.GET("/rooms", s.handleListPublicRooms)
	api.GET("/codes/:code", s.handleRoomByCode)

	authed := api.Group("", s.requireIdentity())
	authed.POST("/rooms", s.limit("create_room"), s.handleCreateRoom)
	authed.POST("/join", s.limit("join_room"), s.handleJoinRoom)
	authed.GET("/rooms/:id", s.handleRoomState)
	authed.POST("/rooms/:id/leave", s.handleLeaveRoom)
	authed.POST("/rooms/:id/start", s.limit("start_game"), s.handleStartGame)
	authed.GET("/rooms/:id/events", s.handleRoomEvents)
	authed.GET("/rooms/:id/stats", s.handleRoomStats)

	authed.GET("/rounds/:id", s.handleRoundState)
	authed.POST("/rounds/:id/prompts", s.limit("submit_prompt"), s.handleSubmitPrompt)
	authed.POST("/rounds/:id/advance", s.handleAdvanceRound)
	authed.POST("/rounds/:id/close", s.handleCloseRound)
	authed.POST("/rounds/:id/vote", s.limit("vote"), s.handleVote)
	authed.GET("/rounds/:id/images", s.handleRoundImages)
	authed.POST("/rounds/:id/prompts/:promptId/regenerate", s.limit("regenerate"), s.handleRegenerate)

	authed.GET("/cards/sample", s.handleSampleCards)
	admin := authed.Group("/cards", s.requireAdmin())
	admin.GET("", s.handleListCards)
	admin.GET("/stats", s.handleCardStats)
	admin.POST("", s.handleAddCard)
	admin.POST("/:id/toggle", s.handleToggleCard)

	return router
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	if len(s.cfg.CORSOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.CORSOrigins
	}
	return cfg
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			s.log.Errorw("request failed", "method", c.Request.Method, "path", c.FullPath(), "status", status)
			return
		}
		s.log.Debugw("request", "method", c.Request.Method, "path", c.FullPath(), "status", status)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
