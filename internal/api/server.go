package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	redisv9 "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	"qcat/internal/auth"
	"qcat/internal/config"
	"qcat/internal/database"
	"qcat/internal/logger"
	"qcat/internal/middleware"
	"qcat/internal/monitoring"
	"qcat/internal/validation"
)

// Response is the envelope every API handler replies with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Handlers groups the route handlers the server wires up.
type Handlers struct {
	Auth       *AuthHandler
	Validation *ValidationHandler
}

// Server is the HTTP API process: gin router, database, metrics, and the
// bootstrap validation service with its revalidation scheduler
// (SPEC_FULL.md §4.8-§4.10).
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	upgrader   websocket.Upgrader
	handlers   *Handlers

	db          *database.DB
	redisClient *redisv9.Client
	jwtManager  *auth.JWTManager
	metrics     *monitoring.Metrics
	log         logger.Logger

	validationSvc     *validation.ValidationService
	revalidationSched *validation.RevalidationScheduler

	rateLimiter *RateLimiter
}

// ClientLimiter pairs a token-bucket limiter with the last time it was used
// so the cleanup goroutine can evict stale entries.
type ClientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out a golang.org/x/time/rate limiter per client id,
// grounded on the teacher's per-client-map idiom for request throttling.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*ClientLimiter
	rps      rate.Limit
	burst    int
	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter constructs a limiter allowing requestsPerMinute requests
// per client, bursting up to burst, and evicts clients idle for 10 minutes.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}
	rl := &RateLimiter{
		clients: make(map[string]*ClientLimiter),
		rps:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for id, cl := range rl.clients {
				if time.Since(cl.lastSeen) > 10*time.Minute {
					delete(rl.clients, id)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// Stop halts the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow reports whether clientID may make another request now.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	cl, ok := rl.clients[clientID]
	if !ok {
		cl = &ClientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[clientID] = cl
	}
	cl.lastSeen = time.Now()
	rl.mu.Unlock()

	return cl.limiter.Allow()
}

func getClientID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if uid, ok := userID.(string); ok && uid != "" {
			return "user:" + uid
		}
	}
	return "ip:" + c.ClientIP()
}

// NewServer builds the API server: database connection, optional Redis
// (used only for validation result caching), JWT auth, Prometheus metrics,
// and the validation service with its revalidation scheduler.
func NewServer(cfg *config.Config) (*Server, error) {
	log := logger.NewLogger(logger.Config{
		Level:  logger.LogLevel(cfg.Logging.Level),
		Format: logger.LogFormat(cfg.Logging.Format),
		Output: cfg.Logging.Output,
	})

	db, err := database.NewConnection(&database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		MaxOpen:  cfg.Database.MaxOpen,
		MaxIdle:  cfg.Database.MaxIdle,
		Timeout:  cfg.Database.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var redisClient *redisv9.Client
	var resultCache validation.ResultCache
	if cfg.Redis.Addr != "" {
		redisClient = redisv9.NewClient(&redisv9.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unavailable, validation results will not be cached", "error", err)
			redisClient = nil
		} else {
			resultCache = validation.NewRedisResultCache(redisClient)
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Duration)
	metrics := monitoring.NewMetrics()

	var runRepo validation.RunRepository
	if db != nil {
		runRepo = validation.NewPostgresRunRepository(db)
	} else {
		runRepo = validation.NewMemoryRunRepository()
	}

	broadcaster := validation.NewProgressBroadcaster()
	validationSvc := validation.NewValidationService(runRepo, resultCache, broadcaster, cfg.Bootstrap, log, masterSeed, metrics)

	revalidationSched := validation.NewRevalidationScheduler(validationSvc, nil, cfg.Bootstrap.RevalidationMaxAge, log)

	server := &Server{
		config:      cfg,
		router:      gin.New(),
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		db:          db,
		redisClient: redisClient,
		jwtManager:  jwtManager,
		metrics:     metrics,
		log:         log,

		validationSvc:     validationSvc,
		revalidationSched: revalidationSched,

		rateLimiter: NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
	}

	server.handlers = &Handlers{
		Auth:       NewAuthHandler(jwtManager, db),
		Validation: NewValidationHandler(validationSvc, server.upgrader, metrics),
	}

	server.setupRoutes()

	return server, nil
}

// masterSeed is the process-wide bootstrap RNG seed. A fixed seed keeps
// revalidation runs reproducible across restarts unless a request supplies
// its own seed (SPEC_FULL.md §4.2).
const masterSeed uint64 = 0x5eed5eed5eed5eed

func (s *Server) setupRoutes() {
	s.router.Use(gin.Logger())
	s.router.Use(middleware.ErrorHandler())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.rateLimitMiddleware())
	s.router.Use(s.metrics.MetricsMiddleware())

	if s.config.Monitoring.PrometheusEnabled {
		path := s.config.Monitoring.PrometheusPath
		if path == "" {
			path = "/metrics"
		}
		s.router.GET(path, gin.WrapH(monitoring.PrometheusHandler()))
	}

	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", s.handlers.Auth.Login)
			authGroup.POST("/register", s.handlers.Auth.Register)
			authGroup.POST("/refresh", s.handlers.Auth.RefreshToken)
		}

		protected := v1.Group("")
		protected.Use(s.jwtManager.AuthMiddleware())
		{
			s.handlers.Validation.RegisterRoutes(protected)
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	if s.db != nil {
		if err := s.db.HealthCheck(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, Response{Success: code == http.StatusOK, Data: gin.H{"status": status}})
}

// Start begins serving HTTP and starts the revalidation scheduler.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	if spec := s.config.Bootstrap.RevalidationSchedule; spec != "" {
		if err := s.revalidationSched.Start(spec); err != nil {
			return fmt.Errorf("failed to start revalidation scheduler: %w", err)
		}
	}

	s.log.Info("starting API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and tears down background workers.
func (s *Server) Stop(ctx context.Context) error {
	s.revalidationSched.Stop()
	s.rateLimiter.Stop()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("error closing database", "error", err)
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn("error closing redis client", "error", err)
		}
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// GetDB exposes the database handle for tooling (migrations, tests).
func (s *Server) GetDB() *database.DB {
	return s.db
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := s.config.CORS
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (len(cfg.AllowedOrigins) == 0 || containsString(cfg.AllowedOrigins, "*") || containsString(cfg.AllowedOrigins, origin)) {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
		c.Header("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
		if cfg.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.config.RateLimit.Enabled {
			c.Next()
			return
		}

		clientID := getClientID(c)
		if !s.rateLimiter.Allow(clientID) {
			c.JSON(http.StatusTooManyRequests, Response{Success: false, Error: "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
