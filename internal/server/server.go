package server

import (
	"context"
	"net/http"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/buragame/burad/internal/game"
	"github.com/buragame/burad/internal/store"
)

// Server assembles the REST facade, the websocket surface and the reaper.
type Server struct {
	config   *Config
	registry *Registry
	hub      *Hub
	api      *API
	stats    *store.Store
	logger   *log.Logger
	upgrader websocket.Upgrader
	promReg  *prometheus.Registry
	http     *http.Server
}

// NewServer wires the full server from configuration. The rng seeds every
// per-room rng, so passing a fixed-seed rng makes the whole process
// deterministic. stats may be nil to run without persistence.
func NewServer(config *Config, stats *store.Store, logger *log.Logger, clock quartz.Clock, rng *rand.Rand) *Server {
	promReg := prometheus.NewRegistry()
	metrics := NewMetrics(promReg)
	registry := NewRegistry(logger, clock, rng, metrics)

	var sink MatchSink
	if stats != nil {
		sink = stats
	}
	hub := NewHub(registry, sink, metrics, logger, clock,
		time.Duration(config.Server.DisconnectGraceSec)*time.Second,
		time.Duration(config.Server.ReapIntervalSec)*time.Second)

	s := &Server{
		config:   config,
		registry: registry,
		hub:      hub,
		api:      NewAPI(registry, hub, stats),
		stats:    stats,
		logger:   logger.WithPrefix("server"),
		promReg:  promReg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(config.Server.AllowedOrigins),
		},
	}
	return s
}

// Hub exposes the session hub, mostly for tests.
func (s *Server) Hub() *Hub { return s.hub }

// Registry exposes the room registry, mostly for tests.
func (s *Server) Registry() *Registry { return s.registry }

// originChecker allows any origin when the list is empty, otherwise only the
// configured ones.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Router builds the gin router with every route mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{})))

	s.api.Register(router)

	router.GET("/ws/lobby", s.handleLobbySocket)
	router.GET("/ws/:room_id", s.handleRoomSocket)

	return router
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(s.config.Server.AllowedOrigins))
	for _, origin := range s.config.Server.AllowedOrigins {
		allowed[origin] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok || len(allowed) == 0 {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Access-Control-Allow-Headers", "Content-Type, X-User-Id, X-User-Name, X-User-Avatar")
				c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleLobbySocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("failed to upgrade lobby connection", "error", err)
		return
	}

	session := NewSession(conn, c.Query("player_id"), "", s.hub, s.logger)
	s.hub.AttachLobby(session)
	session.Start()
}

func (s *Server) handleRoomSocket(c *gin.Context) {
	roomID := c.Param("room_id")
	playerID := c.Query("player_id")

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("failed to upgrade room connection", "error", err)
		return
	}

	session := NewSession(conn, playerID, roomID, s.hub, s.logger)

	room, ok := s.registry.Get(roomID)
	if !ok || playerID == "" {
		_ = session.CloseWithCode(ClosePolicyViolation, "unknown room")
		return
	}

	// A fresh player joining a not yet started room takes a seat on attach.
	if err := room.AddPlayer(game.Player{ID: playerID, Name: playerID}); err != nil {
		seated := false
		for _, p := range room.Players() {
			if p.ID == playerID {
				seated = true
				break
			}
		}
		if !seated {
			_ = session.CloseWithCode(ClosePolicyViolation, "cannot join room")
			return
		}
	}

	s.hub.AttachRoom(session)
	s.hub.BroadcastRoom(room)
	s.hub.BroadcastLobby()
	session.Start()
}

// Run serves HTTP and the reaper until ctx is cancelled, then shuts both
// down.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:    s.config.ListenAddress(),
		Handler: s.Router(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return s.hub.RunReaper(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if s.stats != nil {
		if closeErr := s.stats.Close(); closeErr != nil {
			s.logger.Error("failed to close store", "error", closeErr)
		}
	}
	return err
}
