package transport

import (
	_ "embed"
	"net/http"
	"slices"
	"time"

	"domino/internal/config"
	"domino/internal/game"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

//go:embed static/index.html
var indexHTML []byte

// Server wires the HTTP routes and websocket clients to a Registry.
type Server struct {
	reg      *game.Registry
	hub      *Hub
	cfg      config.Config
	log      *log.Entry
	upgrader websocket.Upgrader
}

// NewServer expects hub to be the Notifier reg was built with.
func NewServer(cfg config.Config, reg *game.Registry, hub *Hub, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &Server{reg: reg, hub: hub, cfg: cfg, log: logger}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if s.cfg.AnyOrigin() || origin == "" {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins(), origin)
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	corsCfg := cors.Config{
		AllowMethods: []string{http.MethodGet},
		AllowHeaders: []string{"Content-Type", "Origin"},
		MaxAge:       12 * time.Hour,
	}
	if s.cfg.AnyOrigin() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowedOrigins()
	}
	r.Use(cors.New(corsCfg))

	r.GET("/", s.index)
	r.GET("/health", s.health)
	r.GET("/ws", s.serveWS)
	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		s.log.WithFields(log.Fields{
			"method":  ctx.Request.Method,
			"path":    ctx.Request.URL.Path,
			"status":  ctx.Writer.Status(),
			"latency": time.Since(start),
			"ip":      ctx.ClientIP(),
		}).Debug("http request")
	}
}

func (s *Server) index(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) health(ctx *gin.Context) {
	st := s.reg.Stats()
	ctx.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"rooms":       st.Rooms,
		"players":     st.Players,
		"connections": s.hub.Len(),
	})
}

func (s *Server) serveWS(ctx *gin.Context) {
	ws, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	c := &Conn{
		id:      id,
		ws:      ws,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst),
		log:     s.log.WithField("conn", id),
	}
	s.hub.add(c)
	c.log.WithField("ip", ctx.ClientIP()).Info("connection opened")

	go c.writePump()
	s.readPump(c)
}
