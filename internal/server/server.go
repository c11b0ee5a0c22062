package server

import (
	"context"
	"log/slog"
	"net/http"

	"ctchen222/Connect-Four/internal/api/response"
	"ctchen222/Connect-Four/internal/events"
	"ctchen222/Connect-Four/internal/hub"
	"ctchen222/Connect-Four/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

type Server struct {
	ctx      context.Context
	hub      *hub.Hub
	bus      *events.Bus
	upgrader websocket.Upgrader
	session  session.Options
}

// NewServer creates the HTTP surface. Sessions live until their connection
// drops or ctx is cancelled.
func NewServer(ctx context.Context, h *hub.Hub, bus *events.Bus, opts session.Options) *Server {
	return &Server{
		ctx: ctx,
		hub: h,
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		session: opts,
	}
}

// Engine returns the gin engine with every route registered.
func (s *Server) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/ws", s.handleWebSocket)

	api := engine.Group("/api")
	api.GET("/scores", s.handleScores)
	api.GET("/games", s.handleGames)
	api.GET("/players", s.handlePlayers)

	return engine
}

func (s *Server) handleHealth(c *gin.Context) {
	response.SuccessResponseContent(c, "ok")
}

// handleWebSocket upgrades the connection and serves a session on it.
// The connection id becomes the player id once the client logs in.
func (s *Server) handleWebSocket(c *gin.Context) {
	r := c.Request
	_, span := tracer.Start(r.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", r.URL.String()),
		attribute.String("http.method", r.Method),
	))

	conn, err := s.upgrader.Upgrade(c.Writer, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		span.End()
		return
	}

	id := uuid.NewString()
	span.SetAttributes(attribute.String("session.id", id))
	span.End()

	sess := session.New(id, conn, s.hub, s.bus, s.session)
	go sess.Serve(s.ctx)
}

func (s *Server) handleScores(c *gin.Context) {
	scores, err := s.hub.ScoreTable(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to load score table", "error", err)
		response.ErrorResponse(c, http.StatusServiceUnavailable, "score store unavailable")
		return
	}
	response.SuccessResponseList(c, scores)
}

func (s *Server) handleGames(c *gin.Context) {
	response.SuccessResponseList(c, s.hub.Games())
}

func (s *Server) handlePlayers(c *gin.Context) {
	response.SuccessResponseList(c, s.hub.Players())
}
