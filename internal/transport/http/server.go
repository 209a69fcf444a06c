package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/simplechat/internal/auth"
	"github.com/vovakirdan/simplechat/internal/config"
	"github.com/vovakirdan/simplechat/internal/core"
	"github.com/vovakirdan/simplechat/internal/store"
)

// NewServer builds the HTTP server: REST API under /api and the WebSocket endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.ServerConfig, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, authService, st, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter mounts the WebSocket endpoint next to the gin engine serving the REST API.
// /ws stays on the plain mux: gin's writer refuses Hijack once Accept has written the 101.
func NewRouter(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.ServerConfig, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, authService, cfg.MessageRateLimit, logger))
	mux.Handle("/", newEngine(authService, st, cfg, logger))
	return mux
}

func newEngine(authService *auth.Service, st store.Store, cfg *config.ServerConfig, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(st, logger)
	roomHandlers := NewRoomHandlers(st, logger)
	chatHandlers := NewChatHandlers(st, cfg.HistoryLimit, logger)

	api := router.Group("/api")
	api.POST("/user/register", apiHandlers.Register)
	api.POST("/user/login", apiHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/users/search", userHandlers.SearchUsers)
	authed.GET("/rooms", roomHandlers.ListRooms)
	authed.POST("/rooms", roomHandlers.CreateRoom)
	authed.GET("/chat/get-messages/:username", chatHandlers.GetMessages)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
