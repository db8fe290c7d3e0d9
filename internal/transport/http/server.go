package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatlink/chatlink-server/internal/auth"
	"github.com/chatlink/chatlink-server/internal/chat"
	"github.com/chatlink/chatlink-server/internal/config"
	"github.com/chatlink/chatlink-server/internal/service/friends"
	"github.com/chatlink/chatlink-server/internal/store"
)

// NewServer builds the HTTP server: REST endpoints for auth, rooms, friends
// and user search, plus the /ws endpoint bridging into the chat core.
func NewServer(core *chat.Core, authService *auth.Service, friendsService *friends.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(st, logger)
	userHandlers := NewUserHandlers(st, logger)
	friendsHandlers := NewFriendsHandlers(friendsService, st, logger)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	router.POST("/api/register", apiHandlers.Register)
	router.POST("/api/login", apiHandlers.Login)
	router.POST("/api/guest", apiHandlers.GuestLogin)

	// The WebSocket endpoint authenticates inside the handler: browser
	// clients pass the token as a query param on the upgrade request.
	wsHandler := NewWSHandler(core, authService, cfg.WSMessageRateLimit, logger)
	router.GET("/ws", gin.WrapH(wsHandler))

	authorized := router.Group("/api")
	authorized.Use(AuthMiddleware(authService, logger))
	{
		authorized.POST("/rooms", roomHandlers.CreateRoom)
		authorized.GET("/rooms", roomHandlers.ListRooms)
		authorized.POST("/rooms/direct", roomHandlers.CreateDirectRoom)
		authorized.PUT("/rooms/:id", roomHandlers.UpdateRoom)
		authorized.POST("/rooms/:id/join", roomHandlers.JoinRoom)
		authorized.DELETE("/rooms/:id/leave", roomHandlers.LeaveRoom)
		authorized.DELETE("/rooms/:id/members/:userId", roomHandlers.RemoveMember)
		authorized.GET("/rooms/:id/messages", roomHandlers.ListMessages)
		authorized.PUT("/rooms/:id/messages/:messageId", roomHandlers.EditMessage)
		authorized.DELETE("/rooms/:id/messages/:messageId", roomHandlers.DeleteMessage)
		authorized.POST("/rooms/:id/messages/:messageId/reactions", roomHandlers.ToggleReaction)
		authorized.GET("/rooms/:id/messages/:messageId/reactions", roomHandlers.ListReactions)

		authorized.GET("/users/search", userHandlers.SearchUsers)
		authorized.GET("/users/me", userHandlers.Me)
		authorized.PUT("/users/me", userHandlers.UpdateMe)

		// Friend and block management is for registered accounts only.
		registered := authorized.Group("")
		registered.Use(RequireRegistered(logger))
		{
			registered.GET("/friends", friendsHandlers.ListFriends)
			registered.GET("/friends/requests", friendsHandlers.PendingRequests)
			registered.POST("/friends/requests/:userId", friendsHandlers.SendRequest)
			registered.PUT("/friends/requests/:userId/:action", friendsHandlers.Respond)
			registered.DELETE("/friends/:userId", friendsHandlers.RemoveFriend)
			registered.POST("/blocks/:userId", friendsHandlers.BlockUser)
			registered.DELETE("/blocks/:userId", friendsHandlers.UnblockUser)
		}
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
