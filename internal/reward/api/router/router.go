package router

import (
	"owatch_service/internal/reward/api/handlers"
	"owatch_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册 dashboard 相关的路由
func RegisterRoutes(app *fiber.App, h *handlers.RewardHandler, ws *handlers.SnapshotWebsocket) {
	app.Get("/", handlers.ConnectCheck)
	app.Post("/debug", handlers.DebugLogFlag)
	app.Post("/session", h.OpenSession)

	auth := app.Group("", middlewares.JWTMiddleware())
	auth.Get("/session", h.GetSession)
	auth.Delete("/session", h.CloseSession)

	walletRoutes := auth.Group("/wallet")
	walletRoutes.Get("/connectors", h.Connectors)
	walletRoutes.Post("/connect", h.Connect)
	walletRoutes.Post("/approve", h.Approve)
	walletRoutes.Post("/reject", h.Reject)
	walletRoutes.Post("/disconnect", h.Disconnect)
	walletRoutes.Post("/notice/dismiss", h.DismissNotice)

	videoRoutes := auth.Group("/videos")
	videoRoutes.Get("/", h.Videos)
	videoRoutes.Get("/categories", h.Categories)
	videoRoutes.Post("/:id/play", h.Play)

	player := auth.Group("/player")
	player.Post("/pause", h.Pause)
	player.Post("/resume", h.Resume)
	player.Post("/reset", h.Reset)
	player.Post("/claim", h.Claim)

	auth.Get("/balance", h.Balance)
	auth.Get("/balance/history", h.History)

	auth.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	auth.Get("/ws", websocket.New(ws.HandleConnection))
}
