package handlers

import (
	"github.com/labstack/echo/v4"

	"iamercado/internal/app"
	"iamercado/internal/http/middleware"
	"iamercado/internal/webhook"
)

// SetupRoutes registers all API routes
func SetupRoutes(api *echo.Group, services *app.Services) {
	// Order feed pushes live events to staff dashboards
	feed := NewOrderFeed(services.AuthService)
	services.Attendant.SetNotifier(feed)
	api.GET("/ws/orders", feed.Handle)

	// WhatsApp gateway webhook (authenticated by gateway secret, not JWT)
	webhookHandler := webhook.NewWhatsAppHandler(services.Attendant, services.WhatsApp)
	api.POST("/webhooks/whatsapp", webhookHandler.Handle)

	// Auth routes
	authHandler := NewAuthHandler(services.AuthService)
	authGroup := api.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.RefreshToken)

	// Staff routes
	protected := api.Group("")
	protected.Use(middleware.JWTAuth(services.AuthService))
	protected.GET("/auth/me", authHandler.Me)

	orderHandler := NewOrderHandler(services.OrderRepo)
	protected.GET("/orders", orderHandler.List)
	protected.GET("/orders/:id", orderHandler.GetByID)

	sessionHandler := NewSessionHandler(services.Tracker)
	protected.GET("/sessions/:phone", sessionHandler.GetByPhone)
	protected.GET("/sessions/:phone/status", sessionHandler.Status)

	productHandler := NewProductHandler(services.ProductRepo, services.EmbeddingService)
	protected.GET("/products", productHandler.Search)

	// Admin-only mutations
	admin := protected.Group("", middleware.AdminOnly())
	admin.DELETE("/sessions/:phone", sessionHandler.Clear)
	admin.PUT("/products", productHandler.Upsert)
	admin.POST("/products/sync", productHandler.Sync)

	vocabHandler := NewVocabularyHandler(services.VocabRepo, services.ReloadVocabulary)
	admin.GET("/vocabulary", vocabHandler.List)
	admin.PUT("/vocabulary", vocabHandler.Upsert)
	admin.DELETE("/vocabulary/:regional", vocabHandler.Delete)
}
