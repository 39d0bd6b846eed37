package main

import (
	"log"

	"social-gateway/internal/ai"
	"social-gateway/internal/api"
	"social-gateway/internal/config"
	"social-gateway/internal/database"
	"social-gateway/internal/engine"
	"social-gateway/internal/publisher"
	"social-gateway/internal/queue"
	"social-gateway/internal/store"
	"social-gateway/internal/webhook"
	"social-gateway/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	st := store.NewGormStore(db)

	hub := ws.NewHub()
	go hub.Run()

	publishQueue := queue.New(queue.Config{
		Workers:     cfg.QueueWorkers,
		MaxAttempts: cfg.QueueMaxRetries,
	})
	publishQueue.OnTransition = hub.NotifyJob

	generator := ai.NewHTTPGenerator(cfg.AIEndpoint, cfg.AIAPIKey)
	automationEngine := engine.New(st, publishQueue, generator, hub)

	publishQueue.StartWorkers(engine.NewPublishProcessor(st, publisher.New))
	defer publishQueue.Stop()

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	webhookHandler := webhook.NewHandler(st, automationEngine)
	productHandler := api.NewProductHandler(st)
	automationHandler := api.NewAutomationHandler(st)
	channelHandler := api.NewChannelHandler(st)
	contentHandler := api.NewContentHandler(st, generator)
	publishHandler := api.NewPublishHandler(st, publishQueue)
	eventHandler := api.NewEventHandler(st, automationEngine)

	// Webhook Routes
	r.GET("/webhook/:productId", webhookHandler.Verify)
	r.POST("/webhook/:productId", webhookHandler.Receive)

	// Dashboard WebSocket
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	apiGroup := r.Group("/api")
	{
		// Product Routes
		apiGroup.POST("/products", productHandler.CreateProduct)
		apiGroup.GET("/products/:id", productHandler.GetProduct)

		// Automation Routes
		apiGroup.GET("/automations", automationHandler.ListAutomations)
		apiGroup.POST("/automations", automationHandler.CreateAutomation)
		apiGroup.PUT("/automations/:id", automationHandler.UpdateAutomation)
		apiGroup.DELETE("/automations/:id", automationHandler.DeleteAutomation)
		apiGroup.POST("/automations/:id/toggle", automationHandler.ToggleAutomation)
		apiGroup.GET("/automations/:id/logs", automationHandler.GetAutomationLogs)
		apiGroup.GET("/automations/:id/stats", automationHandler.GetAutomationStats)

		// Channel Routes
		apiGroup.GET("/channels", channelHandler.ListChannels)
		apiGroup.POST("/channels", channelHandler.CreateChannel)
		apiGroup.PUT("/channels/:id", channelHandler.UpdateChannel)
		apiGroup.DELETE("/channels/:id", channelHandler.DeleteChannel)
		apiGroup.POST("/channels/:id/validate", channelHandler.ValidateChannel)

		// Content Routes
		apiGroup.POST("/content", contentHandler.CreateDraft)
		apiGroup.POST("/content/generate", contentHandler.GenerateContent)
		apiGroup.GET("/content/:id", contentHandler.GetContent)

		// Publish Routes
		apiGroup.POST("/publish", publishHandler.Publish)
		apiGroup.GET("/publications", publishHandler.ListPublications)
		apiGroup.GET("/publications/:id", publishHandler.GetPublication)
		apiGroup.GET("/jobs/:id", publishHandler.GetJob)
		apiGroup.POST("/jobs/:id/cancel", publishHandler.CancelJob)
		apiGroup.GET("/queue/metrics", publishHandler.GetQueueMetrics)
		apiGroup.POST("/queue/pause", publishHandler.PauseQueue)
		apiGroup.POST("/queue/resume", publishHandler.ResumeQueue)

		// Event Routes
		apiGroup.GET("/events", eventHandler.ListEvents)
		apiGroup.GET("/events/:id", eventHandler.GetEvent)
		apiGroup.POST("/events/:id/reprocess", eventHandler.ReprocessEvent)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
