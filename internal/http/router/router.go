package router

import (
	"github.com/gin-gonic/gin"

	"shopfeed.app/engine/internal/http/handler"
	"shopfeed.app/engine/internal/http/middleware"
	"shopfeed.app/engine/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	// Engine-level so preflight OPTIONS requests are answered even when
	// no route is registered for the method; group middleware never runs
	// on the no-route chain.
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	eventHandler := handler.NewEventHandler(services.Events())
	EventRouter(router.Group("/pixel-events"), eventHandler)

	// Feed slugs live at the root so platforms crawl bare /<slug> URLs.
	// Fixed paths like /health and /pixel-events take precedence over
	// the slug parameter.
	feedHandler := handler.NewFeedHandler(services.Feeds())
	FeedRouter(router.Group(""), feedHandler)
}
