package router

import (
	"github.com/gin-gonic/gin"

	"shopfeed.app/engine/internal/http/handler"
)

func FeedRouter(router *gin.RouterGroup, handler *handler.FeedHandler) {
	router.GET("/:slug", handler.Serve)
	router.GET("/:slug/status", handler.Status)
}
