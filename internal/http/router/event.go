package router

import (
	"github.com/gin-gonic/gin"

	"shopfeed.app/engine/internal/http/handler"
)

func EventRouter(router *gin.RouterGroup, handler *handler.EventHandler) {
	router.POST("", handler.Ingest)
	router.GET("", handler.List)
}
