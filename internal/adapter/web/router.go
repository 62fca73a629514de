package web

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simaogato/flowviz/internal/infrastructure/logger"
)

// NewRouter wires every route with request logging and panic recovery.
// onPanic receives values recovered from handlers and may be nil.
func NewRouter(h *Handler, log *zap.Logger, onPanic func(any)) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	router := gin.New()
	router.Use(
		logger.RequestID(),
		logger.Recovery(log, onPanic),
		logger.GinMiddleware(log),
	)

	router.GET("/", h.Index)
	router.GET("/scene.svg", h.SceneSVG)
	router.GET("/legend.html", h.LegendHTML)
	router.GET("/table.html", h.TableHTML)
	router.GET("/healthz", h.Health)

	api := router.Group("/api")
	{
		api.GET("/scene", h.Scene)
		api.GET("/scene/stream", h.Stream)
		api.POST("/entities/:id/move", h.MoveEntity)
		api.GET("/legend", h.Legend)
		api.GET("/table", h.TableRows)
	}
	return router
}
