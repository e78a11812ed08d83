package handler

import (
	"net/http"

	"github.com/SergeiKhy/shortlink/internal/middleware"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(
	mappingService service.MappingService,
	baseURL string,
	logger *zap.Logger,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			logger.Error("Panic recovered", zap.Any("panic", recovered))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: "Internal server error"})
		}),
	)

	mappingHandler := NewMappingHandler(mappingService, baseURL, logger)

	router.GET("/", mappingHandler.Root)
	router.GET("/_health", mappingHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/shorten", mappingHandler.Shorten)

	// Редирект регистрируется последним: любой сегмент, не совпавший с маршрутами выше
	router.GET("/:short_id", mappingHandler.Redirect)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Not Found"})
	})

	return router
}
