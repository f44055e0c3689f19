package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkpress/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("inkpress_session", store))
	r.Use(handler.Metrics())

	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/auth", api.AuthActions)
		apiGroup.POST("/posts", api.PostActions)
		apiGroup.POST("/comments", api.CommentActions)
		apiGroup.POST("/profiles", api.ProfileActions)
		apiGroup.POST("/taxonomy", api.TaxonomyActions)
		apiGroup.POST("/uploads", handler.AuthRequired(), api.UploadImage)
	}

	return r
}
