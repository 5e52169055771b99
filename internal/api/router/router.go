package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matsuri-ops/backend/config"
	"matsuri-ops/backend/internal/api/handler"
	"matsuri-ops/backend/internal/api/middleware"
	"matsuri-ops/backend/pkg/jwt"
	"matsuri-ops/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr))
		{
			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				// 发送接口限流（权限在 Service 层鉴定）
				notifications.POST("", middleware.RateLimit(rdb, 30, time.Minute), h.Notification.Send)
				notifications.POST("/direct", middleware.RateLimit(rdb, 30, time.Minute), h.Notification.SendDirect)

				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.GET("/stream", h.Notification.Stream)
				notifications.PUT("/read-batch", h.Notification.MarkReadBatch)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.DELETE("/:id", h.Notification.Delete)
			}

			// 权限模块
			permissions := authorized.Group("/permissions")
			{
				permissions.GET("/screens", h.Permission.AccessibleScreens)
			}
		}
	}

	return r
}
