package server

import (
	"net/http"
	"time"

	"memberchat/internal/auth"
	"memberchat/internal/config"
	"memberchat/internal/metrics"
	"memberchat/internal/mw"
	"memberchat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRouter 统一初始化 Gin 中间件和 REST API。
func SetupRouter(cfg config.Config, db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mw.RequestID())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/hello", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "Hello, world!"}) })

	h := NewHandler(service.NewMemberService(db, cfg), service.NewMessageService(db))

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	// 需要 Token 认证的接口，认证成功会刷新在线状态。
	authed := r.Group("")
	authed.Use(auth.RequireToken(db))
	authed.POST("/logout", h.Logout)
	authed.GET("/members/me", h.Me)
	authed.GET("/members/online", h.Online)
	authed.GET("/messages", h.ListMessages)
	authed.POST("/messages", h.CreateMessage)

	return r
}
