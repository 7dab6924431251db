// Package router assembles the HTTP routes of the server.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "petserver/internal/feature/auth/transport/handler"
	"petserver/internal/platform/http/handler"
)

// NewRouter builds the gin engine. gatherer backs /metrics; nil leaves the route out.
func NewRouter(authHandler *authhandler.AuthHandler, gatherer prometheus.Gatherer, checks ...handler.Check) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 導通確認用
	health := handler.Health(checks...)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// 認証不要
	// 新規ユーザー登録（確認コード送信）
	r.POST("/signup", authHandler.Signup)
	// 確認コード検証（セッション発行）
	r.POST("/signup/code", authHandler.ConfirmSignup)
	// ログイン（セッション発行）
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	// 認証必須のルート
	// → Authorization: Bearer <sessionToken> が必要になる
	auth := r.Group("/")
	auth.Use(authHandler.SessionRequired())
	{
		auth.GET("/user", authHandler.User)
	}

	return r
}
