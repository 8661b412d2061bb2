// Package main はセッション版認証ゲートウェイのエントリーポイントです。
// セッション本体はRedisに保存し、クライアントには署名付きの不透明なセッションID
// クッキーのみを渡します。状態変更リクエストはダブルサブミット方式のCSRF検査を通ります。
package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginsessions "github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/auth-gate/internal/auth"
	"github.com/yourusername/auth-gate/internal/config"
	"github.com/yourusername/auth-gate/internal/sessionstore"
	"github.com/yourusername/auth-gate/internal/users"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateSession(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// セッションストア用Redisへの接続。リッスン開始前に到達性を確認する
	redisOpts, err := redis.ParseURL(cfg.SessionRedisURL)
	if err != nil {
		log.Fatalf("Invalid SESSION_REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Failed to reach session store at %s: %v", cfg.SessionRedisURL, err)
	}

	// ユーザーストアのプロビジョニング。リッスン開始前に完了させる
	store := users.NewInMemoryStore()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Provision(ctx, seedUsers()); err != nil {
		log.Fatalf("Failed to provision user store: %v", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// セッションストアの設定
	sessionStore := sessionstore.New(rdb, []byte(cfg.SessionSecret), cfg.SessionTTL)
	sessionStore.Options(ginsessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(ginsessions.Sessions(auth.SessionCookieName, sessionStore))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-XSRF-TOKEN", // CSRF保護用ヘッダー
	}
	router.Use(cors.New(corsConfig))

	// CSRF検査は全ルートに適用する（ログインも含む。安全なメソッドは検査対象外）
	router.Use(auth.CSRF())

	// ルーティングの設定
	setupRoutes(router, store)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting session auth server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// seedUsers は起動時に登録するユーザーレコードを返します。
func seedUsers() []users.Seed {
	return []users.Seed{
		{
			Username: "cnamprem",
			Password: "secret123",
			Secret:   "The answer to the ultimate question of life, the universe and everything is 42",
		},
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
// 安全なメソッドなのでCSRF検査の対象外となり、最初のアンチフォージェリ
// クッキーを受け取る入り口としても使えます。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "auth-gate-session-api",
		"version": "0.1.0",
	})
}

// setupRoutes はエンドポイントとハンドラーの配線を行います。
func setupRoutes(router *gin.Engine, store users.Store) {
	router.GET("/health", handleHealth)

	handler := auth.NewSessionHandler(store)

	router.POST("/login", handler.Login)
	// 未認証時のログアウトは 400 を返すため、ハンドラー自身が認証状態を確認する
	router.POST("/logout", handler.Logout)
	router.GET("/secret", handler.RequireLogin(), handler.Secret)
}
