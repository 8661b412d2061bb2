// Package main はトークン版認証ゲートウェイのエントリーポイントです。
// ログイン成功時にRSA署名付きベアラートークンを発行し、
// 保護されたリソースへのアクセスをトークン検証で認可します。
package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/auth-gate/internal/auth"
	"github.com/yourusername/auth-gate/internal/config"
	"github.com/yourusername/auth-gate/internal/token"
	"github.com/yourusername/auth-gate/internal/users"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// 署名鍵の読み込み（鍵が無い場合は起動しない）
	privateKey, publicKey, err := token.LoadKeys(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
	if err != nil {
		log.Fatalf("Failed to load JWT keys: %v", err)
	}
	tokens := token.NewManager(privateKey, publicKey, cfg.TokenLifetime)

	// ユーザーストアのプロビジョニング。リッスン開始前に完了させる
	store := users.NewInMemoryStore()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Provision(ctx, seedUsers()); err != nil {
		log.Fatalf("Failed to provision user store: %v", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
	}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	setupRoutes(router, store, tokens)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting token auth server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// seedUsers は起動時に登録するユーザーレコードを返します。
// パスワードはプロビジョニング時にハッシュ化され、平文は保持されません。
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
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "auth-gate-api",
		"version": "0.1.0",
	})
}

// setupRoutes はエンドポイントとハンドラーの配線を行います。
func setupRoutes(router *gin.Engine, store users.Store, tokens *token.Manager) {
	router.GET("/health", handleHealth)

	handler := auth.NewTokenHandler(store, tokens)

	router.POST("/login", handler.Login)
	router.GET("/secret", handler.RequireToken(), handler.Secret)
}
