// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// トークン版の設定
	JWTPrivateKeyPath string        // RSA秘密鍵（PEM）のパス
	JWTPublicKeyPath  string        // RSA公開鍵（PEM）のパス
	TokenLifetime     time.Duration // 発行するトークンの有効期間

	// セッション版の設定
	SessionSecret   string        // セッションIDクッキーの署名鍵
	SessionRedisURL string        // セッションストア用Redis接続URL
	SessionTTL      time.Duration // セッションレコードの有効期間
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "3003"),
		GinMode: getEnv("GIN_MODE", "debug"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "jwt_priv.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "jwt_pub.pem"),
		TokenLifetime:     getEnvAsDuration("TOKEN_LIFETIME", 6*time.Hour),

		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionRedisURL: getEnv("SESSION_REDIS_URL", "redis://127.0.0.1:6379/0"),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", 12*time.Hour),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.TokenLifetime <= 0 {
		return fmt.Errorf("TOKEN_LIFETIME must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// ValidateSession はセッション版サーバーに必要な設定を検証します。
// トークン版は鍵ファイルの読み込み自体が起動時チェックになるため個別の検証はありません。
func (c *Config) ValidateSession() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required for the session server")
	}
	if c.SessionRedisURL == "" {
		return fmt.Errorf("SESSION_REDIS_URL is required for the session server")
	}
	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数を time.Duration として取得します。
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
