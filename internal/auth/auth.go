// Package auth は認証・認可機能を提供します。
// トークン版（RSA署名付きベアラートークン）とセッション版（Redisセッション +
// ダブルサブミットCSRF）の2系統のハンドラーを持ち、資格情報の検証ロジックを共有します。
package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/auth-gate/internal/password"
	"github.com/yourusername/auth-gate/internal/users"
)

// ContextUserKey は、ハンドラー間で認証済みユーザー名を共有するためのキーです。
const ContextUserKey = "auth.user"

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// verifyLogin はユーザー名とパスワードを検証し、成功時にユーザーレコードを返します。
// 未知のユーザーとパスワード不一致は外部から区別できないよう同じ応答にまとめます。
// 失敗時はこの関数が応答を書き込みます。
func verifyLogin(c *gin.Context, store users.Store, req loginRequest) (*users.User, bool) {
	user, err := store.FindByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_CREDENTIALS",
				"message": "ユーザー名またはパスワードが正しくありません",
			})
			return nil, false
		}
		log.Printf("user lookup failed for %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "内部エラーが発生しました",
		})
		return nil, false
	}

	ok, err := password.Verify(user.PasswordHash, req.Password)
	if err != nil {
		// ハッシュ不正などの内部障害は不一致とは区別してサーバーエラーにする
		log.Printf("unexpected error verifying password hash for %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "VERIFICATION_FAILED",
			"message": "内部エラーが発生しました",
		})
		return nil, false
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_CREDENTIALS",
			"message": "ユーザー名またはパスワードが正しくありません",
		})
		return nil, false
	}

	return user, true
}

// secretFor は認証済みユーザーの秘密データを返します。
func secretFor(c *gin.Context, store users.Store) {
	username := c.GetString(ContextUserKey)

	user, err := store.FindByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "SECRET_NOT_FOUND",
				"message": "秘密データが見つかりません",
			})
			return
		}
		log.Printf("user lookup failed for %s: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "内部エラーが発生しました",
		})
		return
	}
	if user.Secret == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "SECRET_NOT_FOUND",
			"message": "秘密データが見つかりません",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"secret":   user.Secret,
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
