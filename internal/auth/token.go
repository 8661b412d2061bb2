package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/auth-gate/internal/token"
	"github.com/yourusername/auth-gate/internal/users"
)

// TokenHandler はベアラートークン版のハンドラーをまとめた構造体です。
type TokenHandler struct {
	store  users.Store
	tokens *token.Manager
}

// NewTokenHandler はトークン版ハンドラーを作成します。
func NewTokenHandler(store users.Store, tokens *token.Manager) *TokenHandler {
	return &TokenHandler{
		store:  store,
		tokens: tokens,
	}
}

// Login は POST /login のハンドラーです。
// 検証に成功するとユーザー名と新しいトークンを返します。
func (h *TokenHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "username と password を JSON で送ってください",
		})
		return
	}

	user, ok := verifyLogin(c, h.store, req)
	if !ok {
		return
	}

	// 副作用（トークン発行）は検証が完全に終わってから
	raw, err := h.tokens.Issue(user.Username)
	if err != nil {
		log.Printf("failed to issue token for %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "TOKEN_ISSUE_FAILED",
			"message": "内部エラーが発生しました",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"token":    raw,
	})
}

// RequireToken は Authorization ヘッダーのトークンを検証するミドルウェアを返します。
// 欠落・不正形式・署名不正・期限切れはいずれも 403 です。検証はトークンを更新しません。
func (h *TokenHandler) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := h.tokens.ValidateHeader(c.GetHeader("Authorization"))
		if err != nil {
			code := "TOKEN_INVALID"
			if errors.Is(err, token.ErrTokenExpired) {
				code = "TOKEN_EXPIRED"
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    code,
				"message": "有効なトークンが必要です",
			})
			return
		}

		c.Set(ContextUserKey, username)
		c.Next()
	}
}

// Secret は GET /secret のハンドラーです。RequireToken を通過した後に呼ばれます。
func (h *TokenHandler) Secret(c *gin.Context) {
	secretFor(c, h.store)
}
