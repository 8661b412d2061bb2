package auth

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/auth-gate/internal/users"
)

const (
	// SessionCookieName はセッションIDクッキーの名前です。
	SessionCookieName = "ag_session"

	sessionKeyUser = "auth_user"
)

// SessionHandler はセッション版のハンドラーをまとめた構造体です。
type SessionHandler struct {
	store users.Store
}

// NewSessionHandler はセッション版ハンドラーを作成します。
func NewSessionHandler(store users.Store) *SessionHandler {
	return &SessionHandler{
		store: store,
	}
}

// Login は POST /login のハンドラーです。
// 検証に成功するとセッションにユーザー名を保存します。
func (h *SessionHandler) Login(c *gin.Context) {
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

	session := sessions.Default(c)
	session.Set(sessionKeyUser, user.Username)
	if err := session.Save(); err != nil {
		log.Printf("failed to save session for %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの保存に失敗しました",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
	})
}

// Logout は POST /logout のハンドラーです。
// 未認証のセッションに対するログアウトはクライアントエラーです。
func (h *SessionHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	user, ok := session.Get(sessionKeyUser).(string)
	if !ok || user == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "NOT_AUTHENTICATED",
			"message": "ログインしていません",
		})
		return
	}

	session.Delete(sessionKeyUser)
	if err := session.Save(); err != nil {
		log.Printf("failed to clear session for %s: %v", user, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの削除に失敗しました",
		})
		return
	}

	c.Status(http.StatusOK)
}

// RequireLogin はセッションを検証するミドルウェアを返します。
func (h *SessionHandler) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		user, ok := session.Get(sessionKeyUser).(string)
		if !ok || user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "ログインが必要です",
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// Secret は GET /secret のハンドラーです。RequireLogin を通過した後に呼ばれ、
// セッション上の認証済みユーザー名に対応する秘密データを返します。
func (h *SessionHandler) Secret(c *gin.Context) {
	secretFor(c, h.store)
}
