package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// CSRFCookieName はアンチフォージェリ値を運ぶクッキーの名前です。
	// クライアントスクリプトが読み取ってヘッダーに写し返すため HttpOnly にしません。
	CSRFCookieName = "XSRF-TOKEN"

	csrfHeader = "X-XSRF-TOKEN"
)

// CSRF はダブルサブミットクッキー方式のミドルウェアを返します。
// 安全でないメソッドはクッキーとヘッダーの値が一致しない限り拒否され、
// すべての応答には新しいアンチフォージェリ値のクッキーが載ります。
// 検査はセッションの認証状態とは独立に、ハンドラーの手前で行われます。
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isSafeMethod(c.Request.Method) {
			expected, err := c.Cookie(CSRFCookieName)
			received := c.GetHeader(csrfHeader)
			if err != nil || expected == "" ||
				subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
				c.String(http.StatusForbidden, "Error: invalid CSRF token")
				c.Abort()
				return
			}
		}

		fresh, err := generateCSRFToken()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    "TOKEN_GENERATION_FAILED",
				"message": "CSRF トークンの生成に失敗しました",
			})
			return
		}
		c.SetCookie(CSRFCookieName, fresh, 0, "/", "", false, false)

		c.Next()
	}
}

func generateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
