// Package token はRSA署名付きベアラートークンの発行と検証を提供します。
package token

import (
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingCredentials は Authorization ヘッダーが存在しない場合のエラーです。
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrMalformedHeader はヘッダーが "<scheme> <token>" の2要素でない場合のエラーです。
	ErrMalformedHeader = errors.New("malformed authorization header")
	// ErrTokenExpired はトークンの有効期限切れを表します。
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid は署名不正やデコード不能なトークンを表します。
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims はトークンに埋め込む申告です。標準クレームにユーザー名を加えます。
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Manager はトークンの発行と検証をまとめた構造体です。
// 発行には秘密鍵、検証には公開鍵のみを使用します。
type Manager struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	lifetime   time.Duration
	now        func() time.Time
}

// NewManager はトークンマネージャーを作成します。
func NewManager(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, lifetime time.Duration) *Manager {
	return &Manager{
		privateKey: privateKey,
		publicKey:  publicKey,
		lifetime:   lifetime,
		now:        time.Now,
	}
}

// Issue は検証済みのユーザー名に対してRS256署名付きトークンを発行します。
func (m *Manager) Issue(username string) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
		Username: username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.privateKey)
}

// ValidateHeader は Authorization ヘッダー値からトークンを取り出して検証し、
// 認証されたユーザー名を返します。ヘッダーは "<scheme> <token>" 形式のみ受理します。
func (m *Manager) ValidateHeader(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredentials
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", ErrMalformedHeader
	}
	return m.Validate(parts[1])
}

// Validate はトークンの署名と有効期限を検証し、ユーザー名を返します。
// 有効期限ちょうどの時刻は期限切れとして扱います。検証はトークンを更新しません。
func (m *Manager) Validate(raw string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.publicKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	if username == "" {
		return "", ErrTokenInvalid
	}
	return username, nil
}
