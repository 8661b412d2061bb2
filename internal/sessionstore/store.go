// Package sessionstore はRedisをバックエンドとするセッションストアを提供します。
// クライアントには署名付きクッキーで不透明なセッションIDのみを渡し、
// セッション本体はTTL付きでRedisに保存します。
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	ginsessions "github.com/gin-contrib/sessions"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// Store は gin-contrib/sessions の Store インターフェースを実装します。
type Store struct {
	rdb     *redis.Client
	codec   *securecookie.SecureCookie
	options *gsessions.Options
	ttl     time.Duration
}

// New は Store を作成します。secret はセッションIDクッキーの署名鍵です。
func New(rdb *redis.Client, secret []byte, ttl time.Duration) *Store {
	return &Store{
		rdb:   rdb,
		codec: securecookie.New(secret, nil),
		options: &gsessions.Options{
			Path:   "/",
			MaxAge: int(ttl.Seconds()),
		},
		ttl: ttl,
	}
}

// Options はセッションミドルウェアから渡されるクッキー設定を反映します。
func (s *Store) Options(opts ginsessions.Options) {
	s.options = &gsessions.Options{
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		HttpOnly: opts.HttpOnly,
		SameSite: opts.SameSite,
	}
}

// Get はリクエストごとのレジストリ経由でセッションを返します。
func (s *Store) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New はクッキーのセッションIDからRedis上のセッションを復元します。
// クッキーが無い・署名が不正・レコードが期限切れの場合は新規セッションを返します。
func (s *Store) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := s.codec.Decode(name, cookie.Value, &id); err != nil {
		return session, nil
	}

	values, err := s.load(r.Context(), id)
	if err != nil {
		return session, err
	}
	if values != nil {
		session.ID = id
		session.Values = values
		session.IsNew = false
	}
	return session, nil
}

// Save はセッションをRedisへ保存し、署名付きIDクッキーを応答に載せます。
// MaxAge が負の場合はレコードを削除してクッキーを失効させます。
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.rdb.Del(r.Context(), sessionKeyPrefix+session.ID).Err(); err != nil {
				return err
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	payload, err := encodeValues(session.Values)
	if err != nil {
		return err
	}

	ttl := s.ttl
	if session.Options.MaxAge > 0 {
		ttl = time.Duration(session.Options.MaxAge) * time.Second
	}
	if err := s.rdb.Set(r.Context(), sessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return err
	}

	encoded, err := s.codec.Encode(session.Name(), session.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *Store) load(ctx context.Context, id string) (map[interface{}]interface{}, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeValues(data)
}

// encodeValues はセッション値をJSONに変換します。キーは文字列のみ許可します。
func encodeValues(values map[interface{}]interface{}) ([]byte, error) {
	payload := make(map[string]interface{}, len(values))
	for k, v := range values {
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("session keys must be strings, got %T", k)
		}
		payload[key] = v
	}
	return json.Marshal(payload)
}

func decodeValues(data []byte) (map[interface{}]interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	values := make(map[interface{}]interface{}, len(payload))
	for k, v := range payload {
		values[k] = v
	}
	return values, nil
}
