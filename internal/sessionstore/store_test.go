package sessionstore

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	ginsessions "github.com/gin-contrib/sessions"
	"github.com/redis/go-redis/v9"
)

const testCookieName = "ag_session"

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(rdb, []byte("test-session-secret"), time.Hour)
	store.Options(ginsessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
	})
	return store, mr
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	return nil
}

func TestSaveAndRestore(t *testing.T) {
	store, mr := newTestStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(req, testCookieName)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !session.IsNew {
		t.Fatal("expected a fresh session without a cookie")
	}

	session.Values["auth_user"] = "cnamprem"
	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, session); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected Save to mint a session id")
	}

	// Redis側にはTTL付きのレコードができる
	key := sessionKeyPrefix + session.ID
	if !mr.Exists(key) {
		t.Fatalf("expected redis record %s", key)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	// クッキーはセッションIDそのものではなく署名付きの値を運ぶ
	issued := sessionCookie(rec)
	if issued == nil || issued.Value == "" {
		t.Fatal("expected a session cookie on the response")
	}
	if issued.Value == session.ID {
		t.Fatal("cookie must not carry the raw session id")
	}

	// クッキーからセッションを復元できる
	restoreReq := httptest.NewRequest(http.MethodGet, "/", nil)
	restoreReq.AddCookie(issued)
	restored, err := store.New(restoreReq, testCookieName)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if restored.IsNew {
		t.Fatal("expected the session to be restored from the cookie")
	}
	if restored.ID != session.ID {
		t.Fatalf("restored ID = %q, want %q", restored.ID, session.ID)
	}
	if restored.Values["auth_user"] != "cnamprem" {
		t.Fatalf("auth_user = %#v, want cnamprem", restored.Values["auth_user"])
	}
}

func TestSaveNegativeMaxAgeDeletes(t *testing.T) {
	store, mr := newTestStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(req, testCookieName)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	session.Values["auth_user"] = "cnamprem"
	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, session); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	key := sessionKeyPrefix + session.ID
	if !mr.Exists(key) {
		t.Fatalf("expected redis record %s", key)
	}

	// 負の MaxAge はレコードを削除してクッキーを失効させる
	session.Options.MaxAge = -1
	rec = httptest.NewRecorder()
	if err := store.Save(req, rec, session); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("expected redis record %s to be deleted", key)
	}
	expired := sessionCookie(rec)
	if expired == nil || expired.MaxAge >= 0 {
		t.Fatalf("expected an expiring cookie, got %#v", expired)
	}
}

func TestNewWithTamperedCookie(t *testing.T) {
	store, _ := newTestStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: "not-a-signed-id"})

	session, err := store.New(req, testCookieName)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !session.IsNew || session.ID != "" {
		t.Fatal("tampered cookie must yield a fresh session")
	}
}

func TestNewWithExpiredRecord(t *testing.T) {
	store, mr := newTestStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(req, testCookieName)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	session.Values["auth_user"] = "cnamprem"
	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, session); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	issued := sessionCookie(rec)

	// ストア側のTTL失効を模擬する
	mr.FastForward(2 * time.Hour)

	restoreReq := httptest.NewRequest(http.MethodGet, "/", nil)
	restoreReq.AddCookie(issued)
	restored, err := store.New(restoreReq, testCookieName)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !restored.IsNew {
		t.Fatal("expected a fresh session after the record expired")
	}
}

func TestEncodeDecodeValues(t *testing.T) {
	values := map[interface{}]interface{}{
		"auth_user": "cnamprem",
		"count":     float64(3),
	}

	data, err := encodeValues(values)
	if err != nil {
		t.Fatalf("encodeValues returned error: %v", err)
	}

	decoded, err := decodeValues(data)
	if err != nil {
		t.Fatalf("decodeValues returned error: %v", err)
	}

	if decoded["auth_user"] != "cnamprem" {
		t.Fatalf("auth_user = %#v, want cnamprem", decoded["auth_user"])
	}
	if decoded["count"] != float64(3) {
		t.Fatalf("count = %#v, want 3", decoded["count"])
	}
}

func TestEncodeValuesRejectsNonStringKeys(t *testing.T) {
	values := map[interface{}]interface{}{
		42: "value",
	}
	if _, err := encodeValues(values); err == nil {
		t.Fatal("expected error for non-string session key")
	}
}

func TestDecodeValuesMalformed(t *testing.T) {
	if _, err := decodeValues([]byte("not-json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
