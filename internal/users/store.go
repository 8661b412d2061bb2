// Package users はユーザーレコードのストアと起動時プロビジョニングを提供します。
package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yourusername/auth-gate/internal/password"
)

// ErrNotFound は指定されたユーザー名がストアに存在しない場合のエラーです。
var ErrNotFound = errors.New("user not found")

// User はストアに保持されるユーザーレコードです。
// PasswordHash は平文ではなく、プロビジョニング時に一度だけ計算されます。
type User struct {
	Username     string
	PasswordHash string
	Secret       string
}

// Seed はプロビジョニングの入力です。Password はハッシュ化後に保持されません。
type Seed struct {
	Username string
	Password string
	Secret   string
}

// Store はユーザーレコードの参照インターフェースです。
type Store interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// InMemoryStore はメモリ上のユーザーストアです。
// Provision の完了後は読み取り専用として扱います。
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewInMemoryStore は空の InMemoryStore を作成します。
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[string]User),
	}
}

// Provision はシードのパスワードをハッシュ化してストアへ登録します。
// サーバーがリッスンを開始する前に完了している必要があります。
func (s *InMemoryStore) Provision(ctx context.Context, seeds []Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seed.Username == "" {
			return fmt.Errorf("seed with empty username")
		}
		if _, exists := s.users[seed.Username]; exists {
			return fmt.Errorf("duplicate username in seed data: %s", seed.Username)
		}

		hash, err := password.Hash(seed.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", seed.Username, err)
		}

		s.users[seed.Username] = User{
			Username:     seed.Username,
			PasswordHash: hash,
			Secret:       seed.Secret,
		}
	}
	return nil
}

// FindByUsername はユーザー名でレコードを検索します。
func (s *InMemoryStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	copied := user
	return &copied, nil
}
