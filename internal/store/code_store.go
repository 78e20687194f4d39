package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCodeMiss 验证码不存在或已过期
var ErrCodeMiss = errors.New("verification code miss")

// CodeStore 邮箱验证码存储
// 单进程部署可用内存实现；多进程部署必须换 Redis 实现（码要跨实例可见）
type CodeStore interface {
	Set(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryCodeStore 内存实现：带过期时间的 map，读取时做过期判定
type MemoryCodeStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCodeStore 创建内存验证码存储
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryCodeStore) Set(_ context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = memoryEntry{
		code:      code,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[email]
	if !ok {
		return "", ErrCodeMiss
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, email)
		return "", ErrCodeMiss
	}
	return entry.code, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
	return nil
}
