package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultSessionTTL はセッションの生存期間です。ページ再読込相当で作り直されます。
	DefaultSessionTTL = 2 * time.Hour
	cleanupInterval   = 30 * time.Minute
)

// Store はセッションIDをキーとしたTTL付きのセッション置き場です。
// TTL切れは「セッションの完全リロード」に相当し、カウンタも状態機械も初期化されます。
type Store struct {
	mu              sync.Mutex
	cache           *cache.Cache
	ceiling         int
	transitionDelay time.Duration
}

// NewStore は依存設定を受け取って Store を初期化します。
func NewStore(ttl time.Duration, ceiling int, transitionDelay time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		cache:           cache.New(ttl, cleanupInterval),
		ceiling:         ceiling,
		transitionDelay: transitionDelay,
	}
}

// GetOrCreate は既存セッションを返すか、なければ新規作成します。
// 同一IDに対する生成は直列化され、二重作成は起きません。
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if val, ok := s.cache.Get(id); ok {
		if sess, ok := val.(*Session); ok {
			return sess
		}
	}

	sess := NewSession(id, s.ceiling, s.transitionDelay)
	s.cache.SetDefault(id, sess)
	return sess
}

// Find は既存セッションのみを返します。
func (s *Store) Find(id string) (*Session, bool) {
	val, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := val.(*Session)
	return sess, ok
}
