package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/provider"
)

// DefaultGenerationCeiling は1セッションあたりの生成成功回数の上限です。
const DefaultGenerationCeiling = 10

// Session は1利用者分の可変状態（開示状態機械と生成カウンタ）をまとめた
// 明示的なコンテキストオブジェクトです。グローバル変数には置きません。
type Session struct {
	ID string

	mu          sync.Mutex
	reveal      *RevealMachine
	generations int
	ceiling     int
}

// NewSession はセッションを生成します。ceiling が0以下の場合は既定値を使います。
func NewSession(id string, ceiling int, transitionDelay time.Duration) *Session {
	if ceiling <= 0 {
		ceiling = DefaultGenerationCeiling
	}
	return &Session{
		ID:      id,
		reveal:  NewRevealMachine(transitionDelay),
		ceiling: ceiling,
	}
}

// Reveal は開示状態機械を返します。
func (s *Session) Reveal() *RevealMachine {
	return s.reveal
}

// Generations は成功した生成回数を返します。この値は減少しません。
func (s *Session) Generations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations
}

// BeginGeneration は生成開始を予約します。
// 上限チェックと idle→generating の遷移を一括で行うことで、
// 確認と加算の間に別の生成試行が割り込まないことを保証します。
// 上限超過時はネットワーク呼び出し前に rate_limited で拒否されます。
func (s *Session) BeginGeneration() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations >= s.ceiling {
		return provider.NewError(provider.KindRateLimited,
			"このセッションの生成上限 (%d回) に達しています", s.ceiling)
	}
	if _, err := s.reveal.Fire(EventStart); err != nil {
		return provider.NewError(provider.KindInvalidInput,
			"生成が進行中です。完了までお待ちください")
	}
	return nil
}

// CompleteGeneration は生成結果を状態機械とカウンタに反映します。
// カウンタは成功時のみ加算されます。
func (s *Session) CompleteGeneration(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if success {
		s.generations++
		s.reveal.Fire(EventSucceed) //nolint:errcheck
		return
	}
	s.reveal.Fire(EventFail) //nolint:errcheck
}

// NewSessionID は暗号学的乱数から新しいセッションIDを生成します。
func NewSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("セッションIDの生成に失敗しました: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
