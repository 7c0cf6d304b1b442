package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// RevealState は結果開示シーケンスの状態です。
// idle への巻き戻しは明示的なリセットのみで、それ以外の遷移は常に前進します。
type RevealState string

const (
	StateIdle        RevealState = "idle"
	StateGenerating  RevealState = "generating"
	StateSceneReveal RevealState = "scene_reveal"
	StateTransition  RevealState = "transition"
	StateCardReveal  RevealState = "card_reveal"
)

// RevealEvent は状態遷移を引き起こす離散イベントです。
type RevealEvent string

const (
	EventStart    RevealEvent = "start"    // 生成開始
	EventSucceed  RevealEvent = "succeed"  // 両出力の生成成功
	EventFail     RevealEvent = "fail"     // 生成失敗（部分成功も含む）
	EventContinue RevealEvent = "continue" // シーン開示後のユーザー操作
	EventAdvance  RevealEvent = "advance"  // タイマー満了またはクリック
	EventReset    RevealEvent = "reset"    // 新しい写真/テーマによる明示リセット
)

// ErrInvalidTransition は現在状態で受理できないイベントに対して返されます。
// 状態は変化しません（タイマーとクリックの競合時、負けた側はこのエラーで無害化されます）。
var ErrInvalidTransition = errors.New("受理できない状態遷移です")

// DefaultTransitionDelay は transition 状態の自動前進までの待ち時間です。
const DefaultTransitionDelay = 4 * time.Second

// RevealMachine は1セッションにつき1つ保持される開示状態機械です。
// 遷移は離散イベント駆動であり、同時に複数の遷移が走ることはありません。
type RevealMachine struct {
	mu    sync.Mutex
	state RevealState
	delay time.Duration
	timer *time.Timer
}

// NewRevealMachine は idle 状態の状態機械を生成します。
// delay が0以下の場合は DefaultTransitionDelay を使用します。
func NewRevealMachine(delay time.Duration) *RevealMachine {
	if delay <= 0 {
		delay = DefaultTransitionDelay
	}
	return &RevealMachine{state: StateIdle, delay: delay}
}

// State は現在の状態を返します。
func (m *RevealMachine) State() RevealState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Fire はイベントを適用し、遷移後の状態を返します。
// transition 状態に入ると自動前進タイマーが起動し、クリック（EventAdvance）が
// 先行した場合は満了時のタイマー側が ErrInvalidTransition で空振りします。
func (m *RevealMachine) Fire(ev RevealEvent) (RevealState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := transitionTable[m.state][ev]
	if !ok {
		return m.state, fmt.Errorf("%w: %s では %s を受理できません", ErrInvalidTransition, m.state, ev)
	}

	// transition を離れる・リセットする際は残っているタイマーを必ず止める
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	m.state = next
	if next == StateTransition {
		m.timer = time.AfterFunc(m.delay, func() {
			// 競合してもFireが直列化するため、負けた側は no-op になる
			m.Fire(EventAdvance) //nolint:errcheck
		})
	}
	return m.state, nil
}

// Reset は任意の状態から無条件で idle に戻します。
func (m *RevealMachine) Reset() RevealState {
	state, _ := m.Fire(EventReset)
	return state
}

// transitionTable は状態×イベントの前進遷移表です。
// EventReset は全状態で受理されます。
var transitionTable = map[RevealState]map[RevealEvent]RevealState{
	StateIdle: {
		EventStart: StateGenerating,
		EventReset: StateIdle,
	},
	StateGenerating: {
		EventSucceed: StateSceneReveal,
		EventFail:    StateIdle,
		EventReset:   StateIdle,
	},
	StateSceneReveal: {
		EventContinue: StateTransition,
		EventReset:    StateIdle,
	},
	StateTransition: {
		EventAdvance: StateCardReveal,
		EventReset:   StateIdle,
	},
	StateCardReveal: {
		EventReset: StateIdle,
	},
}
