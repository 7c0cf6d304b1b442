package content

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/world"
)

// MaxNameLength はカードに刻印できるプレイヤー名の最大文字数です。
const MaxNameLength = 13

// StatLine はカード面に描画される1行分のステータスです。
type StatLine struct {
	Label string
	Value string
}

// CardContent は1回の生成試行ごとに抽選されるカード文面一式です。
type CardContent struct {
	Title string
	Class string
	Stats []StatLine // 常に world.CardStatCount 件、相異なるプールから1件ずつ
}

// SceneUI は1回の生成試行ごとに抽選されるシーンHUDの値一式です。
type SceneUI struct {
	Hearts    int
	MaxHearts int
	Score     int
	Lives     int
	Extra     *StatLine // ワールドのUIプールからの追加表示（プールがなければ nil）
}

// Randomizer はワールド定義のプールから内容を抽選します。
// 形状は決定的（常に同じ件数・同じ構造）、値のみが乱数に依存します。
type Randomizer struct {
	rng *rand.Rand
}

// NewRandomizer は現在時刻をシードとした Randomizer を生成します。
func NewRandomizer() *Randomizer {
	return NewSeededRandomizer(time.Now().UnixNano())
}

// NewSeededRandomizer は指定シードの Randomizer を生成します。テストでの再現用です。
func NewSeededRandomizer(seed int64) *Randomizer {
	return &Randomizer{rng: rand.New(rand.NewSource(seed))}
}

// PickCardContent はタイトル・クラス・4ステータスを抽選します。
// ステータスは4つの相異なるプールからシャッフルして選び、同一プールは再利用しません。
// プール不足はワールドのロード時に弾かれている前提です（world.Entry.Validate 参照）。
func (r *Randomizer) PickCardContent(w *world.Entry) (CardContent, error) {
	if len(w.StatPools) < world.CardStatCount {
		return CardContent{}, fmt.Errorf("ワールド %q のステータスプールが不足しています (%d 件)", w.ID, len(w.StatPools))
	}

	// シャッフルして先頭4件を採用（重複なし抽出）
	idx := r.rng.Perm(len(w.StatPools))[:world.CardStatCount]
	stats := make([]StatLine, 0, world.CardStatCount)
	for _, i := range idx {
		pool := w.StatPools[i]
		stats = append(stats, StatLine{
			Label: pool.Label,
			Value: pool.Values[r.rng.Intn(len(pool.Values))],
		})
	}

	return CardContent{
		Title: w.Titles[r.rng.Intn(len(w.Titles))],
		Class: w.Classes[r.rng.Intn(len(w.Classes))],
		Stats: stats,
	}, nil
}

// PickSceneUI はシーンHUDのハート・スコア・残機と追加要素を抽選します。
func (r *Randomizer) PickSceneUI(w *world.Entry) SceneUI {
	ui := SceneUI{
		MaxHearts: 3,
		Hearts:    r.rng.Intn(3) + 1,
		Score:     (r.rng.Intn(90) + 10) * 100,
		Lives:     r.rng.Intn(3) + 1,
	}

	if len(w.UIPools) > 0 {
		pool := w.UIPools[r.rng.Intn(len(w.UIPools))]
		ui.Extra = &StatLine{
			Label: pool.Label,
			Value: pool.Values[r.rng.Intn(len(pool.Values))],
		}
	}
	return ui
}

// ResolveName はユーザー入力名を正規化し、空の場合はワールドのネームプールから
// フォールバック名を抽選します。結果は常に大文字・MaxNameLength 文字以内です。
func (r *Randomizer) ResolveName(w *world.Entry, raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		pool := w.Names
		if len(pool) == 0 {
			// ネームプール未定義のワールドはタイトル候補を流用
			pool = w.Titles
		}
		name = pool[r.rng.Intn(len(pool))]
	}
	return NormalizeName(name)
}

// NormalizeName は名前を大文字化し MaxNameLength 文字（rune単位）に切り詰めます。
func NormalizeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	runes := []rune(name)
	if len(runes) > MaxNameLength {
		runes = runes[:MaxNameLength]
	}
	return strings.TrimSpace(string(runes))
}
