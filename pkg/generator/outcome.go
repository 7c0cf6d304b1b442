package generator

import (
	"github.com/shouni/go-sprite-kit/pkg/provider"
)

// Outcome は片側出力（カードまたはシーン）の生成結果です。
type Outcome struct {
	Success  bool
	Image    *provider.Image
	Err      error // 分類タグ付き (provider.Error)
	Attempts int
}

// DualOutcome はカード・シーン両出力の集約結果です。
// 既定のポリシーでは両方の成功をもってのみ Success となり、
// 片側だけの成功が外側に漏れることはありません。
type DualOutcome struct {
	Success bool
	Card    Outcome
	Scene   Outcome

	// 失敗時のみ設定される、境界層向けの分類と文言
	ErrorKind provider.Kind
	Message   string
}

// Narrative は分類タグを利用者向けの物語調メッセージに変換します。
// 技術的な語彙（内部の仕組みを想起させる言葉）はここで完全に遮断します。
func Narrative(kind provider.Kind) string {
	switch kind {
	case provider.KindConfiguration:
		return "工房の準備がまだ整っていません。しばらくしてからもう一度お試しください。"
	case provider.KindInvalidInput:
		return "その写真はうまく読み込めませんでした。別の写真を選んでみてください。"
	case provider.KindRateLimited:
		return "今回の冒険で作れる枚数を使い切りました。少し休んでからまた遊んでください。"
	case provider.KindTimeout:
		return "描き上げるのに時間がかかりすぎたため、今回は中断しました。もう一度お試しください。"
	default:
		// upstream_error / content_invalid / generation_failed はすべて同じ一般文言
		return "今回はうまく絵にできませんでした。もう一度試してみてください。"
	}
}
