package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/go-sprite-kit/pkg/content"
	"github.com/shouni/go-sprite-kit/pkg/world"
)

// OutputType は生成物の種別（カード/シーン）です。
type OutputType string

const (
	OutputCard  OutputType = "card"
	OutputScene OutputType = "scene"
)

// CompiledPrompt は1回の生成呼び出しに渡す完成済みプロンプトです。
// 内容はワールド定義と抽選済みコンテンツの純粋な関数であり、ここで乱数は使いません。
type CompiledPrompt struct {
	Text        string
	Width       int
	Height      int
	AspectRatio string // 例: "3:4"
}

// CompileCard はカード出力用のプロンプトを構築します。
// 抽選済みのタイトル・クラス・4ステータスは、生成側がそのまま描画すべき
// 逐語ブロックとして埋め込みます。
func CompileCard(w *world.Entry, c content.CardContent, name string) CompiledPrompt {
	width, height := DefaultCardWidth, DefaultCardHeight
	if w.CardSize != nil {
		width, height = w.CardSize.Width, w.CardSize.Height
	}

	var sb strings.Builder
	writeDimensionSpec(&sb, width, height)
	sb.WriteString(PixelArtHeader)
	sb.WriteString("\n\n")
	sb.WriteString(CardCompositionRules)
	sb.WriteString("\n\n")

	if w.CardStyle != "" {
		fmt.Fprintf(&sb, "### WORLD STYLE: %s ###\n%s\n\n", w.Label, w.CardStyle)
	}

	sb.WriteString("### CARD TEXT (RENDER VERBATIM) ###\n")
	fmt.Fprintf(&sb, "TITLE: %s\n", c.Title)
	fmt.Fprintf(&sb, "NAME: %s\n", name)
	fmt.Fprintf(&sb, "CLASS: %s\n", c.Class)
	for _, s := range c.Stats {
		fmt.Fprintf(&sb, "STAT: %s %s\n", s.Label, s.Value)
	}

	return CompiledPrompt{
		Text:        sb.String(),
		Width:       width,
		Height:      height,
		AspectRatio: reduceRatio(width, height),
	}
}

// CompileScene はシーン出力用のプロンプトを構築します。
func CompileScene(w *world.Entry, ui content.SceneUI) CompiledPrompt {
	width, height := DefaultSceneWidth, DefaultSceneHeight
	if w.SceneSize != nil {
		width, height = w.SceneSize.Width, w.SceneSize.Height
	}

	var sb strings.Builder
	writeDimensionSpec(&sb, width, height)
	sb.WriteString(PixelArtHeader)
	sb.WriteString("\n\n")
	sb.WriteString(SceneCompositionRules)
	sb.WriteString("\n\n")

	if w.SceneStyle != "" {
		fmt.Fprintf(&sb, "### WORLD STYLE: %s ###\n%s\n\n", w.Label, w.SceneStyle)
	}
	if w.CameraDirective != "" {
		fmt.Fprintf(&sb, "### CAMERA ###\n%s\n\n", w.CameraDirective)
	}

	sb.WriteString("### HUD TEXT (RENDER VERBATIM) ###\n")
	fmt.Fprintf(&sb, "HEARTS: %d/%d\n", ui.Hearts, ui.MaxHearts)
	fmt.Fprintf(&sb, "SCORE: %d\n", ui.Score)
	fmt.Fprintf(&sb, "LIVES: x%d\n", ui.Lives)
	if ui.Extra != nil {
		fmt.Fprintf(&sb, "%s: %s\n", ui.Extra.Label, ui.Extra.Value)
	}

	return CompiledPrompt{
		Text:        sb.String(),
		Width:       width,
		Height:      height,
		AspectRatio: reduceRatio(width, height),
	}
}

// Harden は2回目の試行専用の厳格化プロンプトを返します。
// 元の内容末尾に、プレースホルダ禁止とアスペクト比の再提示を付与するだけで、
// 寸法・比率そのものは変更しません。
func Harden(p CompiledPrompt) CompiledPrompt {
	var sb strings.Builder
	sb.WriteString(p.Text)
	sb.WriteString("\n\n")
	sb.WriteString(hardenSuffix)
	fmt.Fprintf(&sb, "\n- The output aspect ratio MUST be exactly %s (%dx%d). Never square.\n",
		p.AspectRatio, p.Width, p.Height)

	hardened := p
	hardened.Text = sb.String()
	return hardened
}

// writeDimensionSpec は出力寸法の指示ブロックを書き込みます。
func writeDimensionSpec(sb *strings.Builder, width, height int) {
	orientation := "landscape (wider than tall)"
	if height > width {
		orientation = "portrait (taller than wide)"
	}
	sb.WriteString("OUTPUT IMAGE SPECIFICATIONS:\n")
	fmt.Fprintf(sb, "- Exact dimensions: %dx%d pixels\n", width, height)
	fmt.Fprintf(sb, "- Aspect ratio: %s\n", reduceRatio(width, height))
	fmt.Fprintf(sb, "- Orientation: %s\n", orientation)
	sb.WriteString("- DO NOT generate a square image\n\n")
}

// reduceRatio は寸法を最大公約数で約分した "W:H" 形式の比率を返します。
func reduceRatio(width, height int) string {
	d := gcd(width, height)
	if d == 0 {
		return fmt.Sprintf("%d:%d", width, height)
	}
	return fmt.Sprintf("%d:%d", width/d, height/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
