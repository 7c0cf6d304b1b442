package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shouni/go-sprite-kit/pkg/content"
	"github.com/shouni/go-sprite-kit/pkg/world"
)

func promptWorld() *world.Entry {
	return &world.Entry{
		ID:              "neon-dungeon",
		Label:           "Neon Dungeon",
		CardStyle:       "glowing violet torches, chrome skeletons",
		SceneStyle:      "dark labyrinth corridors",
		CameraDirective: "wide establishing shot",
	}
}

func sampleCard() content.CardContent {
	return content.CardContent{
		Title: "GLITCH WALKER",
		Class: "Warden",
		Stats: []content.StatLine{
			{Label: "ATK", Value: "87"},
			{Label: "DEF", Value: "31"},
			{Label: "LUCK", Value: "99"},
			{Label: "SPD", Value: "60"},
		},
	}
}

func TestCompileCard(t *testing.T) {
	p := CompileCard(promptWorld(), sampleCard(), "VEX")

	t.Run("既定寸法と縦型メタデータが設定されること", func(t *testing.T) {
		assert.Equal(t, DefaultCardWidth, p.Width)
		assert.Equal(t, DefaultCardHeight, p.Height)
		assert.Equal(t, "3:4", p.AspectRatio)
		assert.Contains(t, p.Text, "portrait (taller than wide)")
	})

	t.Run("逐語ブロックに抽選内容が全て含まれること", func(t *testing.T) {
		assert.Contains(t, p.Text, "TITLE: GLITCH WALKER")
		assert.Contains(t, p.Text, "NAME: VEX")
		assert.Contains(t, p.Text, "CLASS: Warden")
		assert.Contains(t, p.Text, "STAT: ATK 87")
		assert.Contains(t, p.Text, "STAT: SPD 60")
	})

	t.Run("ワールドのスタイル修飾子が埋め込まれること", func(t *testing.T) {
		assert.Contains(t, p.Text, "glowing violet torches")
	})

	t.Run("同一入力から同一プロンプトが得られること", func(t *testing.T) {
		again := CompileCard(promptWorld(), sampleCard(), "VEX")
		assert.Equal(t, p, again)
	})

	t.Run("ワールド定義の寸法上書きが効くこと", func(t *testing.T) {
		w := promptWorld()
		w.CardSize = &world.OutputSize{Width: 1024, Height: 1536}
		over := CompileCard(w, sampleCard(), "VEX")
		assert.Equal(t, 1024, over.Width)
		assert.Equal(t, "2:3", over.AspectRatio)
	})
}

func TestCompileScene(t *testing.T) {
	extra := content.StatLine{Label: "KEYS", Value: "x3"}
	ui := content.SceneUI{Hearts: 2, MaxHearts: 3, Score: 4200, Lives: 2, Extra: &extra}
	p := CompileScene(promptWorld(), ui)

	assert.Equal(t, "16:9", p.AspectRatio)
	assert.Contains(t, p.Text, "landscape (wider than tall)")
	assert.Contains(t, p.Text, "HEARTS: 2/3")
	assert.Contains(t, p.Text, "SCORE: 4200")
	assert.Contains(t, p.Text, "LIVES: x2")
	assert.Contains(t, p.Text, "KEYS: x3")
	assert.Contains(t, p.Text, "wide establishing shot")
}

func TestHarden(t *testing.T) {
	p := CompileCard(promptWorld(), sampleCard(), "VEX")
	h := Harden(p)

	t.Run("元の内容を保持したまま厳格化指示が付与されること", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(h.Text, p.Text))
		assert.Contains(t, h.Text, "NO placeholder tokens")
		assert.Contains(t, h.Text, "exactly 3:4")
	})

	t.Run("寸法メタデータは変更されないこと", func(t *testing.T) {
		assert.Equal(t, p.Width, h.Width)
		assert.Equal(t, p.Height, h.Height)
		assert.Equal(t, p.AspectRatio, h.AspectRatio)
	})

	t.Run("付与されるのはテキストのみでバイナリ断片を含まないこと", func(t *testing.T) {
		suffix := strings.TrimPrefix(h.Text, p.Text)
		for _, r := range suffix {
			assert.True(t, r == '\n' || r >= ' ', "制御文字が混入しています: %q", r)
		}
	})
}
