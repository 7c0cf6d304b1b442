package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/shouni/go-sprite-kit/pkg/content"
)

// Mode は合成の動作モードです。生成側が枠と文字まで描き切る構成では
// 合成は恒等変換（pass_through）になります。
type Mode string

const (
	ModePassThrough Mode = "pass_through"
	ModeLocal       Mode = "local"
)

// カードキャンバスの固定寸法と描画座標。
// ローカル合成時のレイアウトはこの定数群だけで決まります。
const (
	CanvasWidth  = 1728
	CanvasHeight = 2304

	// 被写体の頭部を切り落とさないよう、縦方向の切り出しは上寄りに偏らせます。
	CardAnchorY = 0.25
	CardAnchorX = 0.5

	titleX, titleY = 144, 220
	titleFontSize  = 96.0
	nameX, nameY   = 144, 1960
	nameFontSize   = 112.0
	classX, classY = 144, 2090
	classFontSize  = 72.0

	statX, statBaseY = 144, 1560
	statLineHeight   = 88
	statFontSize     = 64.0
)

var (
	// ErrNoArtwork は元画像が未指定だった場合のエラーです。
	ErrNoArtwork = errors.New("合成対象の元画像がありません")
	// ErrBadArtwork は元画像のデコードに失敗した場合のエラーです。
	// 代替画像での継続は行わず、必ず呼び出し元に失敗を返します。
	ErrBadArtwork = errors.New("合成対象の元画像を読み取れません")
)

// Compositor は生成画像・フレーム素材・文字情報を1枚のカードに合成します。
// 同一入力に対して同一出力を返す決定的な描画器であり、乱数は使いません。
type Compositor struct {
	mode Mode
	ttf  *opentype.Font
}

// New は Compositor を生成します。local モードで fontPath が指定されている
// 場合のみフォントを読み込みます。空の場合、文字の描き込みは行われません。
func New(mode Mode, fontPath string) (*Compositor, error) {
	c := &Compositor{mode: mode}
	if mode != ModeLocal || fontPath == "" {
		return c, nil
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("フォントファイルの読み込みに失敗しました: %w", err)
	}
	ttf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("フォントの解析に失敗しました: %w", err)
	}
	c.ttf = ttf
	return c, nil
}

// ComposeCard は生成済みアートワークから最終的なカード画像を作ります。
// pass_through モードでは入力バイト列をそのまま返し、local モードでは
// カバースケーリング → フレーム重ね描き → 固定座標の文字描画の順で合成します。
func (c *Compositor) ComposeCard(artwork []byte, framePath string, card content.CardContent, name string) ([]byte, error) {
	if len(artwork) == 0 {
		return nil, ErrNoArtwork
	}
	if c.mode == ModePassThrough {
		return artwork, nil
	}

	src, _, err := image.Decode(bytes.NewReader(artwork))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtwork, err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))

	crop := coverRect(src.Bounds().Dx(), src.Bounds().Dy(), CanvasWidth, CanvasHeight, CardAnchorX, CardAnchorY)
	crop = crop.Add(src.Bounds().Min)
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), src, crop, xdraw.Src, nil)

	if framePath != "" {
		if err := c.drawFrame(canvas, framePath); err != nil {
			return nil, err
		}
	}

	if err := c.drawCardText(canvas, card, name); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("カード画像のエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// coverRect は対象矩形を完全に覆うために切り出すべき元画像内の領域を返します。
// 倍率は max(tw/sw, th/sh) で、はみ出す軸をアンカー比率に従って切り詰めます。
// anchorY が小さいほど上側を残し、下側を多く捨てます。
func coverRect(srcW, srcH, targetW, targetH int, anchorX, anchorY float64) image.Rectangle {
	scaleX := float64(targetW) / float64(srcW)
	scaleY := float64(targetH) / float64(srcH)
	scale := scaleX
	if scaleY > scale {
		scale = scaleY
	}

	visibleW := float64(targetW) / scale
	visibleH := float64(targetH) / scale

	x0 := (float64(srcW) - visibleW) * anchorX
	y0 := (float64(srcH) - visibleH) * anchorY

	return image.Rect(int(x0+0.5), int(y0+0.5), int(x0+visibleW+0.5), int(y0+visibleH+0.5))
}

// drawFrame はフレーム素材をキャンバス全面に重ね描きします。
func (c *Compositor) drawFrame(canvas *image.RGBA, framePath string) error {
	data, err := os.ReadFile(framePath)
	if err != nil {
		return fmt.Errorf("フレーム素材の読み込みに失敗しました: %w", err)
	}
	frame, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("フレーム素材のデコードに失敗しました: %w", err)
	}
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), frame, frame.Bounds(), xdraw.Over, nil)
	return nil
}

// drawCardText はタイトル・名前・クラス・ステータスを固定座標に描き込みます。
// 文字の背後にパネルは敷かず、フォント未設定の場合は何も描きません。
func (c *Compositor) drawCardText(canvas *image.RGBA, card content.CardContent, name string) error {
	if c.ttf == nil {
		return nil
	}

	draw := func(text string, x, y int, size float64) error {
		if text == "" {
			return nil
		}
		face, err := opentype.NewFace(c.ttf, &opentype.FaceOptions{
			Size: size, DPI: 72, Hinting: font.HintingFull,
		})
		if err != nil {
			return fmt.Errorf("フォントフェイスの生成に失敗しました: %w", err)
		}
		defer face.Close()

		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(color.White),
			Face: face,
			Dot:  fixed.P(x, y),
		}
		d.DrawString(text)
		return nil
	}

	if err := draw(card.Title, titleX, titleY, titleFontSize); err != nil {
		return err
	}
	for i, s := range card.Stats {
		line := fmt.Sprintf("%s %s", s.Label, s.Value)
		if err := draw(line, statX, statBaseY+i*statLineHeight, statFontSize); err != nil {
			return err
		}
	}
	if err := draw(name, nameX, nameY, nameFontSize); err != nil {
		return err
	}
	return draw(card.Class, classX, classY, classFontSize)
}
