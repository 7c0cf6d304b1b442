package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-sprite-kit/pkg/content"
)

// encodePNG は単色の PNG バイト列を作ります。
func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCoverRect(t *testing.T) {
	t.Run("縦長の元画像は上下が切り詰められること", func(t *testing.T) {
		// 100x200 を 100x100 に：倍率1、可視領域は 100x100
		crop := coverRect(100, 200, 100, 100, 0.5, 0.25)

		assert.Equal(t, 0, crop.Min.X)
		assert.Equal(t, 100, crop.Max.X)
		// 余剰100pxのうち、上25%・下75%が捨てられる
		assert.Equal(t, 25, crop.Min.Y)
		assert.Equal(t, 125, crop.Max.Y)
	})

	t.Run("対象より細い元画像でも左右は削られないこと", func(t *testing.T) {
		crop := coverRect(50, 200, 100, 100, 0.5, 0.25)

		assert.Equal(t, 0, crop.Min.X)
		assert.Equal(t, 50, crop.Max.X)
		assert.Greater(t, crop.Min.Y, 0)
		assert.Less(t, crop.Max.Y, 200)
	})

	t.Run("アンカー0.25は下側から多く削ること", func(t *testing.T) {
		crop := coverRect(100, 400, 100, 100, 0.5, 0.25)

		removedTop := crop.Min.Y
		removedBottom := 400 - crop.Max.Y
		assert.Greater(t, removedBottom, removedTop)
	})

	t.Run("横長の元画像は左右中央で切り詰められること", func(t *testing.T) {
		crop := coverRect(400, 100, 100, 100, 0.5, 0.25)

		assert.Equal(t, 150, crop.Min.X)
		assert.Equal(t, 250, crop.Max.X)
		assert.Equal(t, 0, crop.Min.Y)
		assert.Equal(t, 100, crop.Max.Y)
	})
}

func TestCompositor_PassThrough(t *testing.T) {
	c, err := New(ModePassThrough, "")
	require.NoError(t, err)

	artwork := encodePNG(t, 4, 4, color.RGBA{R: 255, A: 255})
	out, err := c.ComposeCard(artwork, "", content.CardContent{}, "HERO")
	require.NoError(t, err)
	assert.Equal(t, artwork, out)
}

func TestCompositor_LocalComposition(t *testing.T) {
	c, err := New(ModeLocal, "")
	require.NoError(t, err)

	t.Run("出力はキャンバス寸法のPNGになること", func(t *testing.T) {
		artwork := encodePNG(t, 90, 160, color.RGBA{G: 200, A: 255})
		out, err := c.ComposeCard(artwork, "", content.CardContent{}, "HERO")
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, CanvasWidth, img.Bounds().Dx())
		assert.Equal(t, CanvasHeight, img.Bounds().Dy())
	})

	t.Run("同一入力からは同一のバイト列が得られること", func(t *testing.T) {
		artwork := encodePNG(t, 90, 160, color.RGBA{B: 120, A: 255})
		first, err := c.ComposeCard(artwork, "", content.CardContent{}, "HERO")
		require.NoError(t, err)
		second, err := c.ComposeCard(artwork, "", content.CardContent{}, "HERO")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("フレーム素材が前面に重なること", func(t *testing.T) {
		dir := t.TempDir()
		framePath := filepath.Join(dir, "frame.png")
		frame := encodePNG(t, 16, 16, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		require.NoError(t, os.WriteFile(framePath, frame, 0o644))

		artwork := encodePNG(t, 90, 160, color.RGBA{G: 200, A: 255})
		out, err := c.ComposeCard(artwork, framePath, content.CardContent{}, "HERO")
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		r, g, b, _ := img.At(CanvasWidth/2, CanvasHeight/2).RGBA()
		assert.Equal(t, uint32(10), r>>8)
		assert.Equal(t, uint32(20), g>>8)
		assert.Equal(t, uint32(30), b>>8)
	})
}

func TestCompositor_ArtworkErrors(t *testing.T) {
	c, err := New(ModeLocal, "")
	require.NoError(t, err)

	t.Run("元画像が空の場合は専用エラーを返すこと", func(t *testing.T) {
		_, err := c.ComposeCard(nil, "", content.CardContent{}, "HERO")
		assert.ErrorIs(t, err, ErrNoArtwork)
	})

	t.Run("デコード不能な元画像は専用エラーを返すこと", func(t *testing.T) {
		_, err := c.ComposeCard([]byte("this is not an image"), "", content.CardContent{}, "HERO")
		assert.ErrorIs(t, err, ErrBadArtwork)
	})

	t.Run("pass_throughでも空入力は拒否されること", func(t *testing.T) {
		p, err := New(ModePassThrough, "")
		require.NoError(t, err)
		_, err = p.ComposeCard(nil, "", content.CardContent{}, "HERO")
		assert.ErrorIs(t, err, ErrNoArtwork)
	})
}
