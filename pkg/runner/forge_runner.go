package runner

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-sprite-kit/pkg/compositor"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/provider"
	"github.com/shouni/go-sprite-kit/pkg/world"
)

// ForgeArtifacts は1回の鍛造実行で保存された成果物のパスです。
type ForgeArtifacts struct {
	Name      string
	CardPath  string
	ScenePath string
}

// ForgeRunner は写真1枚からカードとシーンを生成し、成果物として保存する実行実体なのだ。
type ForgeRunner struct {
	composer   *generator.Composer
	compositor *compositor.Compositor
	writer     remoteio.OutputWriter // nil の場合はローカルファイルに直接保存する
}

// NewForgeRunner は依存関係を注入して初期化します。
func NewForgeRunner(composer *generator.Composer, comp *compositor.Compositor, writer remoteio.OutputWriter) *ForgeRunner {
	return &ForgeRunner{
		composer:   composer,
		compositor: comp,
		writer:     writer,
	}
}

// Run は指定された写真から二重生成を実行し、合成済みカードとシーンを保存します。
func (fr *ForgeRunner) Run(ctx context.Context, w *world.Entry, photoPath, playerName, outputDir string) (*ForgeArtifacts, error) {
	photo, mimeType, err := loadPhoto(photoPath)
	if err != nil {
		return nil, err
	}

	slog.Info("二重生成を開始します",
		slog.String("world", w.ID),
		slog.String("photo", photoPath),
	)

	result, err := fr.composer.GenerateDualOutput(ctx, nil, generator.ForgeRequest{
		World:       w,
		ImageBase64: photo,
		MimeType:    mimeType,
		PlayerName:  playerName,
	})
	if err != nil {
		return nil, fmt.Errorf("生成の実行に失敗しました: %w", err)
	}
	if !result.Outcome.Success {
		return nil, fmt.Errorf("生成が完了しませんでした: %s", result.Outcome.Message)
	}

	// 片側成功許容時は Success でも失敗側の画像が nil になるため、側ごとに保存する
	stamp := time.Now().Format("20060102_150405")
	artifacts := &ForgeArtifacts{Name: result.Name}

	if img := result.Outcome.Card.Image; img != nil {
		path, err := fr.saveCard(ctx, w, result, img, outputDir, stamp)
		if err != nil {
			return nil, err
		}
		artifacts.CardPath = path
	} else {
		slog.Warn("カード生成が失敗したため、カードの保存をスキップします",
			slog.Any("error", result.Outcome.Card.Err))
	}

	if img := result.Outcome.Scene.Image; img != nil {
		path, err := fr.saveScene(ctx, img, outputDir, stamp)
		if err != nil {
			return nil, err
		}
		artifacts.ScenePath = path
	} else {
		slog.Warn("シーン生成が失敗したため、シーンの保存をスキップします",
			slog.Any("error", result.Outcome.Scene.Err))
	}

	slog.Info("成果物を保存しました",
		slog.String("card", artifacts.CardPath),
		slog.String("scene", artifacts.ScenePath),
	)
	return artifacts, nil
}

// saveCard はカード画像を（必要なら合成してから）保存します。
func (fr *ForgeRunner) saveCard(ctx context.Context, w *world.Entry, result *generator.ForgeResult, img *provider.Image, outputDir, stamp string) (string, error) {
	cardBytes, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		return "", fmt.Errorf("カード画像のデコードに失敗しました: %w", err)
	}

	if fr.compositor != nil {
		cardBytes, err = fr.compositor.ComposeCard(cardBytes, w.FramePath, result.Card, result.Name)
		if err != nil {
			return "", fmt.Errorf("カードの合成に失敗しました: %w", err)
		}
	}

	path := filepath.Join(outputDir, fmt.Sprintf("card_%s.png", stamp))
	if err := fr.save(ctx, path, cardBytes, "image/png"); err != nil {
		return "", fmt.Errorf("カードの保存に失敗しました: %w", err)
	}
	return path, nil
}

// saveScene はシーン画像をMIMEタイプに応じた拡張子で保存します。
func (fr *ForgeRunner) saveScene(ctx context.Context, img *provider.Image, outputDir, stamp string) (string, error) {
	sceneBytes, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		return "", fmt.Errorf("シーン画像のデコードに失敗しました: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("scene_%s%s", stamp, getPreferredExtension(img.MimeType)))
	if err := fr.save(ctx, path, sceneBytes, img.MimeType); err != nil {
		return "", fmt.Errorf("シーンの保存に失敗しました: %w", err)
	}
	return path, nil
}

// save は注入された Writer があればそれを、なければローカルファイルを使います。
func (fr *ForgeRunner) save(ctx context.Context, path string, data []byte, mimeType string) error {
	if fr.writer != nil {
		return fr.writer.Write(ctx, path, bytes.NewReader(data), mimeType)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗したのだ: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// loadPhoto は写真ファイルを読み込み、base64文字列とMIMEタイプを返します。
func loadPhoto(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("写真ファイルの読み込みに失敗しました: %w", err)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "image/jpeg" // フォールバック
	}
	return base64.StdEncoding.EncodeToString(data), mimeType, nil
}

func getPreferredExtension(mimeType string) string {
	preferred := map[string]string{"image/png": ".png", "image/jpeg": ".jpg", "image/webp": ".webp"}
	if ext, ok := preferred[mimeType]; ok {
		return ext
	}
	return ".png"
}
