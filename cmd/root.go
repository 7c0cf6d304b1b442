package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-sprite-kit/internal/config"
)

// 設定はパッケージ初期化時に環境変数から読み込むのだ。
var (
	cfg  = config.LoadConfig()
	opts = &cfg.Options
)

var rootCmd = &cobra.Command{
	Use:   "sprite-kit",
	Short: "写真からピクセルアートのカードとシーンを鍛造するツールキットなのだ。",
	Long: `Sprite Kit は1枚の写真から、選んだ世界観のキャラクターカード（縦）と
ワールドシーン（横）を同時に生成するツールキットなのだ。
サーバーとしてもCLIの一発実行としても使えるのだよ。`,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags() {
	rootCmd.PersistentFlags().StringVarP(&opts.WorldsFile, "worlds", "w", config.DefaultWorldsFile, "ワールド定義YAMLのパスなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "生成リクエストのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "生成呼び出しの最小間隔なのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.AllowPartial, "allow-partial", false, "片側だけの成功を成功として扱う旧挙動なのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// 一覧表示は生成を伴わないのでキー不要なのだ
	if cmd.Name() == "themes" {
		return nil
	}

	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini 利用には必須なのだ")
		}
	default:
		if cfg.OpenRouterAPIKey == "" {
			return fmt.Errorf("エラー: 環境変数 OPENROUTER_API_KEY が設定されていません。画像生成には必須なのだ")
		}
	}
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags()
	rootCmd.AddCommand(serveCmd, forgeCmd, themesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
