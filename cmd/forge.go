package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/pkg/workflow"
)

var forgeCmd = &cobra.Command{
	Use:   "forge",
	Short: "写真1枚からカードとシーンを一発生成するのだ。",
	Long:  "指定した写真と世界観から、キャラクターカードとワールドシーンを生成してローカルに保存するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		if opts.PhotoFile == "" {
			return fmt.Errorf("--photo で写真ファイルを指定してほしいのだ")
		}
		if opts.WorldID == "" {
			return fmt.Errorf("--world で世界観IDを指定してほしいのだ")
		}

		ctx := context.Background()

		builder, err := workflow.NewBuilder(ctx, cfg)
		if err != nil {
			return fmt.Errorf("起動準備に失敗したのだ: %w", err)
		}

		w := builder.Worlds().FindWorld(opts.WorldID)
		if w == nil {
			return fmt.Errorf("世界観 %q が見つからないのだ。themes コマンドで一覧を確認してほしいのだ", opts.WorldID)
		}

		fr, err := builder.BuildForgeRunner()
		if err != nil {
			return err
		}

		artifacts, err := fr.Run(ctx, w, opts.PhotoFile, opts.PlayerName, opts.OutputDir)
		if err != nil {
			return fmt.Errorf("鍛造に失敗したのだ: %w", err)
		}

		fmt.Println("\n" + strings.Repeat("✨", 25))
		fmt.Printf("🗡️  %s のカードが完成: %s\n", artifacts.Name, artifacts.CardPath)
		fmt.Printf("🏞️  ワールドシーン: %s\n", artifacts.ScenePath)
		fmt.Println(strings.Repeat("✨", 25))

		return nil
	},
}

func init() {
	forgeCmd.Flags().StringVarP(&opts.PhotoFile, "photo", "p", "", "入力写真のパスなのだ。")
	forgeCmd.Flags().StringVar(&opts.WorldID, "world", "", "生成に使う世界観IDなのだ。")
	forgeCmd.Flags().StringVarP(&opts.PlayerName, "name", "n", "", "カードに刻む名前なのだ。省略すると世界観から抽選するのだ。")
	forgeCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "成果物の保存先ディレクトリなのだ。")
	forgeCmd.Flags().BoolVar(&opts.ComposeLocal, "compose-local", false, "フレームと文字をローカルで合成するのだ。")
	forgeCmd.Flags().StringVar(&opts.FontFile, "font", "", "ローカル合成で使うフォントファイルのパスなのだ。")
}
