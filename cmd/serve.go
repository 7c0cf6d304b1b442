package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/internal/web"
	"github.com/shouni/go-sprite-kit/pkg/workflow"
)

var allowedOrigins string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "生成APIサーバーを起動するのだ。",
	Long:  "ワールド一覧と写真からの二重生成を提供するHTTPサーバーを起動するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		builder, err := workflow.NewBuilder(ctx, cfg)
		if err != nil {
			return fmt.Errorf("起動準備に失敗したのだ: %w", err)
		}

		var origins []string
		if allowedOrigins != "" {
			origins = strings.Split(allowedOrigins, ",")
		}

		server := web.NewServer(builder.Worlds(), builder.Composer(), builder.Sessions(), origins)

		slog.Info("生成APIサーバーを起動します",
			slog.String("addr", opts.ListenAddr),
			slog.String("provider", cfg.Provider),
			slog.Int("worlds", len(builder.Worlds())),
		)
		return server.Run(opts.ListenAddr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&opts.ListenAddr, "listen", "l", config.DefaultListenAddr, "待ち受けアドレスなのだ。")
	serveCmd.Flags().IntVar(&opts.SessionCeiling, "session-ceiling", config.DefaultSessionCeiling, "1セッションあたりの生成回数上限なのだ。")
	serveCmd.Flags().DurationVar(&opts.TransitionDelay, "transition-delay", config.DefaultTransitionDelay, "シーン公開からカード公開までの自動切替時間なのだ。")
	serveCmd.Flags().StringVar(&allowedOrigins, "allowed-origins", "", "CORSで許可するオリジン（カンマ区切り）なのだ。")
}
