package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-sprite-kit/pkg/world"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "選択できる世界観の一覧を表示するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		worlds, err := world.LoadWorlds(opts.WorldsFile)
		if err != nil {
			return fmt.Errorf("ワールド定義の読み込みに失敗したのだ: %w", err)
		}

		for _, s := range worlds.Summaries() {
			fmt.Printf("%s %s (%s)\n", s.Icon, s.Label, s.ID)
			if s.Description != "" {
				fmt.Printf("    %s\n", s.Description)
			}
		}
		return nil
	},
}
