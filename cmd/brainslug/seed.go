package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/brainslug/internal/config"
	"github.com/John-Robertt/brainslug/internal/store"
)

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "写入演示数据（两部电影及其 source；可重复执行）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(config.CLIArgs{})
			if err != nil {
				return c.fail(1, err)
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, eff)
			if err != nil {
				return c.fail(1, fmt.Errorf("打开存储失败：%w", err))
			}
			defer st.Close()

			if err := store.Seed(ctx, st); err != nil {
				return c.fail(1, err)
			}
			c.log.Info("已写入演示数据", "backend", eff.Backend, "movies", len(store.SeedMovies), "sources", len(store.SeedSources))
			return nil
		},
	}
}
