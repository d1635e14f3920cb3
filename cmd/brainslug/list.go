package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/brainslug/internal/config"
	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/record"
)

func (c *cli) listCmd() *cobra.Command {
	var id, name, imdbID, coverURL string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "以 JSON 输出存储中的 Movie 记录（可按字段精确过滤）",
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

			q := record.AllMovies
			conds := map[string]string{}
			for attr, flag := range map[string]string{"id": "id", "name": "name", "imdbId": "imdb-id", "coverUrl": "cover-url"} {
				if cmd.Flags().Changed(flag) {
					v, _ := cmd.Flags().GetString(flag)
					conds[attr] = v
				}
			}
			if len(conds) > 0 {
				q = record.Local(domain.RecordTypeMovie, conds)
			}

			ms, err := st.FindMovies(ctx, q)
			if err != nil {
				return c.fail(1, err)
			}
			if ms == nil {
				ms = []domain.Movie{}
			}
			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ms)
		},
	}
	f := cmd.Flags()
	f.StringVar(&id, "id", "", "按 id 过滤")
	f.StringVar(&name, "name", "", "按 name 过滤")
	f.StringVar(&imdbID, "imdb-id", "", "按 imdbId 过滤")
	f.StringVar(&coverURL, "cover-url", "", "按 coverUrl 过滤")
	return cmd
}
