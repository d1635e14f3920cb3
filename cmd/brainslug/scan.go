package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/brainslug/internal/app/catalog"
	"github.com/John-Robertt/brainslug/internal/config"
	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/infra/fsx"
	"github.com/John-Robertt/brainslug/internal/store"
)

func (c *cli) scanCmd() *cobra.Command {
	var (
		providerName string
		apply        bool
		refresh      bool
	)
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "扫描媒体库，刮削 Movie 记录并写入存储（默认 dry-run）",
		Long: `扫描 path 下的视频文件，从文件名/父目录提取 IMDb ID，
刮削名称与封面后写入存储，并为每个文件登记一条 MovieSource。

未指定 path 时读取 ./brainslug.json 的 path 字段。
默认 dry-run：只抓取与校验，不写存储、不写缓存。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca := config.CLIArgs{
				NeedPath:    true,
				Provider:    providerName,
				ProviderSet: cmd.Flags().Changed("provider"),
				Apply:       apply,
				ApplySet:    cmd.Flags().Changed("apply"),
				Refresh:     refresh,
			}
			if len(args) == 1 {
				ca.Path = args[0]
			}
			return c.runScan(cmd.Context(), ca)
		},
	}
	f := cmd.Flags()
	f.StringVar(&providerName, "provider", "", "首选 provider：imdb|omdb（未指定则读配置文件；最终默认 imdb）")
	f.BoolVar(&apply, "apply", false, "写入存储与缓存（默认 dry-run）；支持 --apply=false 覆盖配置中的 apply=true")
	f.BoolVar(&refresh, "refresh", false, "忽略已有记录与缓存，重新刮削")
	return cmd
}

func (c *cli) runScan(ctx context.Context, ca config.CLIArgs) error {
	eff, err := c.loadConfig(ca)
	if err != nil {
		cwd, _ := c.getwd()
		c.emitReport(reportForConfigError(cwd, ca, err))
		c.code = 1
		return nil
	}

	reg, err := newRegistry(eff)
	if err != nil {
		return c.fail(1, fmt.Errorf("初始化 provider registry 失败：%w", err))
	}

	st, err := c.openScanStore(ctx, eff)
	if err != nil {
		return c.fail(1, fmt.Errorf("打开存储失败：%w", err))
	}
	defer st.Close()

	rr := catalog.Execute(ctx, eff, st, reg, newLogObserver(c.log, reg))

	// apply：写入 <path>/cache/report.json；dry-run 禁止落盘。
	if eff.Apply {
		if err := writeReportFile(eff.Path, rr); err != nil {
			args := []any{"err", err}
			if fsx.IsCrossDevice(err) {
				args = append(args, "hint", "cache/ 位于单独挂载的文件系统上，请把它放回库目录所在的磁盘")
			}
			c.log.Error("写入 report.json 失败", args...)
			c.emitReport(rr)
			c.code = 1
			return nil
		}
		c.log.Info("report 已写入", "path", filepath.Join(eff.Path, "cache", "report.json"))
	}

	c.emitReport(rr)
	if !rr.OK() {
		c.code = 1
	}
	return nil
}

// openScanStore 打开扫描用的存储。
// dry-run 且 SQLite 文件还不存在时改用空的内存存储，避免 dry-run 创建 cache/cache.db。
func (c *cli) openScanStore(ctx context.Context, eff config.Effective) (store.Store, error) {
	if !eff.Apply && eff.Backend == store.BackendSQLite {
		if _, err := os.Stat(eff.SQLitePath); os.IsNotExist(err) {
			return store.NewMemory(), nil
		}
	}
	return openStore(ctx, eff)
}

// emitReport：stdout 非 TTY 时必须且仅输出一个 ScanReport JSON；终端上只打印摘要。
func (c *cli) emitReport(rr domain.ScanReport) {
	summary := fmt.Sprintf("完成：processed=%d skipped=%d failed=%d unmatched=%d",
		rr.Summary.Processed, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Unmatched,
	)
	if isTTY(c.stdout) {
		fmt.Fprintln(c.stdout, summary)
		for _, it := range rr.Items {
			if it.Status != domain.StatusFailed && it.Status != domain.StatusUnmatched {
				continue
			}
			key := it.ID
			if key == "" && len(it.Sources) > 0 {
				// unmatched/config 等合成条目：用首个文件路径做定位锚点。
				key = it.Sources[0].File
			}
			if key == "" {
				key = "<unknown>"
			}
			fmt.Fprintf(c.stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	_ = json.NewEncoder(c.stdout).Encode(rr)
	fmt.Fprintln(c.stderr, summary)
}

func reportForConfigError(cwd string, ca config.CLIArgs, err error) domain.ScanReport {
	now := time.Now().UTC()
	code := config.Code(err)
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	rr := domain.ScanReport{
		Path:       cwd,
		DryRun:     !(ca.ApplySet && ca.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:     domain.StatusFailed,
			ErrorCode:  code,
			ErrorMsg:   err.Error(),
			Candidates: []string{},
			Sources:    []domain.SourceResult{},
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(root string, rr domain.ScanReport) error {
	return fsx.WriteJSON(filepath.Join(root, "cache", "report.json"), rr)
}
