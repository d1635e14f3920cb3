package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/brainslug/internal/config"
	"github.com/John-Robertt/brainslug/internal/provider"
	"github.com/John-Robertt/brainslug/internal/provider/imdb"
	"github.com/John-Robertt/brainslug/internal/provider/omdb"
	"github.com/John-Robertt/brainslug/internal/store"
)

// cli 持有各子命令共享的输出与退出码。
//
// stdout 只用于机器可读的输出（scan 的 report JSON、list 的记录 JSON）；
// 日志与摘要一律走 stderr。
type cli struct {
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
	code   int

	// wd 为空时使用进程 cwd（测试里指向临时目录）。
	wd string

	// 共享 flag
	backend string
	db      string
}

// execute 运行 CLI 并返回进程退出码（0 成功；1 运行失败；2 参数错误）。
func execute(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr, log: newLogger(stderr)}
	return c.run(args)
}

func (c *cli) run(args []string) int {
	root := c.rootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(c.stderr, "错误：%v\n", err)
		if c.code == 0 {
			c.code = 2
		}
	}
	return c.code
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "brainslug",
		Short:         "本地电影库：扫描、刮削并通过 HTTP 提供 Movie 记录",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.backend, "backend", "", "存储后端：memory|sqlite|mongo（默认读配置；最终默认 sqlite）")
	pf.StringVar(&c.db, "db", "", "SQLite 数据库路径（默认 <path>/cache/cache.db）")

	root.AddCommand(
		c.serveCmd(),
		c.scanCmd(),
		c.listCmd(),
		c.seedCmd(),
	)
	return root
}

// loadConfig 以 cwd 为基准读取配置，并合并共享 flag。
func (c *cli) loadConfig(args config.CLIArgs) (config.Effective, error) {
	cwd, err := c.getwd()
	if err != nil {
		return config.Effective{}, fmt.Errorf("读取当前目录失败：%w", err)
	}
	args.Backend = c.backend
	args.DB = c.db
	return config.LoadEffective(cwd, args)
}

func (c *cli) getwd() (string, error) {
	if c.wd != "" {
		return c.wd, nil
	}
	return os.Getwd()
}

func openStore(ctx context.Context, eff config.Effective) (store.Store, error) {
	return store.Open(ctx, store.Options{
		Backend:    eff.Backend,
		SQLitePath: eff.SQLitePath,
		MongoURI:   eff.MongoURI,
		MongoDB:    eff.MongoDB,
	})
}

func newRegistry(eff config.Effective) (provider.Registry, error) {
	return provider.NewRegistry(
		imdb.Provider{BaseURL: eff.IMDbBaseURL},
		omdb.Provider{APIKey: eff.OMDbAPIKey, BaseURL: eff.OMDbBaseURL},
	)
}

// fail 记录退出码并把错误交给 cobra 打印。
func (c *cli) fail(code int, err error) error {
	c.code = code
	return err
}
