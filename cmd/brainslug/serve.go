package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/brainslug/internal/config"
	"github.com/John-Robertt/brainslug/internal/server"
	"github.com/John-Robertt/brainslug/internal/store"
)

const shutdownTimeout = 5 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var (
		listen  string
		seed    bool
		release bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务（/movies、/moviesources 与 /api）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(config.CLIArgs{Listen: listen, Seed: seed})
			if err != nil {
				return c.fail(1, err)
			}
			if release {
				gin.SetMode(gin.ReleaseMode)
			}
			return c.serve(cmd.Context(), eff)
		},
	}
	f := cmd.Flags()
	f.StringVar(&listen, "listen", "", "监听地址（默认 :5555）")
	f.BoolVar(&seed, "seed", false, "启动前写入演示数据")
	f.BoolVar(&release, "release", false, "gin release 模式（关闭请求日志）")
	return cmd
}

func (c *cli) serve(ctx context.Context, eff config.Effective) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, eff)
	if err != nil {
		return c.fail(1, fmt.Errorf("打开存储失败：%w", err))
	}
	defer st.Close()

	if eff.Seed {
		if err := store.Seed(ctx, st); err != nil {
			return c.fail(1, fmt.Errorf("写入演示数据失败：%w", err))
		}
		c.log.Info("已写入演示数据", "movies", len(store.SeedMovies), "sources", len(store.SeedSources))
	}

	srv := &http.Server{
		Addr:              eff.Listen,
		Handler:           server.New(st, c.log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.log.Info("HTTP 服务启动", "listen", eff.Listen, "backend", eff.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return c.fail(1, err)
	case <-ctx.Done():
	}

	c.log.Info("正在关闭 HTTP 服务")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return c.fail(1, fmt.Errorf("关闭 HTTP 服务失败：%w", err))
	}
	return nil
}
