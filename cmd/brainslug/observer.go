package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/John-Robertt/brainslug/internal/app/catalog"
	"github.com/John-Robertt/brainslug/internal/config"
	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/provider"
)

var _ catalog.Observer = (*logObserver)(nil)

// logObserver 把扫描事件写成结构化日志（stderr），不碰 stdout。
// slog.Logger 本身并发安全，这里无需额外加锁。
type logObserver struct {
	log *slog.Logger
	reg provider.Registry
}

func newLogObserver(log *slog.Logger, reg provider.Registry) *logObserver {
	return &logObserver{log: log, reg: reg}
}

func (o *logObserver) OnStart(eff config.Effective) {
	mode := "dry-run"
	if eff.Apply {
		mode = "apply"
	}
	o.log.Info("开始扫描",
		"path", eff.Path,
		"mode", mode,
		"provider", strings.Join(o.reg.ChainNames(eff.Provider), " -> "),
		"concurrency", eff.Concurrency,
		"backend", eff.Backend,
		"proxy", formatProxy(eff.ProxyURL),
		"refresh", eff.Refresh,
	)
}

func (o *logObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	args := make([]any, 0, 2*len(fields)+4)
	args = append(args, "phase", name, "took", formatShortDuration(dur))
	for _, k := range sortedKeys(fields) {
		args = append(args, k, fields[k])
	}
	o.log.Info("阶段完成", args...)
}

func (o *logObserver) OnItemDone(idx, total int, id domain.IMDbID, res domain.ItemResult, dur time.Duration) {
	args := []any{
		"progress", fmt.Sprintf("%d/%d", idx, total),
		"id", string(id),
		"status", res.Status,
		"took", formatShortDuration(dur),
	}
	if res.Name != "" {
		args = append(args, "name", res.Name)
	}
	if res.ProviderUsed != "" && res.ProviderUsed != res.ProviderRequested {
		args = append(args, "fallback", res.ProviderRequested+" -> "+res.ProviderUsed)
	}
	if res.Status == domain.StatusFailed {
		args = append(args, "error_code", res.ErrorCode, "error", res.ErrorMsg)
		o.log.Warn("条目失败", args...)
		return
	}
	o.log.Info("条目完成", args...)
}

// formatProxy 只输出 scheme/host 与是否带认证，不泄露账号密码。
func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func formatShortDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
