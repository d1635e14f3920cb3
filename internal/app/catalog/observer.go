package catalog

import (
	"time"

	"github.com/John-Robertt/brainslug/internal/config"
	"github.com/John-Robertt/brainslug/internal/domain"
)

// Observer 把“阶段/条目结果”从扫描流程中解耦出来。
//
// 约束：
// - catalog 包只负责发事件，不做任何输出（stdout 留给 JSON 报告）。
// - 实现必须并发安全：OnItemDone 只在汇总 goroutine 调用，但 OnStart/OnPhaseDone 可能与其他 goroutine 并发。
type Observer interface {
	// OnStart 在 Execute 开始时调用。
	OnStart(eff config.Effective)
	// OnPhaseDone 在阶段结束/就绪时调用（阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在某个 IMDb ID 处理完成时调用。
	OnItemDone(idx, total int, id domain.IMDbID, res domain.ItemResult, dur time.Duration)
}

// nopObserver 让 Execute 内部不用到处判空。
type nopObserver struct{}

func (nopObserver) OnStart(config.Effective) {}

func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}

func (nopObserver) OnItemDone(int, int, domain.IMDbID, domain.ItemResult, time.Duration) {}
