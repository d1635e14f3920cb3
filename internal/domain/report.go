package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
	StatusUnmatched = "unmatched"
)

const (
	SourceStatusPlanned = "planned"
	SourceStatusStored  = "stored"
	SourceStatusFailed  = "failed"
)

const (
	ErrCodeUnmatchedID       = "unmatched_id"
	ErrCodeFetchFailed       = "fetch_failed"
	ErrCodeParseFailed       = "parse_failed"
	ErrCodeInvalidRecord     = "invalid_record"
	ErrCodeStoreFailed       = "store_failed"
	ErrCodeIOFailed          = "io_failed"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// ScanReport 是 scan 命令的输出：stdout 上的 JSON，apply 时同时写入 <path>/cache/report.json。
type ScanReport struct {
	Path   string `json:"path"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Unmatched int `json:"unmatched"`
}

type ItemResult struct {
	ID                string `json:"id"`
	ProviderRequested string `json:"provider_requested"`
	ProviderUsed      string `json:"provider_used"`
	Website           string `json:"website"`
	Name              string `json:"name"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Candidates []string        `json:"candidates"`
	Sources    []SourceResult  `json:"sources"`
	Attempts   []AttemptResult `json:"attempts"`
}

// AttemptResult 是 provider 链上的一次尝试，用来解释 provider_used 为什么不是 provider_requested。
// Stage 为 "cache" 表示命中本地缓存，没有访问网络。
type AttemptResult struct {
	Provider string `json:"provider"`
	Stage    string `json:"stage"`
	Error    string `json:"error,omitempty"`
}

type SourceResult struct {
	ID     string `json:"id"`
	File   string `json:"file"`
	Status string `json:"status"`
}

// Finalize 在输出前调用一次：时间转 UTC，items 按 id 排序（空 id 的合成条目
// 保持相对顺序排在最后），summary 按 items 重新计数。
func (r *ScanReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a, b := r.Items[i].ID, r.Items[j].ID
		if a == "" || b == "" {
			return b == "" && a != ""
		}
		return a < b
	})

	r.Summary = ReportSummary{}
	for _, it := range r.Items {
		r.Summary.count(it.Status)
	}
}

func (s *ReportSummary) count(status string) {
	switch status {
	case StatusProcessed:
		s.Processed++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	case StatusUnmatched:
		s.Unmatched++
	}
}

// OK 为 false 时 CLI 以退出码 1 结束。
func (r ScanReport) OK() bool {
	return r.Summary.Failed == 0 && r.Summary.Unmatched == 0
}

// MarshalJSON 保证所有数组字段都输出为 []，下游脚本不必区分 null。
func (r ScanReport) MarshalJSON() ([]byte, error) {
	type plain ScanReport
	out := plain(r)
	out.Items = make([]ItemResult, len(r.Items))
	for i, it := range r.Items {
		if it.Candidates == nil {
			it.Candidates = []string{}
		}
		if it.Sources == nil {
			it.Sources = []SourceResult{}
		}
		if it.Attempts == nil {
			it.Attempts = []AttemptResult{}
		}
		out.Items[i] = it
	}
	return json.Marshal(out)
}
