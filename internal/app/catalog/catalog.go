package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/brainslug/internal/app"
	"github.com/John-Robertt/brainslug/internal/app/planner"
	"github.com/John-Robertt/brainslug/internal/config"
	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/infra/cache"
	"github.com/John-Robertt/brainslug/internal/infra/httpx"
	"github.com/John-Robertt/brainslug/internal/provider"
	"github.com/John-Robertt/brainslug/internal/record"
	"github.com/John-Robertt/brainslug/internal/scan"
	"github.com/John-Robertt/brainslug/internal/store"
)

// Execute 扫描一次媒体库（dry-run/apply），并返回对外稳定的 ScanReport。
// 错误尽量降级为 item 级失败（单条失败不影响其他）。
//
// dry-run 只做 fetch+parse+validate，不写存储、不写 provider 缓存。
func Execute(ctx context.Context, eff config.Effective, st store.Store, reg provider.Registry, obs Observer) domain.ScanReport {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	rr := domain.ScanReport{
		Path:      eff.Path,
		DryRun:    !eff.Apply,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, 128),
	}
	fail := func(code, msg string) domain.ScanReport {
		rr.Items = append(rr.Items, syntheticFailed(code, msg))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	client, err := httpx.NewClient(eff.ProxyURL)
	if err != nil {
		return fail(domain.ErrCodeConfigInvalid, fmt.Sprintf("proxy.url 无效：%v", err))
	}
	pc := cache.New(eff.Path, !eff.Apply)

	scanStarted := time.Now()
	files, err := scan.ScanVideos(eff.Path, scan.Options{ExcludeDirs: eff.ExcludeDirs, Extensions: eff.Extensions})
	if err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err))
	}
	scanDur := time.Since(scanStarted)

	groupStarted := time.Now()
	items, unmatched, err := app.GroupByIMDbID(files)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Sprintf("分组失败：%v", err))
	}
	groupDur := time.Since(groupStarted)

	obs.OnPhaseDone("scan", map[string]any{
		"files":     len(files),
		"unmatched": len(unmatched),
	}, scanDur)
	obs.OnPhaseDone("group", map[string]any{
		"ids": len(items),
	}, groupDur)

	// unmatched：每个文件一条 item，便于用户逐个改名。
	for _, u := range unmatched {
		rr.Items = append(rr.Items, unmatchedItem(u))
	}

	planStarted := time.Now()
	plans := make([]domain.ItemPlan, 0, len(items))
	for _, it := range items {
		existing, e := findExisting(ctx, st, it.ID)
		if e != nil {
			rr.Items = append(rr.Items, failedPlanItem(eff, it, files, domain.ErrCodeStoreFailed, fmt.Sprintf("读取已有记录失败：%v", e)))
			continue
		}
		p, e := planner.PlanItem(eff.Provider, files, it, existing, eff.Refresh)
		if e != nil {
			rr.Items = append(rr.Items, failedPlanItem(eff, it, files, domain.ErrCodeIOFailed, fmt.Sprintf("规划失败：%v", e)))
			continue
		}
		plans = append(plans, p)
	}
	planDur := time.Since(planStarted)

	var needScrape, sources int
	for i := range plans {
		if plans[i].NeedScrape {
			needScrape++
		}
		sources += len(plans[i].Sources)
	}
	obs.OnPhaseDone("plan", map[string]any{
		"items":       len(plans),
		"need_scrape": needScrape,
		"sources":     sources,
	}, planDur)

	// 执行阶段：按 IMDb ID 并发（worker pool），item 内串行。
	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}
	obs.OnPhaseDone("exec", map[string]any{
		"workers":     workers,
		"total_items": len(plans),
	}, 0)

	type execResult struct {
		id  domain.IMDbID
		res domain.ItemResult
		dur time.Duration
	}

	relOf := make(map[string]string, len(files))
	for i := range files {
		relOf[files[i].AbsPath] = files[i].RelPath
	}
	x := executor{eff: eff, st: st, reg: reg, client: client, cache: pc, relOf: relOf}

	jobs := make(chan domain.ItemPlan)
	results := make(chan execResult, len(plans))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				started := time.Now()
				r := x.one(ctx, p)
				results <- execResult{id: p.ID, res: r, dur: time.Since(started)}
			}
		}()
	}

	go func() {
		for _, p := range plans {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for it := range results {
		done++
		rr.Items = append(rr.Items, it.res)
		obs.OnItemDone(done, len(plans), it.id, it.res, it.dur)
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// findExisting 按 imdbId 查已有记录；ID 可能与 imdbId 不同（例如手工录入的记录）。
func findExisting(ctx context.Context, st store.Store, id domain.IMDbID) (*domain.Movie, error) {
	got, err := st.FindMovies(ctx, record.Local(domain.RecordTypeMovie, map[string]string{"imdbId": string(id)}))
	if err != nil {
		return nil, err
	}
	if len(got) == 0 {
		return nil, nil
	}
	m := got[0]
	return &m, nil
}

type executor struct {
	eff    config.Effective
	st     store.Store
	reg    provider.Registry
	client *http.Client
	cache  cache.Store
	relOf  map[string]string
}

func (x executor) one(ctx context.Context, p domain.ItemPlan) domain.ItemResult {
	item := domain.ItemResult{
		ID:                string(p.ID),
		ProviderRequested: p.ProviderRequested,
		Status:            domain.StatusProcessed, // 失败时覆盖
		Candidates:        []string{},
		Sources:           x.sourceResults(p),
	}

	var m domain.Movie
	if p.NeedScrape {
		got, used, website, attempts, err := x.scrape(ctx, p.ProviderRequested, p.ID)
		item.Attempts = attempts
		if err != nil {
			fillProviderError(&item, err)
			failAllSources(&item)
			return item
		}
		item.ProviderUsed = used
		item.Website = website

		// 刷新已有记录时沿用原 ID，保证 upsert 覆盖同一条记录。
		switch {
		case p.Existing != nil:
			got.ID = p.Existing.ID
		case strings.TrimSpace(got.ID) == "":
			got.ID = string(p.ID)
		}
		m = got
	} else {
		m = *p.Existing
	}
	item.Name = m.Name

	if err := record.Validate(m); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeInvalidRecord
		item.ErrorMsg = err.Error()
		failAllSources(&item)
		return item
	}

	have, err := x.existingSourceIDs(ctx, m.ID)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeStoreFailed
		item.ErrorMsg = fmt.Sprintf("读取 sources 失败：%v", err)
		failAllSources(&item)
		return item
	}
	pending := 0
	for i, s := range p.Sources {
		if _, ok := have[s.ID]; ok {
			item.Sources[i].Status = domain.SourceStatusStored
			continue
		}
		pending++
	}

	// 记录已存在且没有新文件：什么都不用做。dry-run 与 apply 判定一致。
	if !p.NeedScrape && pending == 0 {
		item.Status = domain.StatusSkipped
		return item
	}
	if !x.eff.Apply {
		return item
	}

	if p.NeedScrape {
		if err := x.st.PutMovie(ctx, m); err != nil {
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeStoreFailed
			item.ErrorMsg = fmt.Sprintf("写入 movie 失败：%v", err)
			failAllSources(&item)
			return item
		}
	}

	for i, s := range p.Sources {
		if _, ok := have[s.ID]; ok {
			continue
		}
		if err := x.st.PutSource(ctx, s); err != nil {
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeStoreFailed
			item.ErrorMsg = fmt.Sprintf("写入 source 失败：%v", err)
			item.Sources[i].Status = domain.SourceStatusFailed
			return item
		}
		item.Sources[i].Status = domain.SourceStatusStored
	}
	return item
}

func (x executor) existingSourceIDs(ctx context.Context, movieID string) (map[string]struct{}, error) {
	got, err := x.st.FindSources(ctx, record.Local(domain.RecordTypeMovieSource, map[string]string{"movie": movieID}))
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(got))
	for _, s := range got {
		out[s.ID] = struct{}{}
	}
	return out, nil
}

func (x executor) sourceResults(p domain.ItemPlan) []domain.SourceResult {
	out := make([]domain.SourceResult, 0, len(p.Sources))
	for _, s := range p.Sources {
		out = append(out, domain.SourceResult{
			ID:     s.ID,
			File:   x.relFromURL(s.URL),
			Status: domain.SourceStatusPlanned,
		})
	}
	return out
}

// relFromURL 尽量输出相对库根目录的路径；失败则输出原始 URL（至少可追溯）。
func (x executor) relFromURL(u string) string {
	for abs, rel := range x.relOf {
		if planner.FileURL(abs) == u {
			return rel
		}
	}
	return u
}

// stageCache 标记命中本地缓存的尝试。
const stageCache = "cache"

// scrape 先读 provider 缓存（--refresh 时跳过），命中则不再打网络；apply 时把抓取结果写回缓存。
// 返回的 attempts 原样进入 report，失败时同样返回。
func (x executor) scrape(ctx context.Context, providerRequested string, id domain.IMDbID) (domain.Movie, string, string, []domain.AttemptResult, error) {
	if !x.eff.Refresh {
		if m, ok := x.cachedMovie(providerRequested, id); ok {
			name := strings.ToLower(strings.TrimSpace(providerRequested))
			return m, name, "", []domain.AttemptResult{{Provider: name, Stage: stageCache}}, nil
		}
	}

	res, err := provider.Scrape(ctx, x.reg, providerRequested, id, x.client)
	attempts := make([]domain.AttemptResult, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		ar := domain.AttemptResult{Provider: a.Provider, Stage: a.Stage}
		if a.Err != nil {
			ar.Error = a.Err.Error()
		}
		attempts = append(attempts, ar)
	}
	if err != nil {
		return domain.Movie{}, "", "", attempts, err
	}

	if !x.cache.ReadOnly {
		_ = x.cache.SavePage(res.Provider, id, res.Body)
		_ = x.cache.SaveMovie(res.Provider, id, res.Movie)
	}
	return res.Movie, res.Provider, res.PageURL, attempts, nil
}

// cachedMovie 先读解析结果缓存；没有或损坏时，用缓存的原始页面重新 Parse，不访问网络。
func (x executor) cachedMovie(providerName string, id domain.IMDbID) (domain.Movie, bool) {
	m, ok, err := x.cache.Movie(providerName, id)
	if err == nil && ok && record.Validate(withID(m, id)) == nil {
		return m, true
	}

	p, ok := x.reg.Get(providerName)
	if !ok {
		return domain.Movie{}, false
	}
	body, ok, err := x.cache.Page(providerName, id)
	if err != nil || !ok {
		return domain.Movie{}, false
	}
	// 缓存里没有页面 URL，相对地址的封面无法还原，只接受绝对地址。
	m, err = p.Parse(id, body, "")
	if err != nil || !strings.HasPrefix(m.CoverURL, "http") {
		return domain.Movie{}, false
	}
	m.IMDbID = string(id)
	if record.Validate(withID(m, id)) != nil {
		return domain.Movie{}, false
	}
	if !x.cache.ReadOnly {
		_ = x.cache.SaveMovie(providerName, id, m)
	}
	return m, true
}

func withID(m domain.Movie, id domain.IMDbID) domain.Movie {
	if strings.TrimSpace(m.ID) == "" {
		m.ID = string(id)
	}
	return m
}

func unmatchedItem(u domain.Unmatched) domain.ItemResult {
	item := domain.ItemResult{
		Status:     domain.StatusUnmatched,
		ErrorCode:  domain.ErrCodeUnmatchedID,
		Candidates: []string{},
		Sources: []domain.SourceResult{{
			File:   u.File.RelPath,
			Status: domain.SourceStatusFailed,
		}},
	}

	switch u.Kind {
	case domain.UnmatchedAmbiguous:
		item.Candidates = make([]string, 0, len(u.Candidates))
		for _, c := range u.Candidates {
			item.Candidates = append(item.Candidates, string(c))
		}
		item.ErrorMsg = fmt.Sprintf("解析到多个不同的 IMDb ID（ambiguous）：%v；请重命名文件/目录使其只包含一个", item.Candidates)
	default:
		item.ErrorMsg = "无法从文件名或父目录解析出 IMDb ID；请确保文件名包含类似 tt1099212 的片段"
	}
	return item
}

func failedPlanItem(eff config.Effective, it domain.WorkItem, files []domain.VideoFile, code, msg string) domain.ItemResult {
	out := domain.ItemResult{
		ID:                string(it.ID),
		ProviderRequested: eff.Provider,
		Status:            domain.StatusFailed,
		ErrorCode:         code,
		ErrorMsg:          msg,
		Candidates:        []string{},
		Sources:           make([]domain.SourceResult, 0, len(it.FileIdx)),
	}
	for _, idx := range it.FileIdx {
		if idx < 0 || idx >= len(files) {
			continue
		}
		rel := files[idx].RelPath
		if rel == "" {
			if r, err := filepath.Rel(eff.Path, files[idx].AbsPath); err == nil {
				rel = r
			}
		}
		out.Sources = append(out.Sources, domain.SourceResult{File: rel, Status: domain.SourceStatusFailed})
	}
	return out
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Status:     domain.StatusFailed,
		ErrorCode:  code,
		ErrorMsg:   msg,
		Candidates: []string{},
		Sources:    []domain.SourceResult{},
	}
}

func failAllSources(item *domain.ItemResult) {
	for i := range item.Sources {
		item.Sources[i].Status = domain.SourceStatusFailed
	}
}

func fillProviderError(item *domain.ItemResult, err error) {
	item.Status = domain.StatusFailed

	var pe *provider.Error
	if errors.As(err, &pe) {
		switch pe.Stage {
		case provider.StageParse:
			item.ErrorCode = domain.ErrCodeParseFailed
			item.ErrorMsg = humanizeParseError(pe.Provider, pe.Err)
		default:
			item.ErrorCode = domain.ErrCodeFetchFailed
			item.ErrorMsg = humanizeFetchError(pe.Provider, pe.Err)
		}
		return
	}

	item.ErrorCode = domain.ErrCodeFetchFailed
	item.ErrorMsg = err.Error()
}

func humanizeFetchError(providerName string, err error) string {
	if err == nil {
		return providerName + " 抓取失败"
	}

	var ae *provider.APIError
	if errors.As(err, &ae) {
		return fmt.Sprintf("%s 接口返回失败：%s", providerName, strings.TrimSpace(ae.Message))
	}

	var hs *provider.HTTPStatusError
	if errors.As(err, &hs) {
		switch hs.StatusCode {
		case 401:
			return fmt.Sprintf("%s 返回 HTTP 401。请检查 OMDB_API_KEY / omdb.api_key。", providerName)
		case 403, 429:
			return fmt.Sprintf("%s 返回 HTTP %d（可能触发反爬/限流）。建议降低并发或配置 proxy.url。", providerName, hs.StatusCode)
		case 404:
			return fmt.Sprintf("%s 返回 HTTP 404（该 IMDb ID 可能不存在）。", providerName)
		default:
			return fmt.Sprintf("%s 返回 HTTP %d。", providerName, hs.StatusCode)
		}
	}

	low := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(low, "timeout") {
		return fmt.Sprintf("%s 抓取超时。建议检查网络/代理，或降低并发后重试。", providerName)
	}
	if strings.Contains(low, "tls") || strings.Contains(low, "handshake") {
		return fmt.Sprintf("%s 连接失败（TLS）。建议配置 proxy.url 或稍后重试。", providerName)
	}
	return fmt.Sprintf("%s 抓取失败：%v", providerName, err)
}

func humanizeParseError(providerName string, err error) string {
	if err == nil {
		return providerName + " 解析失败"
	}
	return fmt.Sprintf("%s 解析失败（页面结构可能变化或返回了非详情页内容）：%v", providerName, err)
}
