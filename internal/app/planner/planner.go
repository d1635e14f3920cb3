package planner

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/record"
)

// sourceNamespace 是 MovieSource ID 的 UUIDv5 命名空间（固定值，改了会让历史 ID 全部变化）。
var sourceNamespace = uuid.MustParse("6f1c3c2e-5b7a-4d0e-9a52-0b7f3f6d9c11")

// PlanItem 基于 WorkItem 与存储里已有的记录生成确定性的执行计划（不做任何写入）。
//
// - existing 为 nil 或不满足必填契约：需要刮削
// - refresh=true：无论如何都重新刮削
// - sources 每个文件一条；ID 由“movie id + 绝对路径”派生，重复扫描得到相同 ID
func PlanItem(providerRequested string, files []domain.VideoFile, item domain.WorkItem, existing *domain.Movie, refresh bool) (domain.ItemPlan, error) {
	movieID := string(item.ID)
	if existing != nil {
		movieID = existing.ID
	}

	sources := make([]domain.MovieSource, 0, len(item.FileIdx))
	for _, idx := range item.FileIdx {
		if idx < 0 || idx >= len(files) {
			return domain.ItemPlan{}, fmt.Errorf("非法 file index：%d", idx)
		}
		abs := files[idx].AbsPath
		sources = append(sources, domain.MovieSource{
			ID:      SourceID(movieID, abs),
			MovieID: movieID,
			URL:     FileURL(abs),
		})
	}

	needScrape := refresh || existing == nil || record.Validate(*existing) != nil

	return domain.ItemPlan{
		ID:                item.ID,
		ProviderRequested: providerRequested,
		Existing:          existing,
		NeedScrape:        needScrape,
		Sources:           sources,
	}, nil
}

// SourceID 派生 MovieSource 的稳定 ID。
func SourceID(movieID, absPath string) string {
	return uuid.NewSHA1(sourceNamespace, []byte(movieID+"\x00"+filepath.Clean(absPath))).String()
}

// FileURL 把本地绝对路径转换为 file:// URL。
func FileURL(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Clean(absPath))}
	return u.String()
}
