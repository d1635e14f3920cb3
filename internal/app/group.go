package app

import (
	"errors"
	"sort"

	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/imdbid"
)

// GroupByIMDbID 把扫描结果按文件名里的 IMDb ID 归并：同一部电影的多个文件
// （分段、不同版本）合成一个 WorkItem，成为该电影的多个 MovieSource。
//
// 输出确定：items 按 ID 排序，item 内文件按 RelPath 排序，unmatched 保持扫描顺序。
func GroupByIMDbID(files []domain.VideoFile) ([]domain.WorkItem, []domain.Unmatched, error) {
	byID := make(map[domain.IMDbID][]int)
	var unmatched []domain.Unmatched

	for i, f := range files {
		id, err := imdbid.Extract(f)
		var ue *imdbid.UnmatchedError
		switch {
		case err == nil:
			byID[id] = append(byID[id], i)
		case errors.As(err, &ue):
			unmatched = append(unmatched, domain.Unmatched{
				File:       f,
				Kind:       ue.Kind,
				Candidates: ue.Candidates,
			})
		default:
			return nil, nil, err
		}
	}

	items := make([]domain.WorkItem, 0, len(byID))
	for id, idx := range byID {
		sort.Slice(idx, func(a, b int) bool { return files[idx[a]].RelPath < files[idx[b]].RelPath })
		items = append(items, domain.WorkItem{ID: id, FileIdx: idx})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, unmatched, nil
}
