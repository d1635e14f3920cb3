package imdbid

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/John-Robertt/brainslug/internal/domain"
)

// 文件名里的 IMDb ID 片段。边界（前面不能紧贴字母数字、后面不能紧贴数字）在 addCandidates 里检查。
var candidateRE = regexp.MustCompile(`(?i)tt[0-9]{7,8}`)

type UnmatchedError struct {
	// Kind: domain.UnmatchedNoMatch 或 domain.UnmatchedAmbiguous
	Kind string
	// Candidates 仅在 ambiguous 时返回（已排序）。
	Candidates []domain.IMDbID
}

func (e *UnmatchedError) Error() string {
	switch e.Kind {
	case domain.UnmatchedNoMatch:
		return "无法从文件名或父目录解析出 IMDb ID"
	case domain.UnmatchedAmbiguous:
		parts := make([]string, 0, len(e.Candidates))
		for _, c := range e.Candidates {
			parts = append(parts, string(c))
		}
		return "解析到多个不同 IMDb ID（ambiguous）：" + strings.Join(parts, ", ")
	default:
		return "unmatched"
	}
}

// Extract 从 VideoFile 的文件名与父目录名中提取唯一 IMDb ID。
// 若提取失败，返回 *UnmatchedError（no_match / ambiguous）。
func Extract(v domain.VideoFile) (domain.IMDbID, error) {
	m := map[domain.IMDbID]struct{}{}

	addCandidates(m, v.Base)
	addCandidates(m, filepath.Base(filepath.Dir(v.AbsPath)))

	if len(m) == 0 {
		return "", &UnmatchedError{Kind: domain.UnmatchedNoMatch}
	}
	if len(m) > 1 {
		cands := make([]domain.IMDbID, 0, len(m))
		for c := range m {
			cands = append(cands, c)
		}
		sort.Slice(cands, func(i, j int) bool { return cands[i] < cands[j] })
		return "", &UnmatchedError{Kind: domain.UnmatchedAmbiguous, Candidates: cands}
	}
	for c := range m {
		return c, nil
	}
	return "", &UnmatchedError{Kind: domain.UnmatchedNoMatch}
}

func addCandidates(dst map[domain.IMDbID]struct{}, s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	for _, loc := range candidateRE.FindAllStringIndex(s, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isAlnum(s[start-1]) {
			continue
		}
		if end < len(s) && isDigit(s[end]) {
			continue
		}
		if id, ok := domain.ParseIMDbID(s[start:end]); ok {
			dst[id] = struct{}{}
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isAlnum(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
