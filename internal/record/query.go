package record

import (
	"sort"

	"github.com/John-Robertt/brainslug/internal/domain"
)

// Query 是本地查询：对已在内存中的记录求值，不经过网络。
//
// Conditions 的 key 是记录的对外属性名（json 名），value 必须精确相等。
// 空 Conditions 表示“该类型的全部记录”。
type Query struct {
	RecordType string
	Conditions map[string]string
}

// AllMovies 选出存储中的全部 Movie。
var AllMovies = Query{RecordType: domain.RecordTypeMovie}

// AllMovieSources 选出存储中的全部 MovieSource。
var AllMovieSources = Query{RecordType: domain.RecordTypeMovieSource}

// columns 是“对外属性名 -> 存储列名”的白名单（也是查询条件的白名单）。
var columns = map[string]map[string]string{
	domain.RecordTypeMovie: {
		"id":       "movie_id",
		"name":     "movie_name",
		"imdbId":   "movie_imdbid",
		"coverUrl": "movie_coverurl",
	},
	domain.RecordTypeMovieSource: {
		"id":    "msrc_id",
		"url":   "msrc_url",
		"movie": "movie_id",
	},
}

// Local 构造本地查询。不属于 recordType 的条件 key 会被直接丢弃。
func Local(recordType string, conds map[string]string) Query {
	q := Query{RecordType: recordType}
	cols := columns[recordType]
	for k, val := range conds {
		if _, ok := cols[k]; !ok {
			continue
		}
		if q.Conditions == nil {
			q.Conditions = make(map[string]string, len(conds))
		}
		q.Conditions[k] = val
	}
	return q
}

// Column 把对外属性名映射到存储列名。
func Column(recordType, attr string) (string, bool) {
	c, ok := columns[recordType][attr]
	return c, ok
}

// Keys 按字典序返回条件 key（让生成的 SQL/日志稳定）。
func (q Query) Keys() []string {
	keys := make([]string, 0, len(q.Conditions))
	for k := range q.Conditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (q Query) MatchMovie(m domain.Movie) bool {
	if q.RecordType != domain.RecordTypeMovie {
		return false
	}
	for k, want := range q.Conditions {
		var got string
		switch k {
		case "id":
			got = m.ID
		case "name":
			got = m.Name
		case "imdbId":
			got = m.IMDbID
		case "coverUrl":
			got = m.CoverURL
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}

func (q Query) MatchSource(s domain.MovieSource) bool {
	if q.RecordType != domain.RecordTypeMovieSource {
		return false
	}
	for k, want := range q.Conditions {
		var got string
		switch k {
		case "id":
			got = s.ID
		case "url":
			got = s.URL
		case "movie":
			got = s.MovieID
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}
