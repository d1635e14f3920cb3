package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/infra/fsx"
)

// Store 是 <root>/cache/providers/<provider>/ 下的抓取缓存。
// 每个 IMDb ID 最多两个文件：<id>.page 保存原始响应，<id>.json 保存解析出的 Movie。
// dry-run 用 ReadOnly 打开，只读不写。
type Store struct {
	Root     string
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache 为只读")

const (
	extPage  = ".page"
	extMovie = ".json"
)

func New(root string, readOnly bool) Store {
	return Store{Root: filepath.Clean(strings.TrimSpace(root)), ReadOnly: readOnly}
}

// Dir 返回某个 provider 的缓存目录。
func (s Store) Dir(provider string) (string, error) {
	p, err := cleanProvider(provider)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, "cache", "providers", p), nil
}

// Page 读取原始响应；未缓存时 ok=false 且 err=nil。
func (s Store) Page(provider string, id domain.IMDbID) (body []byte, ok bool, err error) {
	path, err := s.file(provider, id, extPage)
	if err != nil {
		return nil, false, err
	}
	body, err = os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	return body, err == nil, err
}

func (s Store) SavePage(provider string, id domain.IMDbID, body []byte) error {
	path, err := s.writable(provider, id, extPage)
	if err != nil {
		return err
	}
	return fsx.WriteFile(path, body)
}

// Movie 读取解析结果。文件损坏返回错误，调用方通常当作未命中重新抓取。
func (s Store) Movie(provider string, id domain.IMDbID) (domain.Movie, bool, error) {
	path, err := s.file(provider, id, extMovie)
	if err != nil {
		return domain.Movie{}, false, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Movie{}, false, nil
	}
	if err != nil {
		return domain.Movie{}, false, err
	}
	var m domain.Movie
	if err := json.Unmarshal(b, &m); err != nil {
		return domain.Movie{}, false, fmt.Errorf("缓存 %s 已损坏：%w", path, err)
	}
	return m, true, nil
}

func (s Store) SaveMovie(provider string, id domain.IMDbID, m domain.Movie) error {
	path, err := s.writable(provider, id, extMovie)
	if err != nil {
		return err
	}
	return fsx.WriteJSON(path, m)
}

func (s Store) writable(provider string, id domain.IMDbID, ext string) (string, error) {
	if s.ReadOnly {
		return "", ErrReadOnly
	}
	return s.file(provider, id, ext)
}

func (s Store) file(provider string, id domain.IMDbID, ext string) (string, error) {
	dir, err := s.Dir(provider)
	if err != nil {
		return "", err
	}
	if _, ok := domain.ParseIMDbID(string(id)); !ok {
		return "", fmt.Errorf("非法 imdb id：%q", id)
	}
	return filepath.Join(dir, string(id)+ext), nil
}

// provider 名直接作为目录名，只允许小写字母、数字和下划线。
var providerNameRE = regexp.MustCompile(`^[a-z0-9_]+$`)

func cleanProvider(p string) (string, error) {
	p = strings.ToLower(strings.TrimSpace(p))
	if !providerNameRE.MatchString(p) {
		return "", fmt.Errorf("非法 provider 名：%q", p)
	}
	return p, nil
}
