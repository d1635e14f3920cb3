package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/brainslug/internal/domain"
	providerx "github.com/John-Robertt/brainslug/internal/provider"
)

const defaultBaseURL = "https://www.omdbapi.com"

// Provider 通过 OMDb JSON 接口按 IMDb ID 查询电影。
type Provider struct {
	APIKey  string
	BaseURL string
}

// response 是 OMDb 响应里本项目关心的字段。
type response struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Poster   string `json:"Poster"`
	ImdbID   string `json:"imdbID"`
}

func (Provider) Name() string { return providerx.NameOMDb }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

// Fetch 请求 <base>/?i=<id>&apikey=<key>。
// 返回的 pageURL 不含 apikey（会写进 report）。
func (p Provider) Fetch(ctx context.Context, id domain.IMDbID, c *http.Client) ([]byte, string, error) {
	if c == nil {
		return nil, "", errors.New("http client 不能为空")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, "", errors.New("未配置 OMDb API key")
	}
	if id == "" {
		return nil, "", errors.New("imdb id 不能为空")
	}

	q := url.Values{}
	q.Set("i", string(id))
	pageURL := p.baseURL() + "/?" + q.Encode()
	q.Set("apikey", p.APIKey)

	b, err := providerx.Get(ctx, c, p.baseURL()+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, pageURL, err
	}

	// OMDb 用 200 + Response=False 表达“查无此片/key 无效”，归为 fetch 失败。
	var r response
	if err := json.Unmarshal(b, &r); err == nil && strings.EqualFold(r.Response, "False") {
		return nil, pageURL, &providerx.APIError{URL: pageURL, Message: r.Error}
	}
	return b, pageURL, nil
}

// Parse 把 OMDb 响应解析为 Movie（只填 Name/CoverURL）。
func (Provider) Parse(id domain.IMDbID, body []byte, pageURL string) (domain.Movie, error) {
	if id == "" {
		return domain.Movie{}, errors.New("imdb id 不能为空")
	}
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return domain.Movie{}, fmt.Errorf("解析 OMDb 响应失败：%w", err)
	}
	if got := strings.TrimSpace(r.ImdbID); got != "" && !strings.EqualFold(got, string(id)) {
		return domain.Movie{}, fmt.Errorf("OMDb 返回了其它作品：%s", got)
	}

	name := strings.TrimSpace(r.Title)
	if name == "" {
		return domain.Movie{}, errors.New("OMDb 响应缺少 Title")
	}
	poster := strings.TrimSpace(r.Poster)
	if poster == "" || strings.EqualFold(poster, "N/A") {
		return domain.Movie{}, errors.New("OMDb 响应缺少 Poster")
	}
	return domain.Movie{Name: name, CoverURL: poster}, nil
}
