package imdb

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/brainslug/internal/domain"
	providerx "github.com/John-Robertt/brainslug/internal/provider"
)

// Provider 抓取 IMDb 标题页并解析名称与封面。
//
// 约束：
// - 详情页 URL 可直接由 IMDb ID 拼出（不需要搜索）
// - Parse 只依赖 html + pageURL
type Provider struct {
	// BaseURL 为空时使用 https://www.imdb.com（测试里指向 httptest）。
	BaseURL string
}

func (Provider) Name() string { return providerx.NameIMDb }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return "https://www.imdb.com"
	}
	return strings.TrimRight(u, "/")
}

// Fetch 拉取 https://www.imdb.com/title/<id>/。
func (p Provider) Fetch(ctx context.Context, id domain.IMDbID, c *http.Client) ([]byte, string, error) {
	if c == nil {
		return nil, "", errors.New("http client 不能为空")
	}
	if id == "" {
		return nil, "", errors.New("imdb id 不能为空")
	}
	pageURL := p.baseURL() + "/title/" + url.PathEscape(string(id)) + "/"
	// IMDb 对非英文 Accept-Language 会返回本地化标题，这里固定英文以保证结果稳定。
	h := http.Header{"Accept-Language": []string{"en-US,en;q=0.9"}}
	b, err := providerx.Get(ctx, c, pageURL, h)
	return b, pageURL, err
}

// Parse 把 IMDb 标题页解析为 Movie（只填 Name/CoverURL；ID/IMDbID 由上层决定）。
func (Provider) Parse(id domain.IMDbID, html []byte, pageURL string) (domain.Movie, error) {
	if id == "" {
		return domain.Movie{}, errors.New("imdb id 不能为空")
	}
	if len(html) == 0 {
		return domain.Movie{}, errors.New("html 为空")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return domain.Movie{}, err
	}

	// 优先页面主标题；og:title 带年份和站点后缀，作为回退。
	name := normSpace(doc.Find(`h1[data-testid="hero__pageTitle"]`).First().Text())
	if name == "" {
		og, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
		name = cleanOGTitle(og)
	}
	if name == "" {
		name = cleanOGTitle(doc.Find("title").First().Text())
	}
	if name == "" {
		return domain.Movie{}, errors.New("页面中未找到标题")
	}

	cover, _ := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	cover = strings.TrimSpace(cover)
	if cover == "" {
		if src, ok := doc.Find(`div[data-testid="hero-media__poster"] img`).First().Attr("src"); ok {
			cover = strings.TrimSpace(src)
		}
	}
	if cover == "" {
		return domain.Movie{}, errors.New("页面中未找到封面")
	}

	return domain.Movie{
		Name:     name,
		CoverURL: resolveURL(pageURL, cover),
	}, nil
}

var (
	titleSuffixRE = regexp.MustCompile(`\s*-\s*IMDb\s*$`)
	titleYearRE   = regexp.MustCompile(`\s*\((?:[^()]*\s)?\d{4}(?:[–-]\d{0,4})?\)\s*$`)
	titleRatingRE = regexp.MustCompile(`\s*⭐.*$`)
)

// cleanOGTitle 去掉 "Twilight (2008) ⭐ 5.3 | ..."、"Twilight (2008) - IMDb" 里的修饰部分。
func cleanOGTitle(s string) string {
	s = normSpace(s)
	if i := strings.Index(s, " | "); i >= 0 {
		s = s[:i]
	}
	s = titleSuffixRE.ReplaceAllString(s, "")
	s = titleRatingRE.ReplaceAllString(s, "")
	s = titleYearRE.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(ru).String()
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
