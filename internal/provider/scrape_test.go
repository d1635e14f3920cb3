package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/John-Robertt/brainslug/internal/domain"
)

type stubProvider struct {
	name string

	fetchErr error
	parseErr error

	body  []byte
	url   string
	movie domain.Movie

	fetchCalls int
	parseCalls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(ctx context.Context, id domain.IMDbID, c *http.Client) ([]byte, string, error) {
	p.fetchCalls++
	if p.fetchErr != nil {
		return nil, "", p.fetchErr
	}
	return p.body, p.url, nil
}

func (p *stubProvider) Parse(id domain.IMDbID, body []byte, pageURL string) (domain.Movie, error) {
	p.parseCalls++
	if p.parseErr != nil {
		return domain.Movie{}, p.parseErr
	}
	return p.movie, nil
}

func TestScrape_FallbackOnFetchFail(t *testing.T) {
	id, _ := domain.ParseIMDbID("tt1099212")

	imdb := &stubProvider{name: "imdb", fetchErr: errors.New("nope")}
	omdb := &stubProvider{name: "omdb", body: []byte("{}"), url: "https://example.test/omdb", movie: domain.Movie{Name: "Twilight"}}

	reg, err := NewRegistry(imdb, omdb)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	res, err := Scrape(context.Background(), reg, "imdb", id, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if res.Provider != "omdb" || res.PageURL != omdb.url {
		t.Fatalf("期望 omdb 结果，实际 %+v", res)
	}
	if res.Movie.IMDbID != string(id) {
		t.Fatalf("IMDbID 应统一填为请求的 id：%q", res.Movie.IMDbID)
	}
	if imdb.parseCalls != 0 {
		t.Fatalf("fetch 失败后不应调用 Parse")
	}
}

func TestScrape_RecordsAttempts(t *testing.T) {
	id, _ := domain.ParseIMDbID("tt1099212")

	imdb := &stubProvider{name: "imdb", body: []byte("<bad/>"), url: "https://example.test/imdb", parseErr: errors.New("parse fail")}
	omdb := &stubProvider{name: "omdb", body: []byte("{}"), url: "https://example.test/omdb", movie: domain.Movie{Name: "ok"}}

	reg, err := NewRegistry(imdb, omdb)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	res, err := Scrape(context.Background(), reg, "imdb", id, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if string(res.Body) != "{}" || res.Movie.Name != "ok" {
		t.Fatalf("结果不符合预期：%+v", res)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("期望 2 条 attempts，实际 %+v", res.Attempts)
	}
	if a := res.Attempts[0]; a.Provider != "imdb" || a.Stage != StageParse || a.Err == nil {
		t.Fatalf("attempt[0] 不符合预期：%+v", a)
	}
	if a := res.Attempts[1]; a.Provider != "omdb" || a.Stage != "ok" || a.Err != nil {
		t.Fatalf("attempt[1] 不符合预期：%+v", a)
	}
}

func TestScrape_AllFail_ReturnsLastStageError(t *testing.T) {
	id, _ := domain.ParseIMDbID("tt1099212")

	reg, err := NewRegistry(
		&stubProvider{name: "imdb", fetchErr: errors.New("down")},
		&stubProvider{name: "omdb", fetchErr: errors.New("down")},
	)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	// omdb 在前，imdb 作为 fallback 最后尝试。
	res, err := Scrape(context.Background(), reg, "omdb", id, nil)
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("期望 *provider.Error，实际：%T %v", err, err)
	}
	if pe.Provider != "imdb" || pe.Stage != StageFetch {
		t.Fatalf("最后一个错误应来自 imdb fetch：%+v", pe)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("失败时也应返回 attempts：%+v", res.Attempts)
	}
}

func TestScrape_UnknownProvider(t *testing.T) {
	id, _ := domain.ParseIMDbID("tt1099212")

	reg, err := NewRegistry(&stubProvider{name: "imdb"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err = Scrape(context.Background(), reg, "nope", id, nil); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestRegistry_ChainOrder(t *testing.T) {
	reg, err := NewRegistry(&stubProvider{name: "imdb"}, &stubProvider{name: "OMDb"}, &stubProvider{name: "tmdb"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	cases := map[string]string{
		"imdb":   "imdb,omdb,tmdb",
		" OMDB ": "omdb,imdb,tmdb",
		"tmdb":   "tmdb,imdb,omdb",
		"nope":   "",
	}
	for in, want := range cases {
		if got := strings.Join(reg.ChainNames(in), ","); got != want {
			t.Fatalf("ChainNames(%q)=%q，期望 %q", in, got, want)
		}
	}
}

func TestNewRegistry_Invalid(t *testing.T) {
	if _, err := NewRegistry(&stubProvider{name: "imdb"}, &stubProvider{name: "IMDB"}); err == nil {
		t.Fatalf("期望重复 provider 报错")
	}
	if _, err := NewRegistry(&stubProvider{name: " "}); err == nil {
		t.Fatalf("期望空名字报错")
	}
	if _, err := NewRegistry(nil); err == nil {
		t.Fatalf("期望 nil provider 报错")
	}
}

func TestGet_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Get(context.Background(), srv.Client(), srv.URL, nil)
	var hs *HTTPStatusError
	if !errors.As(err, &hs) || hs.StatusCode != http.StatusNotFound {
		t.Fatalf("期望 HTTP 404 错误，实际：%v", err)
	}
}
