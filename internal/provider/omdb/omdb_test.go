package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/John-Robertt/brainslug/internal/domain"
	providerx "github.com/John-Robertt/brainslug/internal/provider"
)

func TestFetchParse_OK(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"Title":"Twilight","Year":"2008","Poster":"https://img.test/t.jpg","imdbID":"tt1099212","Response":"True"}`))
	}))
	defer srv.Close()

	id, _ := domain.ParseIMDbID("tt1099212")
	p := Provider{APIKey: "secret", BaseURL: srv.URL}

	b, pageURL, err := p.Fetch(context.Background(), id, srv.Client())
	if err != nil {
		t.Fatalf("Fetch 失败：%v", err)
	}
	if !strings.Contains(gotQuery, "apikey=secret") || !strings.Contains(gotQuery, "i=tt1099212") {
		t.Fatalf("请求参数不正确：%q", gotQuery)
	}
	if strings.Contains(pageURL, "secret") {
		t.Fatalf("pageURL 不应包含 apikey：%q", pageURL)
	}

	m, err := p.Parse(id, b, pageURL)
	if err != nil {
		t.Fatalf("Parse 失败：%v", err)
	}
	if m.Name != "Twilight" || m.CoverURL != "https://img.test/t.jpg" {
		t.Fatalf("解析结果不正确：%+v", m)
	}
}

func TestFetch_ResponseFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	}))
	defer srv.Close()

	id, _ := domain.ParseIMDbID("tt0000001")
	_, _, err := Provider{APIKey: "k", BaseURL: srv.URL}.Fetch(context.Background(), id, srv.Client())
	var ae *providerx.APIError
	if !errors.As(err, &ae) || ae.Message != "Incorrect IMDb ID." {
		t.Fatalf("期望 APIError，实际：%v", err)
	}
}

func TestFetch_NoAPIKey(t *testing.T) {
	id, _ := domain.ParseIMDbID("tt0000001")
	if _, _, err := (Provider{}).Fetch(context.Background(), id, http.DefaultClient); err == nil {
		t.Fatalf("未配置 key 时应报错")
	}
}

func TestParse_PosterNA(t *testing.T) {
	id, _ := domain.ParseIMDbID("tt1099212")
	_, err := Provider{}.Parse(id, []byte(`{"Title":"Twilight","Poster":"N/A","Response":"True"}`), "u")
	if err == nil {
		t.Fatalf("Poster=N/A 时应报错")
	}
}

func TestParse_MismatchedID(t *testing.T) {
	id, _ := domain.ParseIMDbID("tt1099212")
	_, err := Provider{}.Parse(id, []byte(`{"Title":"X","Poster":"https://img.test/x.jpg","imdbID":"tt0000002"}`), "u")
	if err == nil {
		t.Fatalf("imdbID 不一致时应报错")
	}
}
