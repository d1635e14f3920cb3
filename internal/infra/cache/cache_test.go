package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/brainslug/internal/domain"
)

const twilight = domain.IMDbID("tt1099212")

func TestStore_PageRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := New(root, false)

	if _, ok, err := s.Page("imdb", twilight); err != nil || ok {
		t.Fatalf("空缓存应未命中：ok=%v err=%v", ok, err)
	}
	if err := s.SavePage("IMDb", twilight, []byte("<html/>")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, ok, err := s.Page("imdb", twilight)
	if err != nil || !ok || string(b) != "<html/>" {
		t.Fatalf("期望命中缓存：b=%q ok=%v err=%v", b, ok, err)
	}

	want := filepath.Join(root, "cache", "providers", "imdb", "tt1099212.page")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("缓存文件位置不对：%v", err)
	}
}

func TestStore_MovieRoundTrip(t *testing.T) {
	s := New(t.TempDir(), false)
	m := domain.Movie{ID: "tt1099212", IMDbID: "tt1099212", Name: "Twilight", CoverURL: "https://example.test/t.jpg"}

	if err := s.SaveMovie("omdb", twilight, m); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	got, ok, err := s.Movie("omdb", twilight)
	if err != nil || !ok {
		t.Fatalf("期望命中缓存：ok=%v err=%v", ok, err)
	}
	if got != m {
		t.Fatalf("内容不一致：%+v", got)
	}
	if _, ok, _ := s.Movie("imdb", twilight); ok {
		t.Fatalf("不同 provider 的缓存应互相独立")
	}
}

func TestStore_CorruptMovie(t *testing.T) {
	s := New(t.TempDir(), false)
	dir, err := s.Dir("imdb")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tt1099212.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if _, ok, err := s.Movie("imdb", twilight); err == nil || ok {
		t.Fatalf("损坏的缓存应报错：ok=%v err=%v", ok, err)
	}
}

func TestStore_ReadOnlyRejectWrite(t *testing.T) {
	root := t.TempDir()
	s := New(root, true)

	if err := s.SaveMovie("omdb", twilight, domain.Movie{}); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}
	if err := s.SavePage("omdb", twilight, nil); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "cache")); !os.IsNotExist(err) {
		t.Fatalf("只读模式不应创建目录：%v", err)
	}
}

func TestStore_RejectsTraversal(t *testing.T) {
	s := New(t.TempDir(), false)
	if _, err := s.Dir("../x"); err == nil {
		t.Fatalf("非法 provider 应报错")
	}
	if _, _, err := s.Page("imdb", "../../etc"); err == nil {
		t.Fatalf("非法 id 应报错")
	}
}
