package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/brainslug/internal/domain"
)

// DefaultExtensions 是未配置 extensions 时识别的视频扩展名。
var DefaultExtensions = []string{".avi", ".m4v", ".mkv", ".mov", ".mp4"}

// Options 控制一次扫描的范围。
type Options struct {
	// ExcludeDirs 相对 root（绝对路径则按原样）；命中的整棵子树跳过。
	ExcludeDirs []string
	// Extensions 为空时使用 DefaultExtensions；大小写不敏感，可带或不带前导 '.'。
	Extensions []string
}

// ScanVideos 扫描 root 下的视频文件。
//
// 固定规则：
// - <root>/cache/ 永远跳过（provider 缓存、report.json、cache.db 都在里面）
// - 以 '.' 开头的目录与文件跳过（隐藏目录、原子写临时文件、macOS 的 ._ 资源文件）
// - 只 stat，不读文件内容；结果按 RelPath 排序
func ScanVideos(root string, o Options) ([]domain.VideoFile, error) {
	w := newWalker(filepath.Clean(root), o)
	if err := filepath.WalkDir(w.root, w.visit); err != nil {
		return nil, err
	}
	sort.Slice(w.files, func(i, j int) bool { return w.files[i].RelPath < w.files[j].RelPath })
	return w.files, nil
}

type walker struct {
	root  string
	skip  map[string]struct{}
	exts  map[string]struct{}
	files []domain.VideoFile
}

func newWalker(root string, o Options) *walker {
	w := &walker{
		root:  root,
		skip:  map[string]struct{}{filepath.Join(root, "cache"): {}},
		exts:  make(map[string]struct{}, len(DefaultExtensions)),
		files: make([]domain.VideoFile, 0, 128),
	}
	for _, d := range o.ExcludeDirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if !filepath.IsAbs(d) {
			d = filepath.Join(root, d)
		}
		w.skip[filepath.Clean(d)] = struct{}{}
	}

	exts := o.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, e := range exts {
		if e = NormalizeExt(e); e != "" {
			w.exts[e] = struct{}{}
		}
	}
	return w
}

func (w *walker) visit(path string, d fs.DirEntry, walkErr error) error {
	if walkErr != nil {
		return walkErr
	}
	if path == w.root {
		return nil
	}

	hidden := strings.HasPrefix(d.Name(), ".")
	if d.IsDir() {
		// 目录 path 总是 clean 的，直接查表即可；子树由 SkipDir 整体跳过。
		if _, ok := w.skip[path]; ok || hidden {
			return filepath.SkipDir
		}
		return nil
	}
	if hidden || !d.Type().IsRegular() {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(d.Name()))
	if _, ok := w.exts[ext]; !ok {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return err
	}
	w.files = append(w.files, domain.VideoFile{
		AbsPath: path,
		RelPath: rel,
		Base:    strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
		Ext:     ext,
		Size:    info.Size(),
		ModUnix: info.ModTime().Unix(),
	})
	return nil
}

// NormalizeExt 把 "MKV"、".Mkv" 统一为 ".mkv"；空串返回空串。
func NormalizeExt(e string) string {
	e = strings.ToLower(strings.TrimSpace(e))
	if e == "" || e == "." {
		return ""
	}
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}
