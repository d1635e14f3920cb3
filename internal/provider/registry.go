package provider

import (
	"fmt"
	"strings"
)

// Registry 按注册顺序保存 provider；注册顺序同时就是 fallback 顺序。
type Registry struct {
	order  []Provider
	byName map[string]int
}

func NewRegistry(providers ...Provider) (Registry, error) {
	r := Registry{
		order:  make([]Provider, 0, len(providers)),
		byName: make(map[string]int, len(providers)),
	}
	for i, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("第 %d 个 provider 为空", i+1)
		}
		name := normalizeName(p.Name())
		if name == "" {
			return Registry{}, fmt.Errorf("第 %d 个 provider 没有名字", i+1)
		}
		if _, dup := r.byName[name]; dup {
			return Registry{}, fmt.Errorf("provider %q 重复注册", name)
		}
		r.byName[name] = len(r.order)
		r.order = append(r.order, p)
	}
	return r, nil
}

func (r Registry) Get(name string) (Provider, bool) {
	i, ok := r.byName[normalizeName(name)]
	if !ok {
		return nil, false
	}
	return r.order[i], true
}

// Chain 返回一次抓取要依次尝试的 provider：requested 在前，其余按注册顺序跟在后面。
func (r Registry) Chain(requested string) ([]Provider, error) {
	first, ok := r.byName[normalizeName(requested)]
	if !ok {
		return nil, fmt.Errorf("未知 provider：%q", strings.TrimSpace(requested))
	}
	out := make([]Provider, 0, len(r.order))
	out = append(out, r.order[first])
	for i, p := range r.order {
		if i != first {
			out = append(out, p)
		}
	}
	return out, nil
}

// ChainNames 与 Chain 相同，只返回名字（日志用）。
func (r Registry) ChainNames(requested string) []string {
	ps, err := r.Chain(requested)
	if err != nil {
		return nil
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = normalizeName(p.Name())
	}
	return names
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
