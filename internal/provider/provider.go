package provider

import (
	"context"
	"net/http"

	"github.com/John-Robertt/brainslug/internal/domain"
)

const (
	NameIMDb = "imdb"
	NameOMDb = "omdb"
)

// Provider 是一个电影元数据来源。
//
// Fetch 只负责拿到原始内容（重试、代理、UA 由 httpx 统一处理，缓存由 catalog 处理）；
// Parse 不做 IO，同样的 body 必须得到同样的 Movie。pageURL 写入 report 便于追溯。
type Provider interface {
	Name() string
	Fetch(ctx context.Context, id domain.IMDbID, c *http.Client) (body []byte, pageURL string, err error)
	Parse(id domain.IMDbID, body []byte, pageURL string) (domain.Movie, error)
}
