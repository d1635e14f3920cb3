package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/John-Robertt/brainslug/internal/domain"
)

// Attempt 是 fallback 链上的一次尝试；成功的那次 Err 为 nil。
type Attempt struct {
	Provider string
	Stage    string
	Err      error
}

// Result 是一次成功抓取的全部产物。Body 是原始响应，供 catalog 写 provider 缓存。
type Result struct {
	Movie    domain.Movie
	Provider string
	PageURL  string
	Body     []byte
	Attempts []Attempt
}

// Scrape 沿 reg.Chain(requested) 依次 Fetch + Parse，返回第一个成功的结果。
//
// Movie.IMDbID 统一填为 id；Movie.ID 保持 provider 给的值（通常为空，由上层决定）。
// 全部失败时返回最后一个 *Error，Result.Attempts 仍然可用。
func Scrape(ctx context.Context, reg Registry, requested string, id domain.IMDbID, c *http.Client) (Result, error) {
	if id == "" {
		return Result{}, errors.New("imdb id 不能为空")
	}
	chain, err := reg.Chain(requested)
	if err != nil {
		return Result{}, err
	}

	var res Result
	var last error
	for _, p := range chain {
		name := normalizeName(p.Name())
		if err := ctx.Err(); err != nil {
			return res, err
		}

		body, pageURL, err := p.Fetch(ctx, id, c)
		if err != nil {
			last = &Error{Provider: name, Stage: StageFetch, Err: err}
			res.Attempts = append(res.Attempts, Attempt{Provider: name, Stage: StageFetch, Err: err})
			continue
		}
		m, err := p.Parse(id, body, pageURL)
		if err != nil {
			last = &Error{Provider: name, Stage: StageParse, Err: err}
			res.Attempts = append(res.Attempts, Attempt{Provider: name, Stage: StageParse, Err: err})
			continue
		}

		m.IMDbID = string(id)
		res.Movie = m
		res.Provider = name
		res.PageURL = pageURL
		res.Body = body
		res.Attempts = append(res.Attempts, Attempt{Provider: name, Stage: "ok"})
		return res, nil
	}
	return res, last
}
