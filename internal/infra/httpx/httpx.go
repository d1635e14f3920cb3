package httpx

import (
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultRetryMax = 2
	// maxRetryAfter 是愿意为 Retry-After 等待的上限；更长的等待直接把 429 交给上层。
	maxRetryAfter = 5 * time.Second
)

// Transport 统一 provider 抓取的网络策略：随机 UA、代理、有界重试。
//
// 重试条件（只针对 GET/HEAD 且无 body 的请求）：
// - 网络错误
// - 429 / 503：IMDb 与 OMDb 的限流响应；按 Retry-After（有上限）或线性退避等待
//
// provider 只负责“拼 URL + 解析内容”，不关心这些细节。
type Transport struct {
	Base *http.Transport

	// RetryMax 是最大重试次数（不含首次尝试）。
	RetryMax int
	// Backoff 是线性退避的步长；第 n 次重试前等待 n*Backoff。
	Backoff time.Duration

	ua    *uaPool
	sleep func(time.Duration)
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	retries := 0
	if (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil {
		retries = max(t.RetryMax, 0)
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; ; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", t.ua.random())
		}
		if t.Base.DisableKeepAlives {
			r.Close = true
		}

		resp, err = t.Base.RoundTrip(r)
		if attempt >= retries || req.Context().Err() != nil {
			return resp, err
		}

		wait := time.Duration(attempt+1) * t.Backoff
		switch {
		case err != nil:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
			if d, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
				if d > maxRetryAfter {
					return resp, nil
				}
				wait = d
			}
			drain(resp)
		default:
			return resp, nil
		}
		t.sleep(wait)
	}
}

// retryAfter 只支持秒数形式（IMDb/OMDb 都不返回 HTTP-date）。
func retryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// drain 丢弃并关闭即将被重试替换的响应，让连接可复用。
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// NewClient 构造用于 provider 抓取的 HTTP client。
//
// proxyURL 非空时所有请求走代理，并禁用 keep-alive（每请求新连接，代理池才能轮换出口）。
func NewClient(proxyURL string) (*http.Client, error) {
	base := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		MaxIdleConnsPerHost:   4,
	}

	if proxyURL = strings.TrimSpace(proxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
	}

	return &http.Client{
		Transport: &Transport{
			Base:     base,
			RetryMax: defaultRetryMax,
			Backoff:  500 * time.Millisecond,
			ua:       globalUA,
			sleep:    time.Sleep,
		},
		Timeout: defaultTimeout,
	}, nil
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

// IMDb 对非浏览器 UA 会返回精简页面（缺少 og:image），因此固定使用桌面浏览器 UA。
var globalUA = &uaPool{
	rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	uas: []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	},
}
