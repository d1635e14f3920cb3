package provider

import (
	"fmt"
	"strings"
)

const (
	StageFetch = "fetch"
	StageParse = "parse"
)

// Error 标记失败发生在哪个 provider 的哪个阶段；catalog 据此区分 fetch_failed 与 parse_failed。
type Error struct {
	Provider string
	Stage    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatusError 是非 2xx 响应。Location 只在重定向时有值。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("%s 返回 HTTP %d", e.URL, e.StatusCode)
	if loc := strings.TrimSpace(e.Location); loc != "" {
		msg += "（跳转到 " + loc + "）"
	}
	return msg
}

// APIError 是 HTTP 200 但响应体声明失败，例如 OMDb 的 {"Response":"False","Error":"..."}。
type APIError struct {
	URL     string
	Message string
}

func (e *APIError) Error() string {
	if m := strings.TrimSpace(e.Message); m != "" {
		return "接口返回失败：" + m
	}
	return "接口返回失败"
}
