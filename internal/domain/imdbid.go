package domain

import (
	"regexp"
	"strings"
)

// IMDbID 是 IMDb 的作品标识（规范化后形如 tt1099212）。
//
// 约束：要么得到唯一 IMDbID，要么失败；宁可 unmatched，也不允许写错。
type IMDbID string

var imdbIDRE = regexp.MustCompile(`^tt[0-9]{7,8}$`)

// ParseIMDbID 校验并解析 IMDb ID。前缀大小写不敏感，输出统一为小写 "tt"。
func ParseIMDbID(s string) (IMDbID, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 2 {
		s = strings.ToLower(s[:2]) + s[2:]
	}
	if !imdbIDRE.MatchString(s) {
		return "", false
	}
	return IMDbID(s), true
}
