package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/record"
)

var (
	// ErrNotFound 表示按主键找不到记录（或 source 引用的 movie 不存在）。
	ErrNotFound = errors.New("store: not found")
	// ErrRecordType 表示查询的 RecordType 与调用的方法不匹配。
	ErrRecordType = errors.New("store: record type mismatch")
)

// Store 是记录存储的统一契约。
//
// 约束：
// - Put* 先做必填字段校验，再按主键 upsert（同 ID 即同一实体）
// - Find* 的结果按 ID 字典序返回
// - 实现必须并发安全（HTTP server 与 catalog worker 会同时使用）
type Store interface {
	PutMovie(ctx context.Context, m domain.Movie) error
	GetMovie(ctx context.Context, id string) (domain.Movie, error)
	DeleteMovie(ctx context.Context, id string) error
	FindMovies(ctx context.Context, q record.Query) ([]domain.Movie, error)

	PutSource(ctx context.Context, s domain.MovieSource) error
	FindSources(ctx context.Context, q record.Query) ([]domain.MovieSource, error)

	Close() error
}

func checkType(q record.Query, want string) error {
	if q.RecordType != want {
		return fmt.Errorf("%w：期望 %s，实际 %q", ErrRecordType, want, q.RecordType)
	}
	return nil
}

func notFound(recordType, id string) error {
	return fmt.Errorf("%w：%s %q", ErrNotFound, recordType, id)
}
