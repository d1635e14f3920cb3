package store

import (
	"context"
	"fmt"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Options 描述要打开的存储后端。
type Options struct {
	Backend    string
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

// Open 按 Backend 打开对应的存储实现。
func Open(ctx context.Context, o Options) (Store, error) {
	switch o.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendSQLite, "":
		return OpenSQL(o.SQLitePath)
	case BackendMongo:
		return OpenMongo(ctx, o.MongoURI, o.MongoDB)
	default:
		return nil, fmt.Errorf("未知存储后端：%q", o.Backend)
	}
}
