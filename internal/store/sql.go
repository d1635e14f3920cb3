package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/record"
)

// SQL 是基于 gorm + SQLite 的持久化存储（默认落在 cache.db）。
//
// 表结构沿用历史 cache.db：
// - movies(movie_id, movie_name, movie_imdbid, movie_coverurl)
// - moviesources(msrc_id, movie_id, msrc_url)
type SQL struct {
	db *gorm.DB
}

var _ Store = (*SQL)(nil)

// OpenSQL 打开（必要时创建）SQLite 数据库并自动迁移表结构。
func OpenSQL(path string) (*SQL, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库 %q 失败：%w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite 只允许单写者；单连接也保证 :memory: 库在整个进程内是同一个。
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Movie{}, &domain.MovieSource{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("初始化表结构失败：%w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) PutMovie(ctx context.Context, m domain.Movie) error {
	m = record.Normalize(m)
	if err := record.Validate(m); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&m).Error
}

func (s *SQL) GetMovie(ctx context.Context, id string) (domain.Movie, error) {
	var m domain.Movie
	err := s.db.WithContext(ctx).Where("movie_id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Movie{}, notFound(domain.RecordTypeMovie, id)
	}
	return m, err
}

func (s *SQL) DeleteMovie(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("movie_id = ?", id).Delete(&domain.MovieSource{}).Error; err != nil {
			return err
		}
		res := tx.Where("movie_id = ?", id).Delete(&domain.Movie{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(domain.RecordTypeMovie, id)
		}
		return nil
	})
}

func (s *SQL) FindMovies(ctx context.Context, q record.Query) ([]domain.Movie, error) {
	if err := checkType(q, domain.RecordTypeMovie); err != nil {
		return nil, err
	}
	tx, err := where(s.db.WithContext(ctx), q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Movie, 0, 16)
	if err := tx.Order("movie_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQL) PutSource(ctx context.Context, src domain.MovieSource) error {
	src = record.NormalizeSource(src)
	if err := record.ValidateSource(src); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Movie{}).Where("movie_id = ?", src.MovieID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(domain.RecordTypeMovie, src.MovieID)
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&src).Error
	})
}

func (s *SQL) FindSources(ctx context.Context, q record.Query) ([]domain.MovieSource, error) {
	if err := checkType(q, domain.RecordTypeMovieSource); err != nil {
		return nil, err
	}
	tx, err := where(s.db.WithContext(ctx), q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MovieSource, 0, 16)
	if err := tx.Order("msrc_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// where 把查询条件翻译为参数化的 "<column> = ?"（列名来自白名单，值一律绑定）。
func where(tx *gorm.DB, q record.Query) (*gorm.DB, error) {
	for _, k := range q.Keys() {
		col, ok := record.Column(q.RecordType, k)
		if !ok {
			return nil, fmt.Errorf("未知查询字段：%s.%s", q.RecordType, k)
		}
		tx = tx.Where(col+" = ?", q.Conditions[k])
	}
	return tx, nil
}
