package record

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/John-Robertt/brainslug/internal/domain"
)

// ValidationError 表示记录违反了必填字段契约。
// Fields 是违规字段的对外名称（json 名），按结构体声明顺序。
type ValidationError struct {
	RecordType string
	Fields     []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s 缺少必填字段：%s", e.RecordType, strings.Join(e.Fields, ", "))
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// 报错字段使用 json 名（id/imdbId/...），与 HTTP 层、查询条件保持一致。
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate 校验 Movie 的必填字段。只含空白的字段同样视为缺失。
func Validate(m domain.Movie) error {
	return check(domain.RecordTypeMovie, Normalize(m))
}

// ValidateSource 校验 MovieSource 的必填字段。
func ValidateSource(s domain.MovieSource) error {
	return check(domain.RecordTypeMovieSource, NormalizeSource(s))
}

// Normalize 去掉各字段首尾空白。存储层写入的是 Normalize 之后的值，
// 所以 " 1" 与 "1" 是同一条记录。
func Normalize(m domain.Movie) domain.Movie {
	m.ID = strings.TrimSpace(m.ID)
	m.IMDbID = strings.TrimSpace(m.IMDbID)
	m.Name = strings.TrimSpace(m.Name)
	m.CoverURL = strings.TrimSpace(m.CoverURL)
	return m
}

func NormalizeSource(s domain.MovieSource) domain.MovieSource {
	s.ID = strings.TrimSpace(s.ID)
	s.MovieID = strings.TrimSpace(s.MovieID)
	s.URL = strings.TrimSpace(s.URL)
	return s
}

func check(recordType string, rec any) error {
	err := v().Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{RecordType: recordType, Fields: fields}
}
