package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/record"
	"github.com/John-Robertt/brainslug/internal/store"
)

// envelope 是资源协议的统一响应：content 总是数组，error 成功时为 null。
type envelope struct {
	Content any     `json:"content"`
	Error   *string `json:"error"`
}

func ok(content any) envelope { return envelope{Content: content} }

func failed(msg string) envelope { return envelope{Content: []any{}, Error: &msg} }

// resource 描述一种记录在资源协议下的两个动作。
type resource struct {
	recordType string
	list       func(ctx context.Context, q record.Query) (any, error)
	view       func(ctx context.Context, id string) (any, bool, error)
}

func (s *Server) movies(c *gin.Context) {
	s.serveResource(c, resource{
		recordType: domain.RecordTypeMovie,
		list: func(ctx context.Context, q record.Query) (any, error) {
			ms, err := s.st.FindMovies(ctx, q)
			if ms == nil {
				ms = []domain.Movie{}
			}
			return ms, err
		},
		view: func(ctx context.Context, id string) (any, bool, error) {
			m, err := s.st.GetMovie(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			return []domain.Movie{m}, true, nil
		},
	})
}

func (s *Server) movieSources(c *gin.Context) {
	s.serveResource(c, resource{
		recordType: domain.RecordTypeMovieSource,
		list: func(ctx context.Context, q record.Query) (any, error) {
			srcs, err := s.st.FindSources(ctx, q)
			if srcs == nil {
				srcs = []domain.MovieSource{}
			}
			return srcs, err
		},
		view: func(ctx context.Context, id string) (any, bool, error) {
			got, err := s.st.FindSources(ctx, record.Local(domain.RecordTypeMovieSource, map[string]string{"id": id}))
			if err != nil {
				return nil, false, err
			}
			if len(got) == 0 {
				return nil, false, nil
			}
			return got, true, nil
		},
	})
}

// serveResource 实现资源协议：
// - ?list：列出全部；其余参数（只保留该记录类型的属性名）作为精确匹配条件
// - ?view=<id>：按主键取一条
// - 其他：501
func (s *Server) serveResource(c *gin.Context, res resource) {
	query := c.Request.URL.Query()
	ctx := c.Request.Context()

	switch {
	case query.Has("list"):
		conds := make(map[string]string, len(query))
		for k := range query {
			conds[k] = query.Get(k)
		}
		content, err := res.list(ctx, record.Local(res.recordType, conds))
		if err != nil {
			s.internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, ok(content))

	case query.Has("view"):
		id := query.Get("view")
		content, found, err := res.view(ctx, id)
		if err != nil {
			s.internalError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, failed(fmt.Sprintf("%s %q not found", res.recordType, id)))
			return
		}
		c.JSON(http.StatusOK, ok(content))

	default:
		c.JSON(http.StatusNotImplemented, gin.H{"error": "unrecognized query " + c.Request.URL.RawQuery})
	}
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.Error("存储访问失败", "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusInternalServerError, failed(err.Error()))
}
