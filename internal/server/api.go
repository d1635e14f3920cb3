package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/record"
	"github.com/John-Robertt/brainslug/internal/store"
)

// GET /api/movies?name=...&imdbId=...
func (s *Server) listMovies(c *gin.Context) {
	conds := make(map[string]string)
	for k, vals := range c.Request.URL.Query() {
		if len(vals) > 0 {
			conds[k] = vals[0]
		}
	}
	ms, err := s.st.FindMovies(c.Request.Context(), record.Local(domain.RecordTypeMovie, conds))
	if err != nil {
		s.apiError(c, err)
		return
	}
	if ms == nil {
		ms = []domain.Movie{}
	}
	c.JSON(http.StatusOK, ms)
}

func (s *Server) getMovie(c *gin.Context) {
	m, err := s.st.GetMovie(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) createMovie(c *gin.Context) {
	var m domain.Movie
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.st.PutMovie(c.Request.Context(), m); err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) deleteMovie(c *gin.Context) {
	if err := s.st.DeleteMovie(c.Request.Context(), c.Param("id")); err != nil {
		s.apiError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listMovieSources(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.st.GetMovie(ctx, id); err != nil {
		s.apiError(c, err)
		return
	}
	srcs, err := s.st.FindSources(ctx, record.Local(domain.RecordTypeMovieSource, map[string]string{"movie": id}))
	if err != nil {
		s.apiError(c, err)
		return
	}
	if srcs == nil {
		srcs = []domain.MovieSource{}
	}
	c.JSON(http.StatusOK, srcs)
}

// apiError 把存储层错误映射为 HTTP 状态码。
func (s *Server) apiError(c *gin.Context, err error) {
	var ve *record.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "fields": ve.Fields})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.log.Error("存储访问失败", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
