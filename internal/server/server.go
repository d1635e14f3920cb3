package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/John-Robertt/brainslug/internal/store"
)

// Server 把 Store 暴露为 HTTP 接口。
//
// 两套路由共用同一个 Store：
// - /movies、/moviesources：客户端使用的资源协议（?list / ?view=<id>）
// - /api/...：REST 风格接口（增删查）
type Server struct {
	st  store.Store
	log *slog.Logger
}

func New(st store.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{st: st, log: log}
}

// Handler 构造 gin 路由。gin 的 mode 由调用方通过 gin.SetMode 决定。
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.Logger())
	}
	r.Use(cors())

	r.GET("/movies", s.movies)
	r.GET("/moviesources", s.movieSources)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})
		api.GET("/movies", s.listMovies)
		api.POST("/movies", s.createMovie)
		api.GET("/movies/:id", s.getMovie)
		api.DELETE("/movies/:id", s.deleteMovie)
		api.GET("/movies/:id/sources", s.listMovieSources)
	}

	r.NoRoute(func(c *gin.Context) {
		s.log.Warn("未处理的请求",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
		)
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
