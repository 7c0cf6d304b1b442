package web

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/session"
	"github.com/shouni/go-sprite-kit/pkg/world"
)

// Server は生成APIとワールド一覧を提供するHTTPサーバーです。
type Server struct {
	engine   *gin.Engine
	worlds   world.Map
	composer *generator.Composer
	sessions *session.Store
}

// NewServer はルーティングとミドルウェアを設定したサーバーを構築します。
// allowedOrigins が空の場合は開発用オリジンのみ許可します。
func NewServer(worlds world.Map, composer *generator.Composer, sessions *session.Store, allowedOrigins []string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Session-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	s := &Server{
		engine:   router,
		worlds:   worlds,
		composer: composer,
		sessions: sessions,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	{
		api.GET("/themes", s.handleThemes)
		api.POST("/generate", s.handleGenerate)
		api.GET("/session", s.handleSessionState)
		api.POST("/reveal", s.handleReveal)
	}
}

// Run は指定アドレスでサーバーを起動します。
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Engine はテストから直接ハンドラを呼ぶためのルーターを返します。
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
