// Package api exposes the gateway, quiz engine and mastery tracker over
// HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/tutorgate/internal/keyvault"
	"github.com/abhisek/tutorgate/internal/logging"
	"github.com/abhisek/tutorgate/internal/mastery"
	"github.com/abhisek/tutorgate/internal/quiz"
	"github.com/abhisek/tutorgate/internal/tutor"
)

// SessionHeader carries the browser session id used for the key vault.
const SessionHeader = "X-Session-ID"

// Deps are the services behind the routes.
type Deps struct {
	Tutor       *tutor.Service
	Vault       *keyvault.Vault
	Quiz        *quiz.Store
	Mastery     *mastery.Tracker
	Log         *logging.Logger
	CORSOrigins []string
}

// Server holds the handlers.
type Server struct {
	tutor   *tutor.Service
	vault   *keyvault.Vault
	quiz    *quiz.Store
	mastery *mastery.Tracker
	log     *logging.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{
		tutor:   d.Tutor,
		vault:   d.Vault,
		quiz:    d.Quiz,
		mastery: d.Mastery,
		log:     log.With("component", "api"),
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.Use(cors.New(corsConfig(d.CORSOrigins)))

	router.GET("/healthz", healthCheck)

	api := router.Group("/api")
	{
		api.POST("/chat", s.chat)

		api.POST("/keys/validate", s.validateKeys)
		api.PUT("/keys", s.storeKeys)
		api.DELETE("/keys", s.clearKeys)

		api.GET("/quiz/topics", s.quizTopics)
		api.POST("/quiz/start", s.startQuiz)
		api.POST("/quiz/answer", s.answerQuiz)
		api.POST("/quiz/finish", s.finishQuiz)
		api.GET("/quiz/history", s.quizHistory)

		api.POST("/study/session", s.studySession)
		api.GET("/mastery", s.listMastery)
	}

	return router
}

// corsConfig allows the configured origins with credentials, or any origin
// without credentials when none are configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", SessionHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// requestLogger logs one line per request. Bodies are never logged since
// they may carry API keys.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
