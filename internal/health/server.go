// Package health serves the liveness/readiness HTTP endpoints over the
// same gin+cors HTTP stack used elsewhere in the dispatch engine.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourorg/notification-gateway/internal/lifecycle"
	"github.com/yourorg/notification-gateway/internal/logger"
)

// Server serves /health, /health/live, /health/ready on a dedicated port.
type Server struct {
	httpServer *http.Server
	log        logger.Logger
}

func New(port int, gate *lifecycle.Gate, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		if gate.Ready() {
			c.JSON(http.StatusOK, gin.H{"status": "UP"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
	})
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ALIVE"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		if gate.Ready() {
			c.JSON(http.StatusOK, gin.H{"status": "READY"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY"})
	})

	return &Server{
		httpServer: &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: router},
		log:        log,
	}
}

// Start runs the server in a new goroutine and returns immediately.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("health server stopped unexpectedly", err, nil)
		}
	}()
	s.log.Info("health server started", map[string]any{"addr": s.httpServer.Addr})
}

// Close shuts the server down within a bounded timeout, satisfying
// lifecycle.Closer.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
