// Package controlplane serves a mock of the production session API so client
// integrations can exercise their full connect path against one process. It
// is stateless beyond its config and never talks to the Flight server.
package controlplane

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// defaultValidTokens is the static token set accepted when none is
// configured.
var defaultValidTokens = []string{"demo", "test-token", "valid-api-key"}

// Config holds the control-plane settings.
type Config struct {
	// FlightAddr is the host:port advertised in session responses.
	FlightAddr string

	// ValidTokens overrides the default accepted token set.
	ValidTokens []string
}

// Server is the mock control-plane HTTP API.
type Server struct {
	cfg    Config
	tokens []string
	engine *gin.Engine

	httpSrv *http.Server
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	tokens := cfg.ValidTokens
	if len(tokens) == 0 {
		tokens = defaultValidTokens
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{cfg: cfg, tokens: tokens, engine: router}
	router.POST("/v1/session", s.createSession)
	router.GET("/health", s.health)
	return s
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve starts serving on the given listener, blocking until Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	s.httpSrv = &http.Server{Handler: s.engine}
	slog.Info("Control plane listening.", "addr", listener.Addr().String())
	err := s.httpSrv.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown() {
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
	}
}

type sessionRequest struct {
	Database string `json:"database"`
}

func (s *Server) createSession(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		observeSessionRequest("unauthorized")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
		return
	}
	if !s.validToken(token) {
		observeSessionRequest("forbidden")
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		return
	}

	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Database == "" {
		observeSessionRequest("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid database"})
		return
	}
	if req.Database == "nonexistent_db" {
		observeSessionRequest("not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": "database not found"})
		return
	}

	observeSessionRequest("ok")
	c.JSON(http.StatusOK, gin.H{
		"flight_endpoint": "grpc://" + s.cfg.FlightAddr,
		"session_token":   newSessionToken(),
		"expires_at":      time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) validToken(token string) bool {
	for _, valid := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(valid)) == 1 {
			return true
		}
	}
	return false
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func newSessionToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate session token: " + err.Error())
	}
	return hex.EncodeToString(b)
}
