package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// sessionTTL bounds how long an issued token stays valid.
const sessionTTL = 12 * time.Hour

// Sessions is the in-memory token store backing the login contract. Tokens
// are opaque and do not survive a restart; that is the whole contract.
type Sessions struct {
	mu     sync.Mutex
	tokens map[string]session
}

type session struct {
	username string
	expires  time.Time
}

func NewSessions() *Sessions {
	return &Sessions{tokens: make(map[string]session)}
}

// Issue creates a fresh token for the user.
func (s *Sessions) Issue(username string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = session{username: username, expires: time.Now().Add(sessionTTL)}
	s.mu.Unlock()
	return token
}

// Validate reports whether token is live, dropping it once expired.
func (s *Sessions) Validate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(sess.expires) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Login verifies credentials against the user table and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if h.users == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication is not configured"})
		return
	}

	user, err := h.users.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.logger.Warnf("Login failed for %s: %v", req.Username, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.Warnf("Login failed for %s: bad password", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token := h.sessions.Issue(user.Username)
	h.logger.Infof("Issued session for %s", user.Username)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || !sessions.Validate(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
