package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/casedesk/internal/auth"
	"github.com/ppiankov/casedesk/internal/status"
	"github.com/ppiankov/casedesk/internal/workflow"
)

func (s *Server) handleStatus(c *gin.Context) {
	if s.deps.Checker == nil {
		c.JSON(http.StatusOK, gin.H{"healthy": false, "services": []interface{}{}})
		return
	}

	results := s.deps.Checker.Run(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"healthy":   status.Healthy(results),
		"services":  results,
		"checkedAt": s.now().UTC(),
	})
}

func (s *Server) handleSignup(c *gin.Context) {
	var req auth.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid signup request", nil)
		return
	}

	session, err := s.authService().Signup(c.Request.Context(), req)
	if err != nil {
		s.failAuth(c, err, "Registration failed")
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid login request", nil)
		return
	}

	session, err := s.authService().Login(c.Request.Context(), req)
	if err != nil {
		s.failAuth(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) authService() *auth.Service {
	if s.deps.Auth != nil {
		return s.deps.Auth
	}
	return auth.NewService(nil, "", 0)
}

func (s *Server) failAuth(c *gin.Context, err error, internal string) {
	var ierr *auth.InputError
	switch {
	case errors.As(err, &ierr):
		fail(c, http.StatusBadRequest, ierr.Message, nil)
	case errors.Is(err, auth.ErrEmailTaken):
		fail(c, http.StatusConflict, "Email already registered", nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, auth.ErrInactive):
		fail(c, http.StatusForbidden, "Account is inactive", nil)
	case errors.Is(err, auth.ErrNotConfigured):
		fail(c, http.StatusInternalServerError, "Authentication not configured", nil)
	default:
		fail(c, http.StatusInternalServerError, internal, err)
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	if !s.sessionsReady(c) {
		return
	}
	c.JSON(http.StatusCreated, s.deps.Sessions.Create())
}

func (s *Server) handleGetSession(c *gin.Context) {
	if !s.sessionsReady(c) {
		return
	}
	session, err := s.deps.Sessions.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "Session not found", nil)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleSessionAction(c *gin.Context) {
	if !s.sessionsReady(c) {
		return
	}

	var action workflow.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		fail(c, http.StatusBadRequest, "Invalid action", nil)
		return
	}

	session, err := s.deps.Sessions.Update(c.Param("id"), func(sess *workflow.Session) error {
		return sess.Apply(action)
	})
	if err != nil {
		if errors.Is(err, workflow.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, "Session not found", nil)
			return
		}
		fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if !s.sessionsReady(c) {
		return
	}
	s.deps.Sessions.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) sessionsReady(c *gin.Context) bool {
	if s.deps.Sessions == nil {
		fail(c, http.StatusInternalServerError, "Sessions not configured", nil)
		return false
	}
	return true
}
