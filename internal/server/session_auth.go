package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
)

// SessionLogin authenticates with form fields and sets the SESSION_NAME cookie.
func (s *Server) SessionLogin(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if email == "" {
		AbortWithError(c, authdomain.ErrEmailRequired)
		return
	}
	password := c.PostForm("password")
	if password == "" {
		AbortWithError(c, authdomain.ErrPasswordRequired)
		return
	}

	ctx := c.Request.Context()
	user, err := s.authsvc.Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, authdomain.ErrUserNotFound):
		AbortWithError(c, statusError(http.StatusNotFound, "no user found for this email"))
		return
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		AbortWithError(c, statusError(http.StatusUnauthorized, "wrong password"))
		return
	case err != nil:
		AbortWithError(c, err)
		return
	}

	token, err := s.authsvc.CreateSession(ctx, user.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, token)
	c.JSON(http.StatusOK, user.View())
}

func (s *Server) SessionLogout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}
	if err := s.authsvc.DestroySession(c.Request.Context(), token); err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{})
}
