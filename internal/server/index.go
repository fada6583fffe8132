package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) Stats(c *gin.Context) {
	count, err := s.usersvc.Count(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": count})
}

func (s *Server) Unauthorized(c *gin.Context) {
	AbortWithError(c, ErrUnauthorized)
}

func (s *Server) Forbidden(c *gin.Context) {
	AbortWithError(c, ErrForbidden)
}
