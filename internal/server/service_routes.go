package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
)

type credentialsForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type resetPasswordForm struct {
	Email       string `form:"email" json:"email"`
	ResetToken  string `form:"reset_token" json:"reset_token"`
	NewPassword string `form:"new_password" json:"new_password"`
}

func (s *Server) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Bienvenue"})
}

func (s *Server) RegisterUser(c *gin.Context) {
	var req credentialsForm
	if err := c.ShouldBind(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.authsvc.RegisterUser(c.Request.Context(), authdomain.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, authdomain.ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "email already registered"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": user.Email, "message": "user created"})
}

func (s *Server) StartSession(c *gin.Context) {
	var req credentialsForm
	if err := c.ShouldBind(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	if !s.authsvc.ValidLogin(ctx, req.Email, req.Password) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	token, err := s.authsvc.CreateSession(ctx, req.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.cookies.Set(c, token)
	c.JSON(http.StatusOK, gin.H{"email": req.Email, "message": "logged in"})
}

func (s *Server) EndSession(c *gin.Context) {
	token, ok := s.cookies.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	ctx := c.Request.Context()
	if _, err := s.authsvc.UserFromSession(ctx, token); err != nil {
		AbortWithError(c, ErrForbidden)
		return
	}
	if err := s.authsvc.DestroySession(ctx, token); err != nil {
		AbortWithError(c, ErrForbidden)
		return
	}

	s.cookies.Clear(c)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) Profile(c *gin.Context) {
	token, ok := s.cookies.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	user, err := s.authsvc.UserFromSession(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": user.Email})
}

func (s *Server) ResetPasswordToken(c *gin.Context) {
	var req resetPasswordForm
	if err := c.ShouldBind(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	token, err := s.authsvc.ResetPasswordToken(c.Request.Context(), req.Email)
	if err != nil {
		AbortWithError(c, ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": req.Email, "reset_token": token})
}

func (s *Server) UpdatePassword(c *gin.Context) {
	var req resetPasswordForm
	if err := c.ShouldBind(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.authsvc.UpdatePassword(c.Request.Context(), req.ResetToken, req.NewPassword); err != nil {
		if errors.Is(err, authdomain.ErrPasswordRequired) {
			AbortWithError(c, err)
			return
		}
		AbortWithError(c, ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": req.Email, "message": "Password updated"})
}
