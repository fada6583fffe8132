package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/authgate/internal/auth/authctx"
	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
	userdomain "github.com/smallbiznis/authgate/internal/user/domain"
)

const currentUserAlias = "me"

func (s *Server) ListUsers(c *gin.Context) {
	users, err := s.usersvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]authdomain.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) GetUser(c *gin.Context) {
	id := c.Param("user_id")
	if id == currentUserAlias {
		user, ok := authctx.CurrentUser(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, user.View())
		return
	}

	user, err := s.usersvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.View())
}

func (s *Server) CreateUser(c *gin.Context) {
	var req userdomain.CreateRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.usersvc.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, authdomain.ErrEmailRequired), errors.Is(err, authdomain.ErrPasswordRequired):
			AbortWithError(c, err)
		default:
			AbortWithError(c, statusError(http.StatusBadRequest, fmt.Sprintf("Can't create User: %v", err)))
		}
		return
	}
	c.JSON(http.StatusCreated, user.View())
}

func (s *Server) UpdateUser(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("user_id")

	if _, err := s.usersvc.Get(ctx, id); err != nil {
		AbortWithError(c, err)
		return
	}

	var req userdomain.UpdateRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.usersvc.Update(ctx, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.View())
}

func (s *Server) DeleteUser(c *gin.Context) {
	if err := s.usersvc.Delete(c.Request.Context(), c.Param("user_id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
