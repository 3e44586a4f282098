package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	TelegramChatID *int64 `json:"telegramChatId"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, errInvalidRequestBody)
		return
	}
	user, err := s.svc.Auth.Register(c.Request.Context(), req.Email, req.Password, req.TelegramChatID)
	if err != nil {
		s.abort(c, err)
		return
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	c.JSON(http.StatusOK, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, errInvalidRequestBody)
		return
	}
	session, err := s.svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.svc.Auth.User(c.Request.Context(), c.GetString(userIDCtxKey))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleUserStats(c *gin.Context) {
	stats, err := s.svc.Tasks.UserStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type contactRequest struct {
	TelegramChatID *int64 `json:"telegramChatId"`
}

func (s *Server) handleUpdateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, errInvalidRequestBody)
		return
	}
	userID, err := requestUserID(c, c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	user, err := s.svc.Auth.UpdateContact(c.Request.Context(), userID, req.TelegramChatID)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
