package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"habit-planner/internal/service"
)

func (s *Server) handleListTemplates(c *gin.Context) {
	templates, err := s.svc.Templates.List(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

type applyTemplateRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) handleApplyTemplate(c *gin.Context) {
	var req applyTemplateRequest
	// The body is optional when a bearer token names the user.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.abort(c, errInvalidRequestBody)
		return
	}
	userID, err := requestUserID(c, req.UserID)
	if err != nil {
		s.abort(c, err)
		return
	}
	if userID == "" {
		s.abort(c, fmt.Errorf("%w: userId is required", service.ErrValidation))
		return
	}

	res, err := s.svc.Templates.Apply(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
