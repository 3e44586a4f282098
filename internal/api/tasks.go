package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"habit-planner/internal/service"
)

type taskRequest struct {
	UserID                string  `json:"userId"`
	Title                 string  `json:"title"`
	ScheduledDate         string  `json:"scheduledDate"`
	ScheduledTime         *string `json:"scheduledTime"`
	IsNotificationEnabled *bool   `json:"isNotificationEnabled"`
}

func (s *Server) taskInput(req taskRequest) (service.TaskInput, error) {
	in := service.TaskInput{
		Title:                req.Title,
		ScheduledTime:        req.ScheduledTime,
		NotificationsEnabled: req.IsNotificationEnabled,
	}
	if strings.TrimSpace(req.ScheduledDate) == "" {
		return in, fmt.Errorf("%w: scheduledDate is required", service.ErrValidation)
	}
	date, err := parseDate(req.ScheduledDate, s.loc)
	if err != nil {
		return in, err
	}
	in.ScheduledDate = date
	return in, nil
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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
	in, err := s.taskInput(req)
	if err != nil {
		s.abort(c, err)
		return
	}

	task, err := s.svc.Tasks.CreateTask(c.Request.Context(), userID, in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleListTasks(c *gin.Context) {
	userID, err := requestUserID(c, c.Query("userId"))
	if err != nil {
		s.abort(c, err)
		return
	}

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := parseDate(raw, s.loc)
		if err != nil {
			s.abort(c, err)
			return
		}
		date = &d
	}

	tasks, err := s.svc.Tasks.ListTasks(c.Request.Context(), userID, date)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, errInvalidRequestBody)
		return
	}
	in, err := s.taskInput(req)
	if err != nil {
		s.abort(c, err)
		return
	}

	task, err := s.svc.Tasks.UpdateTask(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	task, err := s.svc.Tasks.ToggleCompletion(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type deleteTasksRequest struct {
	TaskIDs []string `json:"taskIds"`
}

func (s *Server) handleDeleteTasks(c *gin.Context) {
	var req deleteTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, fmt.Errorf("%w: taskIds array is required", service.ErrValidation))
		return
	}
	count, err := s.svc.Tasks.DeleteTasks(c.Request.Context(), req.TaskIDs)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Server) handleRollover(c *gin.Context) {
	rolled, err := s.svc.Tasks.Rollover(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Tasks rolled over", "rolled": rolled})
}

// parseDate accepts RFC 3339 timestamps and bare YYYY-MM-DD dates, the
// latter read as midnight in loc.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 date", service.ErrValidation, raw)
}
