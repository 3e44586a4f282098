package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"habit-planner/internal/service"
)

func (s *Server) nutritionUser(c *gin.Context, explicit string) (string, bool) {
	userID, err := requestUserID(c, explicit)
	if err == nil && userID == "" {
		err = fmt.Errorf("%w: userId is required", service.ErrValidation)
	}
	if err != nil {
		s.abort(c, err)
		return "", false
	}
	return userID, true
}

func (s *Server) handleGetProfile(c *gin.Context) {
	userID, ok := s.nutritionUser(c, c.Query("userId"))
	if !ok {
		return
	}
	profile, err := s.svc.Nutrition.Profile(c.Request.Context(), userID)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type profileRequest struct {
	UserID         string  `json:"userId"`
	Gender         string  `json:"gender"`
	DateOfBirth    string  `json:"dateOfBirth"`
	HeightCm       float64 `json:"heightCm"`
	WeightKg       float64 `json:"weightKg"`
	TargetWeightKg float64 `json:"targetWeightKg"`
	ActivityLevel  string  `json:"activityLevel"`
	Goal           string  `json:"goal"`
}

func (s *Server) handleSaveProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, errInvalidRequestBody)
		return
	}
	userID, ok := s.nutritionUser(c, req.UserID)
	if !ok {
		return
	}
	in := service.ProfileInput{
		Gender:         req.Gender,
		HeightCm:       req.HeightCm,
		WeightKg:       req.WeightKg,
		TargetWeightKg: req.TargetWeightKg,
		ActivityLevel:  req.ActivityLevel,
		Goal:           req.Goal,
	}
	if req.DateOfBirth != "" {
		dob, err := parseDate(req.DateOfBirth, s.loc)
		if err != nil {
			s.abort(c, err)
			return
		}
		in.DateOfBirth = &dob
	}

	profile, err := s.svc.Nutrition.SaveProfile(c.Request.Context(), userID, in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleDashboard(c *gin.Context) {
	userID, ok := s.nutritionUser(c, c.Query("userId"))
	if !ok {
		return
	}
	dashboard, err := s.svc.Nutrition.Dashboard(c.Request.Context(), userID)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

type mealRequest struct {
	UserID      string  `json:"userId"`
	Description string  `json:"description"`
	Calories    int     `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fats        float64 `json:"fats"`
	Date        string  `json:"date"`
}

func (s *Server) handleLogMeal(c *gin.Context) {
	var req mealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, errInvalidRequestBody)
		return
	}
	userID, ok := s.nutritionUser(c, req.UserID)
	if !ok {
		return
	}
	in := service.MealInput{
		Description: req.Description,
		Calories:    req.Calories,
		Protein:     req.Protein,
		Carbs:       req.Carbs,
		Fats:        req.Fats,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date, s.loc)
		if err != nil {
			s.abort(c, err)
			return
		}
		in.Date = &date
	}

	meal, err := s.svc.Nutrition.LogMeal(c.Request.Context(), userID, in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}
