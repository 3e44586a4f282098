package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"habit-planner/internal/metrics"
	"habit-planner/internal/model"
	"habit-planner/internal/repository"
)

// templateNamespace scopes the name-based ids of built-in templates so the
// same template keeps its id across databases.
var templateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("habit-planner/templates"))

var builtinTemplates = []model.Template{
	{
		Title:       "Student Exam Week",
		Icon:        "GraduationCap",
		Description: "Focused on revision blocks and mental clarity.",
		Tasks: []model.TemplateTask{
			{Title: "Morning Revision Block", ScheduledTime: "08:00"},
			{Title: "Lunch & Relax", ScheduledTime: "13:00"},
			{Title: "Afternoon Practice Paper", ScheduledTime: "15:00"},
			{Title: "Review Mistakes", ScheduledTime: "19:00"},
			{Title: "Plan Tomorrow", ScheduledTime: "21:00"},
		},
	},
	{
		Title:       "Job Search Week",
		Icon:        "Briefcase",
		Description: "High intensity networking and interview prep.",
		Tasks: []model.TemplateTask{
			{Title: "Apply to 3 Companies", ScheduledTime: "09:00"},
			{Title: "Follow up Emails", ScheduledTime: "11:00"},
			{Title: "Algorithm Practice", ScheduledTime: "14:00"},
			{Title: "Network on LinkedIn", ScheduledTime: "16:00"},
			{Title: "Project Work", ScheduledTime: "18:00"},
		},
	},
	{
		Title:       "Fitness / Fat Loss",
		Icon:        "Dumbbell",
		Description: "Daily activity tracking and meal discipline.",
		Tasks: []model.TemplateTask{
			{Title: "Morning Cardio", ScheduledTime: "06:30"},
			{Title: "Healthy Breakfast", ScheduledTime: "08:30"},
			{Title: "Weight Training", ScheduledTime: "17:30"},
			{Title: "Evening Walk", ScheduledTime: "20:00"},
			{Title: "Sleep 8 Hours", ScheduledTime: "22:00"},
		},
	},
	{
		Title:       "Business / Hustle",
		Icon:        "Zap",
		Description: "Maximizing output and eliminating distractions.",
		Tasks: []model.TemplateTask{
			{Title: "Deep Work Block 1", ScheduledTime: "08:00"},
			{Title: "Client Calls / Sales", ScheduledTime: "11:00"},
			{Title: "Deep Work Block 2", ScheduledTime: "14:00"},
			{Title: "Content Creation", ScheduledTime: "16:30"},
			{Title: "Analytics Review", ScheduledTime: "19:00"},
		},
	},
}

// TemplateID returns the stable id of a built-in template title.
func TemplateID(title string) string {
	return uuid.NewSHA1(templateNamespace, []byte(title)).String()
}

// ApplyResult describes the tasks created from a template.
type ApplyResult struct {
	Count int          `json:"count"`
	Tasks []model.Task `json:"tasks"`
}

// TemplateService serves the template catalog.
type TemplateService struct {
	templateRepo *repository.TemplateRepository
	taskRepo     *repository.TaskRepository
	userRepo     *repository.UserRepository
	clock        clock
	log          zerolog.Logger
}

func NewTemplateService(templateRepo *repository.TemplateRepository, taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, loc *time.Location, log zerolog.Logger, opts ...Option) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		taskRepo:     taskRepo,
		userRepo:     userRepo,
		clock:        newClock(loc, opts),
		log:          log.With().Str("component", "templates").Logger(),
	}
}

// Seed inserts the built-in templates that are missing, matched by title.
func (s *TemplateService) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, tpl := range builtinTemplates {
		tpl.ID = TemplateID(tpl.Title)
		tpl.Tasks = append([]model.TemplateTask(nil), tpl.Tasks...)
		_, isNew, err := s.templateRepo.GetOrCreate(ctx, tpl)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}
	if created > 0 {
		s.log.Info().Int("created", created).Msg("templates seeded")
	}
	return created, nil
}

func (s *TemplateService) List(ctx context.Context) ([]model.Template, error) {
	return s.templateRepo.List(ctx)
}

// Apply creates one task per template entry for the user, dated today with
// notifications on. Applying the same template twice duplicates the tasks.
func (s *TemplateService) Apply(ctx context.Context, userID, templateID string) (*ApplyResult, error) {
	tpl, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	today := startOfDay(s.clock.now(), s.clock.loc)
	tasks := make([]model.Task, 0, len(tpl.Tasks))
	for _, entry := range tpl.Tasks {
		task := model.Task{
			UserID:                userID,
			Title:                 entry.Title,
			ScheduledDate:         today,
			IsNotificationEnabled: true,
		}
		if entry.ScheduledTime != "" {
			at := entry.ScheduledTime
			task.ScheduledTime = &at
		}
		tasks = append(tasks, task)
	}
	if err := s.taskRepo.CreateBatch(ctx, tasks); err != nil {
		return nil, err
	}

	metrics.TasksCreated.WithLabelValues("template").Add(float64(len(tasks)))
	s.log.Info().Str("template_id", tpl.ID).Str("user_id", userID).Int("tasks", len(tasks)).Msg("template applied")
	return &ApplyResult{Count: len(tasks), Tasks: tasks}, nil
}
