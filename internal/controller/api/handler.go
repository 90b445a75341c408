package api

import (
	"context"
	"io"
	"net/http"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService операции с профилем и токенами доставки
type UserService interface {
	GetByUID(ctx context.Context, uid string) (*model.User, error)
	CompleteProfile(ctx context.Context, uid, email, rollNumber, phone string) (*model.User, error)
	RegisterToken(ctx context.Context, uid, token string) error
	RemoveToken(ctx context.Context, uid, token string) error
	CreateTelegramLinkCode(ctx context.Context, actor *model.User) (*model.TelegramLinkCode, error)
	SendTestNotification(ctx context.Context, actor *model.User, token string) (model.DeliveryReport, error)
}

// PrintService операции киоска печати
type PrintService interface {
	GetRates(ctx context.Context) (*model.PrintRates, error)
	SetRates(ctx context.Context, actor *model.User, rates model.PrintRates) error
	Quote(ctx context.Context, prefs model.PrintPreferences) (float64, error)
	CreateOrder(ctx context.Context, actor *model.User, prefs model.PrintPreferences) (*service.PaymentOrder, error)
	SubmitJob(ctx context.Context, actor *model.User, req service.SubmitJobRequest) (*model.PrintJob, error)
	ListMyJobs(ctx context.Context, actor *model.User) ([]*model.PrintJob, error)
	ListJobs(ctx context.Context, actor *model.User, status *model.JobStatus) ([]*model.PrintJob, error)
	UpdateJobStatus(ctx context.Context, actor *model.User, id uuid.UUID, status model.JobStatus) error
	ExportJobs(ctx context.Context, actor *model.User, status *model.JobStatus, w io.Writer) error
}

// ScheduleService операции с расписанием
type ScheduleService interface {
	CreateSchedule(ctx context.Context, actor *model.User, schedule *model.Schedule) error
	ListSchedules(ctx context.Context, day *int) ([]*model.Schedule, error)
	DeleteSchedule(ctx context.Context, actor *model.User, id uuid.UUID) error
}

// UpdateService публикация объявлений
type UpdateService interface {
	CreateUpdate(ctx context.Context, author *model.User, class model.ClassDescriptor, updateType, message string) (*model.LectureUpdate, error)
}

// Handler HTTP API портала
type Handler struct {
	users        UserService
	print        PrintService
	schedules    ScheduleService
	updates      UpdateService
	paymentKeyID string
	logger       *zap.Logger
}

type Deps struct {
	Users        UserService
	Print        PrintService
	Schedules    ScheduleService
	Updates      UpdateService
	PaymentKeyID string // публичный ключ Razorpay для checkout на клиенте
}

func NewHandler(deps Deps, logger *zap.Logger) *Handler {
	return &Handler{
		users:        deps.Users,
		print:        deps.Print,
		schedules:    deps.Schedules,
		updates:      deps.Updates,
		paymentKeyID: deps.PaymentKeyID,
		logger:       logger,
	}
}

// Router собирает маршруты API
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", h.identity())

	// Профиль заполняется до того, как пользователь появится в базе
	api.PUT("/users/me/profile", h.CompleteProfile)

	authed := api.Group("", h.loadUser())

	users := authed.Group("/users/me")
	users.GET("", h.GetMe)
	users.POST("/tokens", h.RegisterToken)
	users.DELETE("/tokens", h.RemoveToken)
	users.POST("/telegram-link", h.CreateTelegramLink)

	authed.POST("/notifications/test", h.SendTestNotification)

	printGroup := authed.Group("/print")
	printGroup.GET("/rates", h.GetRates)
	printGroup.PUT("/rates", h.SetRates)
	printGroup.POST("/quote", h.Quote)
	printGroup.POST("/orders", h.CreateOrder)
	printGroup.POST("/jobs", h.SubmitJob)
	printGroup.GET("/jobs", h.ListJobs)
	printGroup.GET("/jobs/mine", h.ListMyJobs)
	printGroup.GET("/jobs/export", h.ExportJobs)
	printGroup.PATCH("/jobs/:id/status", h.UpdateJobStatus)

	schedules := authed.Group("/schedules")
	schedules.GET("", h.ListSchedules)
	schedules.POST("", h.CreateSchedule)
	schedules.DELETE("/:id", h.DeleteSchedule)

	authed.POST("/lecture-updates", h.CreateLectureUpdate)

	return router
}
