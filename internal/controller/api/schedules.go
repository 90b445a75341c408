package api

import (
	"net/http"
	"strconv"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type scheduleRequest struct {
	DayOfWeek *int                  `json:"dayOfWeek" binding:"required"`
	StartTime string                `json:"startTime" binding:"required"`
	Venue     string                `json:"venue" binding:"required"`
	ClassInfo model.ClassDescriptor `json:"classInfo" binding:"required"`
}

type lectureUpdateRequest struct {
	ClassInfo  model.ClassDescriptor `json:"classInfo" binding:"required"`
	UpdateType string                `json:"updateType" binding:"required"`
	Message    string                `json:"message" binding:"required"`
}

// ListSchedules handles GET /api/schedules?day=
func (h *Handler) ListSchedules(c *gin.Context) {
	var day *int
	if value := c.Query("day"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day must be 0..6"})
			return
		}
		day = &parsed
	}

	schedules, err := h.schedules.ListSchedules(c.Request.Context(), day)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if schedules == nil {
		schedules = []*model.Schedule{}
	}
	c.JSON(http.StatusOK, schedules)
}

// CreateSchedule handles POST /api/schedules
func (h *Handler) CreateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	schedule := &model.Schedule{
		DayOfWeek: *req.DayOfWeek,
		StartTime: req.StartTime,
		Venue:     req.Venue,
		ClassInfo: req.ClassInfo,
	}
	if err := h.schedules.CreateSchedule(c.Request.Context(), currentUser(c), schedule); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

// DeleteSchedule handles DELETE /api/schedules/:id
func (h *Handler) DeleteSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule id"})
		return
	}

	if err := h.schedules.DeleteSchedule(c.Request.Context(), currentUser(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateLectureUpdate handles POST /api/lecture-updates.
// Рассылка потоку запускается триггером базы после вставки.
func (h *Handler) CreateLectureUpdate(c *gin.Context) {
	var req lectureUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	update, err := h.updates.CreateUpdate(c.Request.Context(), currentUser(c), req.ClassInfo, req.UpdateType, req.Message)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, update)
}
