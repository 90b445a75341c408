package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type submitJobRequest struct {
	Files       []model.PrintFile      `json:"files" binding:"required,min=1,dive"`
	Preferences model.PrintPreferences `json:"preferences"`
	OrderID     string                 `json:"razorpay_order_id" binding:"required"`
	PaymentID   string                 `json:"razorpay_payment_id" binding:"required"`
	Signature   string                 `json:"razorpay_signature" binding:"required"`
}

type statusRequest struct {
	Status model.JobStatus `json:"status" binding:"required"`
}

// GetRates handles GET /api/print/rates
func (h *Handler) GetRates(c *gin.Context) {
	rates, err := h.print.GetRates(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rates)
}

// SetRates handles PUT /api/print/rates
func (h *Handler) SetRates(c *gin.Context) {
	var rates model.PrintRates
	if err := c.ShouldBindJSON(&rates); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.print.SetRates(c.Request.Context(), currentUser(c), rates); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rates)
}

// Quote handles POST /api/print/quote
func (h *Handler) Quote(c *gin.Context) {
	var prefs model.PrintPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, err)
		return
	}

	total, err := h.print.Quote(c.Request.Context(), prefs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

// CreateOrder handles POST /api/print/orders
func (h *Handler) CreateOrder(c *gin.Context) {
	var prefs model.PrintPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.print.CreateOrder(c.Request.Context(), currentUser(c), prefs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "keyId": h.paymentKeyID})
}

// SubmitJob handles POST /api/print/jobs
func (h *Handler) SubmitJob(c *gin.Context) {
	var req submitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	job, err := h.print.SubmitJob(c.Request.Context(), currentUser(c), service.SubmitJobRequest{
		Files:       req.Files,
		Preferences: req.Preferences,
		OrderID:     req.OrderID,
		PaymentID:   req.PaymentID,
		Signature:   req.Signature,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "slotId": job.SlotID, "job": job})
}

// ListMyJobs handles GET /api/print/jobs/mine
func (h *Handler) ListMyJobs(c *gin.Context) {
	jobs, err := h.print.ListMyJobs(c.Request.Context(), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if jobs == nil {
		jobs = []*model.PrintJob{}
	}
	c.JSON(http.StatusOK, jobs)
}

// ListJobs handles GET /api/print/jobs?status=
func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.print.ListJobs(c.Request.Context(), currentUser(c), statusFilter(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if jobs == nil {
		jobs = []*model.PrintJob{}
	}
	c.JSON(http.StatusOK, jobs)
}

// UpdateJobStatus handles PATCH /api/print/jobs/:id/status
func (h *Handler) UpdateJobStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.print.UpdateJobStatus(c.Request.Context(), currentUser(c), id, req.Status); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// ExportJobs handles GET /api/print/jobs/export
func (h *Handler) ExportJobs(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.print.ExportJobs(c.Request.Context(), currentUser(c), statusFilter(c), &buf); err != nil {
		h.writeError(c, err)
		return
	}

	filename := fmt.Sprintf("print_jobs_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func statusFilter(c *gin.Context) *model.JobStatus {
	value := c.Query("status")
	if value == "" {
		return nil
	}
	status := model.JobStatus(value)
	return &status
}
