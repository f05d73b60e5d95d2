package handler

import (
	"net/http"
	"strings"

	"crm_sync_backend/internal/crm/service"
	"crm_sync_backend/internal/crm/transport"
	"crm_sync_backend/platform/httpkit"
	"crm_sync_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the CRM reconciliation views
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new CRM handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the CRM routes. Routes that run the engine go
// through limit.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	rg.GET("/dashboard", limit, h.Dashboard)
	rg.GET("/dashboard/:id", limit, h.GetByID)
	rg.POST("/reconcile", limit, h.Reconcile)
	rg.GET("/anomalies", h.Anomalies)
}

// Dashboard handles GET /api/v1/crm/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	var req transport.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Dashboard(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetByID handles GET /api/v1/crm/dashboard/:id
func (h *Handler) GetByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "id is required")
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Reconcile handles POST /api/v1/crm/reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	var req transport.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ReconcileRecords(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Anomalies handles GET /api/v1/crm/anomalies
func (h *Handler) Anomalies(c *gin.Context) {
	result, err := h.svc.Anomalies(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
