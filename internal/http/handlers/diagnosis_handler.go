// Diagnosis HTTP handlers.
//
// This file exposes REST endpoints for the diagnosis workflow:
//   - POST /diagnoses                      (submit, any authenticated)
//   - GET  /diagnoses                      (list all, expert/admin)
//   - GET  /diagnoses/{id}                 (get; owner or expert/admin)
//   - PUT  /diagnoses/{id}/validate        (expert verdict, expert/admin)
//   - GET  /farmers/{farmerId}/diagnoses   (list one farmer's; owner or
//     expert/admin)
//
// The Handlers type also hosts the wiring shared by all endpoint files.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrosage/go-plant-backend/internal/http/middleware"
	"github.com/agrosage/go-plant-backend/internal/services"
	"github.com/agrosage/go-plant-backend/internal/utils"
)

// DiagnosisService defines workflow operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DiagnosisService interface {
	// Submit files a diagnosis and computes the automatic guesses.
	Submit(ctx context.Context, farmerID, plantID uint, symptomIDs []uint, notes string) (*services.DiagnosisView, error)
	// Validate records an expert verdict (last writer wins).
	Validate(ctx context.Context, expertID, diagnosisID, diseaseID uint, status, notes string) (*services.DiagnosisView, error)
	// Get returns one diagnosis projection, enforcing ownership.
	Get(ctx context.Context, callerID uint, callerRole string, id uint) (*services.DiagnosisView, error)
	// List returns all diagnosis projections, newest first.
	List(ctx context.Context) ([]services.DiagnosisView, error)
	// ListByFarmer returns one farmer's projections, enforcing ownership.
	ListByFarmer(ctx context.Context, callerID uint, callerRole string, farmerID uint) ([]services.DiagnosisView, error)
	// Stats returns per-status diagnosis counts.
	Stats(ctx context.Context) (*services.WorkflowStats, error)
}

// Handlers groups the HTTP endpoints for accounts, the catalog, and the
// diagnosis workflow. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	userSvc      UserService
	catalogSvc   CatalogService
	diagnosisSvc DiagnosisService
}

// New constructs a Handlers instance bound to the given services.
func New(userSvc UserService, catalogSvc CatalogService, diagnosisSvc DiagnosisService) *Handlers {
	return &Handlers{userSvc: userSvc, catalogSvc: catalogSvc, diagnosisSvc: diagnosisSvc}
}

// identity extracts the authenticated caller from the Gin context (set by
// the auth middleware). A missing identity aborts with a 401 envelope.
func identity(c *gin.Context) (id uint, role string, found bool) {
	id, okID := middleware.CurrentUserID(c)
	role, okRole := middleware.CurrentRole(c)
	if !okID || !okRole {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return 0, "", false
	}
	return id, role, true
}

// Pagination describes the page window applied to a list response.
type Pagination struct {
	Page     int `json:"page" example:"1"`
	PageSize int `json:"page_size" example:"20"`
	Total    int `json:"total" example:"57"`
}

// DiagnosisListResponse wraps a page of diagnoses with its window metadata.
type DiagnosisListResponse struct {
	Diagnoses  []services.DiagnosisView `json:"diagnoses"`
	Pagination Pagination               `json:"pagination"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageWindow reads page/page_size query params and slices views to the
// requested window. Out of range values are clamped, not rejected.
func pageWindow(c *gin.Context, views []services.DiagnosisView) DiagnosisListResponse {
	page := utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	size := utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	total := len(views)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	window := views[start:end]
	if window == nil {
		window = []services.DiagnosisView{}
	}
	return DiagnosisListResponse{
		Diagnoses:  window,
		Pagination: Pagination{Page: page, PageSize: size, Total: total},
	}
}

// SubmitDiagnosisRequest is the JSON payload for filing a diagnosis.
type SubmitDiagnosisRequest struct {
	PlantID    uint   `json:"plant_id" binding:"required" example:"1"`
	SymptomIDs []uint `json:"symptom_ids" binding:"required" example:"1,2"`
	Notes      string `json:"notes" example:"Appeared after last week's rain"`
}

// ValidateDiagnosisRequest is the JSON payload for an expert verdict.
type ValidateDiagnosisRequest struct {
	ExpertDiagnosisID uint   `json:"expert_diagnosis_id" binding:"required" example:"3"`
	ValidationStatus  string `json:"validation_status" binding:"required" example:"validated"`
	ExpertNotes       string `json:"expert_notes" example:"Confirmed by leaf sample"`
}

// SubmitDiagnosis godoc
// @ID          submitDiagnosis
// @Summary     Submit a diagnosis request
// @Description Files observed symptoms for a plant. The rule engine computes a preliminary guess and the advisory service may add an AI suggestion; the record starts in pending_review.
// @Tags        Diagnoses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.SubmitDiagnosisRequest true "Submission payload"
// @Success     201 {object} services.DiagnosisView
// @Failure     400 {object} handlers.ErrorResponse "Empty symptom set"
// @Failure     404 {object} handlers.ErrorResponse "Unknown plant or symptom"
// @Router      /diagnoses [post]
func (h *Handlers) SubmitDiagnosis(c *gin.Context) {
	id, _, found := identity(c)
	if !found {
		return
	}
	var req SubmitDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	v, err := h.diagnosisSvc.Submit(c.Request.Context(), id, req.PlantID, req.SymptomIDs, req.Notes)
	if err != nil {
		failService(c, err)
		return
	}
	middleware.ObserveSubmission(v.Preliminary != nil, v.AISuggested != nil)
	ok(c, http.StatusCreated, v)
}

// ListDiagnoses godoc
// @ID          listDiagnoses
// @Summary     List all diagnoses (newest first)
// @Tags        Diagnoses
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (1-based)"
// @Param       page_size query int false "Page size (max 100)"
// @Success     200 {object} handlers.DiagnosisListResponse
// @Failure     403 {object} handlers.ErrorResponse "Forbidden"
// @Router      /diagnoses [get]
func (h *Handlers) ListDiagnoses(c *gin.Context) {
	views, err := h.diagnosisSvc.List(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, pageWindow(c, views))
}

// GetDiagnosis godoc
// @ID          getDiagnosis
// @Summary     Get one diagnosis
// @Description Farmers can only read their own records; experts and admins can read any. A denied caller gets 403, not 404.
// @Tags        Diagnoses
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Diagnosis ID"
// @Success     200 {object} services.DiagnosisView
// @Failure     403 {object} handlers.ErrorResponse "Not the owner"
// @Failure     404 {object} handlers.ErrorResponse "Not found"
// @Router      /diagnoses/{id} [get]
func (h *Handlers) GetDiagnosis(c *gin.Context) {
	callerID, role, found := identity(c)
	if !found {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	v, err := h.diagnosisSvc.Get(c.Request.Context(), callerID, role, id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// ValidateDiagnosis godoc
// @ID          validateDiagnosis
// @Summary     Record an expert verdict on a diagnosis
// @Description Sets the final disease and status, and upserts the validation record. A later validation overwrites the earlier one.
// @Tags        Diagnoses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path int true "Diagnosis ID"
// @Param       body body handlers.ValidateDiagnosisRequest true "Verdict payload"
// @Success     200 {object} services.DiagnosisView
// @Failure     400 {object} handlers.ErrorResponse "Invalid status"
// @Failure     404 {object} handlers.ErrorResponse "Unknown diagnosis or disease"
// @Router      /diagnoses/{id}/validate [put]
func (h *Handlers) ValidateDiagnosis(c *gin.Context) {
	expertID, _, found := identity(c)
	if !found {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req ValidateDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	v, err := h.diagnosisSvc.Validate(c.Request.Context(), expertID, id,
		req.ExpertDiagnosisID, req.ValidationStatus, req.ExpertNotes)
	if err != nil {
		failService(c, err)
		return
	}
	middleware.ObserveValidation(req.ValidationStatus)
	ok(c, http.StatusOK, v)
}

// ListFarmerDiagnoses godoc
// @ID          listFarmerDiagnoses
// @Summary     List one farmer's diagnoses (newest first)
// @Description Farmers can only list their own; experts and admins can list any farmer's.
// @Tags        Diagnoses
// @Produce     json
// @Security    BearerAuth
// @Param       farmerId  path  int true  "Farmer ID"
// @Param       page      query int false "Page number (1-based)"
// @Param       page_size query int false "Page size (max 100)"
// @Success     200 {object} handlers.DiagnosisListResponse
// @Failure     403 {object} handlers.ErrorResponse "Not the owner"
// @Failure     404 {object} handlers.ErrorResponse "Unknown farmer"
// @Router      /farmers/{farmerId}/diagnoses [get]
func (h *Handlers) ListFarmerDiagnoses(c *gin.Context) {
	callerID, role, found := identity(c)
	if !found {
		return
	}
	farmerID, okID := pathID(c, "farmerId")
	if !okID {
		return
	}
	views, err := h.diagnosisSvc.ListByFarmer(c.Request.Context(), callerID, role, farmerID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, pageWindow(c, views))
}

// GetDiagnosisStats godoc
// @ID          getDiagnosisStats
// @Summary     Per-status diagnosis counts for the review queue
// @Tags        Diagnoses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.WorkflowStats
// @Failure     403 {object} handlers.ErrorResponse "Forbidden"
// @Router      /diagnoses/stats [get]
func (h *Handlers) GetDiagnosisStats(c *gin.Context) {
	stats, err := h.diagnosisSvc.Stats(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}
