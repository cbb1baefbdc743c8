// Catalog HTTP handlers.
//
// This file exposes REST endpoints for the reference catalog:
//   - POST   /plants          (create, admin)
//   - GET    /plants          (list)
//   - POST   /symptoms        (create, admin)
//   - GET    /symptoms        (list)
//   - GET    /symptoms/{id}   (get)
//   - PUT    /symptoms/{id}   (update, admin)
//   - DELETE /symptoms/{id}   (delete, admin)
//   - POST   /diseases        (create with symptom set, admin)
//   - GET    /diseases        (list with symptom associations)
//
// Role gating happens in the router; handlers validate input and translate
// service results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agrosage/go-plant-backend/internal/domain"
	"github.com/agrosage/go-plant-backend/internal/services"
)

// CatalogService defines reference-data operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CatalogService interface {
	CreatePlant(ctx context.Context, name, description, imageURL string) (*domain.Plant, error)
	ListPlants(ctx context.Context) ([]domain.Plant, error)

	CreateSymptom(ctx context.Context, name, description, typ string) (*domain.Symptom, error)
	GetSymptom(ctx context.Context, id uint) (*domain.Symptom, error)
	ListSymptoms(ctx context.Context) ([]domain.Symptom, error)
	UpdateSymptom(ctx context.Context, id uint, name, description, typ string) (*domain.Symptom, error)
	DeleteSymptom(ctx context.Context, id uint) error

	CreateDisease(ctx context.Context, name, description, symptomsDescription, treatment string, symptomIDs []uint) (*domain.Disease, error)
	ListDiseases(ctx context.Context) ([]services.DiseaseView, error)
}

// CreatePlantRequest is the JSON payload for creating a plant.
type CreatePlantRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100" example:"Tomato"`
	Description string `json:"description" example:"Solanum lycopersicum"`
	ImageURL    string `json:"image_url" example:"https://example.com/tomato.jpg"`
}

// SymptomRequest is the JSON payload for creating or updating a symptom.
// On update, empty fields keep their current value.
type SymptomRequest struct {
	Name        string `json:"name" example:"Leaf Spot"`
	Description string `json:"description" example:"Dark lesions on leaves"`
	Type        string `json:"type" example:"Leaf"`
}

// CreateDiseaseRequest is the JSON payload for creating a disease together
// with its symptom associations.
type CreateDiseaseRequest struct {
	Name                     string `json:"name" binding:"required,min=1,max=100" example:"Early Blight"`
	Description              string `json:"description"`
	SymptomsDescription      string `json:"symptoms_description"`
	TreatmentRecommendations string `json:"treatment_recommendations"`
	SymptomIDs               []uint `json:"symptom_ids"`
}

// pathID parses the :id route parameter as an unsigned integer.
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid id parameter")
		return 0, false
	}
	return uint(n), true
}

// CreatePlant godoc
// @ID          createPlant
// @Summary     Create a plant
// @Tags        Catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.CreatePlantRequest true "Plant payload"
// @Success     201 {object} domain.Plant
// @Failure     409 {object} handlers.ErrorResponse "Name taken"
// @Router      /plants [post]
func (h *Handlers) CreatePlant(c *gin.Context) {
	var req CreatePlantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.catalogSvc.CreatePlant(c.Request.Context(), req.Name, req.Description, req.ImageURL)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListPlants godoc
// @ID          listPlants
// @Summary     List plants (name ascending)
// @Tags        Catalog
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.Plant
// @Router      /plants [get]
func (h *Handlers) ListPlants(c *gin.Context) {
	plants, err := h.catalogSvc.ListPlants(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, plants)
}

// CreateSymptom godoc
// @ID          createSymptom
// @Summary     Create a symptom
// @Tags        Catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.SymptomRequest true "Symptom payload"
// @Success     201 {object} domain.Symptom
// @Router      /symptoms [post]
func (h *Handlers) CreateSymptom(c *gin.Context) {
	var req SymptomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.catalogSvc.CreateSymptom(c.Request.Context(), req.Name, req.Description, req.Type)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, s)
}

// ListSymptoms godoc
// @ID          listSymptoms
// @Summary     List symptoms
// @Tags        Catalog
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.Symptom
// @Router      /symptoms [get]
func (h *Handlers) ListSymptoms(c *gin.Context) {
	syms, err := h.catalogSvc.ListSymptoms(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, syms)
}

// GetSymptom godoc
// @ID          getSymptom
// @Summary     Get one symptom
// @Tags        Catalog
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Symptom ID"
// @Success     200 {object} domain.Symptom
// @Failure     404 {object} handlers.ErrorResponse "Not found"
// @Router      /symptoms/{id} [get]
func (h *Handlers) GetSymptom(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	s, err := h.catalogSvc.GetSymptom(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// UpdateSymptom godoc
// @ID          updateSymptom
// @Summary     Update a symptom (blank fields unchanged)
// @Tags        Catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path int true "Symptom ID"
// @Param       body body handlers.SymptomRequest true "Fields to update"
// @Success     200 {object} domain.Symptom
// @Router      /symptoms/{id} [put]
func (h *Handlers) UpdateSymptom(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req SymptomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.catalogSvc.UpdateSymptom(c.Request.Context(), id, req.Name, req.Description, req.Type)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// DeleteSymptom godoc
// @ID          deleteSymptom
// @Summary     Delete a symptom
// @Tags        Catalog
// @Security    BearerAuth
// @Param       id path int true "Symptom ID"
// @Success     204 {string} string "No Content"
// @Router      /symptoms/{id} [delete]
func (h *Handlers) DeleteSymptom(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	if err := h.catalogSvc.DeleteSymptom(c.Request.Context(), id); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// CreateDisease godoc
// @ID          createDisease
// @Summary     Create a disease with its symptom associations
// @Tags        Catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.CreateDiseaseRequest true "Disease payload"
// @Success     201 {object} domain.Disease
// @Failure     404 {object} handlers.ErrorResponse "Unknown symptom"
// @Failure     409 {object} handlers.ErrorResponse "Name taken"
// @Router      /diseases [post]
func (h *Handlers) CreateDisease(c *gin.Context) {
	var req CreateDiseaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	d, err := h.catalogSvc.CreateDisease(c.Request.Context(), req.Name, req.Description,
		req.SymptomsDescription, req.TreatmentRecommendations, req.SymptomIDs)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, d)
}

// ListDiseases godoc
// @ID          listDiseases
// @Summary     List diseases with their symptoms and severities (name ascending)
// @Tags        Catalog
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.DiseaseView
// @Router      /diseases [get]
func (h *Handlers) ListDiseases(c *gin.Context) {
	diseases, err := h.catalogSvc.ListDiseases(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, diseases)
}
