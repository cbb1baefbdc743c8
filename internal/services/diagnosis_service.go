// Package services – DiagnosisService
//
// This file implements the DiagnosisService, the center of the workflow: a
// farmer submits observed symptoms for a plant, the rule engine produces a
// preliminary guess, the advisory client may add an AI suggestion, and an
// expert later validates the record with a final disease and status.
//
// Submission validates every reference before any guess is computed, and
// performs exactly one persistence write. Validation captures the previous
// best guess from the pre-mutation state and then updates the diagnosis and
// upserts the validation record in one transaction. Read operations enforce
// ownership through the access policy: a denied farmer gets ErrAccessDenied,
// never an empty result.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/agrosage/go-plant-backend/internal/access"
	"github.com/agrosage/go-plant-backend/internal/domain"
)

var tracer = otel.Tracer("github.com/agrosage/go-plant-backend/internal/services")

// DiagnosisRepo defines the repository contract required by
// DiagnosisService.
type DiagnosisRepo interface {
	CreateDiagnosis(ctx context.Context, db *gorm.DB, d *domain.Diagnosis) error
	GetDiagnosis(ctx context.Context, db *gorm.DB, id uint) (*domain.Diagnosis, error)
	ListDiagnoses(ctx context.Context, db *gorm.DB) ([]domain.Diagnosis, error)
	ListDiagnosesByFarmer(ctx context.Context, db *gorm.DB, farmerID uint) ([]domain.Diagnosis, error)
	ApplyValidation(ctx context.Context, db *gorm.DB, diagnosisID uint, finalDiseaseID *uint, status string, val *domain.ExpertValidation) error
	CountDiagnosesByStatus(ctx context.Context, db *gorm.DB) (map[string]int64, error)

	GetPlant(ctx context.Context, db *gorm.DB, id uint) (*domain.Plant, error)
	FindSymptomsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Symptom, error)
	GetDisease(ctx context.Context, db *gorm.DB, id uint) (*domain.Disease, error)
	GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)
}

// RuleEvaluator produces a preliminary disease guess from a plant and its
// observed symptoms. *rules.Engine satisfies it.
type RuleEvaluator interface {
	Evaluate(plantID uint, observed []uint) *uint
}

// AdvisorySuggester asks the external prediction service for an advisory
// guess. It never fails: any problem yields nil. *advisory.Client satisfies
// it.
type AdvisorySuggester interface {
	Suggest(ctx context.Context, plantID uint, symptomIDs []uint) *uint
}

// DiagnosisService coordinates submission, review, and expert validation of
// diagnoses.
type DiagnosisService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the diagnosis repository used by this service.
	Repo DiagnosisRepo
	// Rules produces the preliminary guess.
	Rules RuleEvaluator
	// Advisory produces the optional AI suggestion. May be nil.
	Advisory AdvisorySuggester
}

// NewDiagnosisService constructs a DiagnosisService.
func NewDiagnosisService(db *gorm.DB, r DiagnosisRepo, rules RuleEvaluator, adv AdvisorySuggester) *DiagnosisService {
	return &DiagnosisService{DB: db, Repo: r, Rules: rules, Advisory: adv}
}

// SymptomRef is a resolved observed symptom in a diagnosis projection.
type SymptomRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// DiseaseRef is a resolved disease reference in a diagnosis projection.
type DiseaseRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ValidationView is the expert validation block of a diagnosis projection.
type ValidationView struct {
	ExpertID          uint      `json:"expert_id"`
	ExpertName        string    `json:"expert_name,omitempty"`
	PreviousDiseaseID *uint     `json:"previous_diagnosis_id"`
	NewDiseaseID      uint      `json:"new_diagnosis_id"`
	Status            string    `json:"validation_status"`
	Notes             string    `json:"notes,omitempty"`
	ValidatedAt       time.Time `json:"validated_at"`
}

// DiagnosisView is the full projection of a diagnosis returned to clients:
// names resolved for the plant, farmer, observed symptoms, and every disease
// reference, plus the validation block once an expert has ruled.
type DiagnosisView struct {
	ID               uint            `json:"id"`
	FarmerID         uint            `json:"farmer_id"`
	FarmerName       string          `json:"farmer_name"`
	PlantID          uint            `json:"plant_id"`
	PlantName        string          `json:"plant_name"`
	ObservedSymptoms []SymptomRef    `json:"observed_symptoms"`
	FarmerNotes      string          `json:"farmer_notes,omitempty"`
	Preliminary      *DiseaseRef     `json:"preliminary_diagnosis"`
	AISuggested      *DiseaseRef     `json:"ai_suggested_diagnosis"`
	Final            *DiseaseRef     `json:"final_diagnosis"`
	Status           string          `json:"status"`
	Validation       *ValidationView `json:"validation,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Submit files a new diagnosis for the farmer. The plant and every symptom
// id must exist and the symptom set must be non-empty; references are
// checked before any guess is computed. The preliminary guess comes from the
// rule table, the AI suggestion from the advisory service (absent on any
// advisory failure), and the record is persisted in a single write with
// status pending_review and no final disease.
func (s *DiagnosisService) Submit(ctx context.Context, farmerID, plantID uint, symptomIDs []uint, notes string) (*DiagnosisView, error) {
	ctx, span := tracer.Start(ctx, "DiagnosisService.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int("diagnosis.plant_id", int(plantID)),
		attribute.Int("diagnosis.symptom_count", len(symptomIDs)),
	)

	if len(symptomIDs) == 0 {
		return nil, ErrEmptySymptoms
	}
	if _, err := s.Repo.GetPlant(ctx, s.DB, plantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlantNotFound
		}
		return nil, err
	}
	found, err := s.Repo.FindSymptomsByIDs(ctx, s.DB, dedupe(symptomIDs))
	if err != nil {
		return nil, err
	}
	if len(found) != len(dedupe(symptomIDs)) {
		return nil, ErrSymptomNotFound
	}

	preliminary := s.Rules.Evaluate(plantID, symptomIDs)
	var suggested *uint
	if s.Advisory != nil {
		suggested = s.Advisory.Suggest(ctx, plantID, symptomIDs)
	}

	d := &domain.Diagnosis{
		FarmerID:           farmerID,
		PlantID:            plantID,
		ObservedSymptomIDs: domain.IDList(symptomIDs),
		FarmerNotes:        notes,
		PreliminaryID:      preliminary,
		AISuggestedID:      suggested,
		Status:             domain.StatusPendingReview,
	}
	if err := s.Repo.CreateDiagnosis(ctx, s.DB, d); err != nil {
		return nil, err
	}
	return s.project(ctx, d.ID)
}

// Validate records an expert's verdict on a diagnosis. The status must be
// one of the expert-assignable values and the disease must exist. The
// previous best guess (AI suggestion if present, else preliminary, else
// none) is captured from the record as it stands before mutation; the
// diagnosis update and the validation upsert then happen in one transaction.
// A later validation of the same diagnosis overwrites the earlier one.
func (s *DiagnosisService) Validate(ctx context.Context, expertID, diagnosisID, diseaseID uint, status, notes string) (*DiagnosisView, error) {
	ctx, span := tracer.Start(ctx, "DiagnosisService.Validate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("diagnosis.id", int(diagnosisID)),
		attribute.String("diagnosis.status", status),
	)

	if !domain.ValidValidationStatus(status) {
		return nil, ErrInvalidStatus
	}
	if _, err := s.Repo.GetDisease(ctx, s.DB, diseaseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiseaseNotFound
		}
		return nil, err
	}

	current, err := s.Repo.GetDiagnosis(ctx, s.DB, diagnosisID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiagnosisNotFound
		}
		return nil, err
	}

	previous := current.AISuggestedID
	if previous == nil {
		previous = current.PreliminaryID
	}

	val := &domain.ExpertValidation{
		DiagnosisID:       diagnosisID,
		ExpertID:          expertID,
		PreviousDiseaseID: previous,
		NewDiseaseID:      diseaseID,
		ValidationStatus:  status,
		Notes:             notes,
		ValidatedAt:       time.Now().UTC(),
	}
	if err := s.Repo.ApplyValidation(ctx, s.DB, diagnosisID, &diseaseID, status, val); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiagnosisNotFound
		}
		return nil, err
	}
	return s.project(ctx, diagnosisID)
}

// Get returns the full projection of one diagnosis. Farmers may only read
// their own records; experts and admins may read any. A denied caller gets
// ErrAccessDenied, not a not-found.
func (s *DiagnosisService) Get(ctx context.Context, callerID uint, callerRole string, id uint) (*DiagnosisView, error) {
	d, err := s.Repo.GetDiagnosis(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiagnosisNotFound
		}
		return nil, err
	}
	if !access.AllowedOwner(callerRole, callerID, d.FarmerID) {
		return nil, ErrAccessDenied
	}
	return s.resolve(ctx, d)
}

// List returns projections of every diagnosis, newest first. Role gating
// (experts and admins only) is enforced at the HTTP layer.
func (s *DiagnosisService) List(ctx context.Context) ([]DiagnosisView, error) {
	ds, err := s.Repo.ListDiagnoses(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, ds), nil
}

// WorkflowStats summarizes the review queue.
type WorkflowStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// Stats returns per-status diagnosis counts. Statuses with no diagnoses are
// reported as zero so dashboards always see the full set.
func (s *DiagnosisService) Stats(ctx context.Context) (*WorkflowStats, error) {
	counts, err := s.Repo.CountDiagnosesByStatus(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := WorkflowStats{ByStatus: make(map[string]int64, len(domain.ValidationStatuses))}
	for _, st := range domain.ValidationStatuses {
		out.ByStatus[st] = counts[st]
		out.Total += counts[st]
	}
	return &out, nil
}

// ListByFarmer returns the diagnoses of one farmer, newest first. The farmer
// must exist; farmers may only list themselves.
func (s *DiagnosisService) ListByFarmer(ctx context.Context, callerID uint, callerRole string, farmerID uint) ([]DiagnosisView, error) {
	if !access.AllowedOwner(callerRole, callerID, farmerID) {
		return nil, ErrAccessDenied
	}
	if _, err := s.Repo.GetUser(ctx, s.DB, farmerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	ds, err := s.Repo.ListDiagnosesByFarmer(ctx, s.DB, farmerID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, ds), nil
}

// project reloads a diagnosis with relations and builds its view.
func (s *DiagnosisService) project(ctx context.Context, id uint) (*DiagnosisView, error) {
	d, err := s.Repo.GetDiagnosis(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, d)
}

// resolve builds the full view of a loaded diagnosis. Observed symptom names
// are looked up here rather than preloaded, since the id list is a JSON
// column.
func (s *DiagnosisService) resolve(ctx context.Context, d *domain.Diagnosis) (*DiagnosisView, error) {
	v := s.view(d)
	if len(d.ObservedSymptomIDs) > 0 {
		syms, err := s.Repo.FindSymptomsByIDs(ctx, s.DB, d.ObservedSymptomIDs)
		if err != nil {
			return nil, err
		}
		v.ObservedSymptoms = resolveSymptoms(d.ObservedSymptomIDs, syms)
	}
	return v, nil
}

func (s *DiagnosisService) views(ctx context.Context, ds []domain.Diagnosis) []DiagnosisView {
	out := make([]DiagnosisView, 0, len(ds))
	for i := range ds {
		v := s.view(&ds[i])
		if len(ds[i].ObservedSymptomIDs) > 0 {
			if syms, err := s.Repo.FindSymptomsByIDs(ctx, s.DB, ds[i].ObservedSymptomIDs); err == nil {
				v.ObservedSymptoms = resolveSymptoms(ds[i].ObservedSymptomIDs, syms)
			}
		}
		out = append(out, *v)
	}
	return out
}

func (s *DiagnosisService) view(d *domain.Diagnosis) *DiagnosisView {
	v := &DiagnosisView{
		ID:               d.ID,
		FarmerID:         d.FarmerID,
		FarmerName:       d.Farmer.Username,
		PlantID:          d.PlantID,
		PlantName:        d.Plant.Name,
		ObservedSymptoms: []SymptomRef{},
		FarmerNotes:      d.FarmerNotes,
		Preliminary:      diseaseRef(d.Preliminary),
		AISuggested:      diseaseRef(d.AISuggested),
		Final:            diseaseRef(d.Final),
		Status:           d.Status,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.Validation != nil {
		v.Validation = &ValidationView{
			ExpertID:          d.Validation.ExpertID,
			PreviousDiseaseID: d.Validation.PreviousDiseaseID,
			NewDiseaseID:      d.Validation.NewDiseaseID,
			Status:            d.Validation.ValidationStatus,
			Notes:             d.Validation.Notes,
			ValidatedAt:       d.Validation.ValidatedAt,
		}
	}
	return v
}

func diseaseRef(d *domain.Disease) *DiseaseRef {
	if d == nil {
		return nil
	}
	return &DiseaseRef{ID: d.ID, Name: d.Name}
}

// resolveSymptoms maps the ordered observed id list onto names, preserving
// the submission order and any duplicates.
func resolveSymptoms(ids domain.IDList, syms []domain.Symptom) []SymptomRef {
	byID := make(map[uint]string, len(syms))
	for _, s := range syms {
		byID[s.ID] = s.Name
	}
	out := make([]SymptomRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, SymptomRef{ID: id, Name: byID[id]})
	}
	return out
}
