// Package services – CatalogService
//
// This file implements the CatalogService, which manages the reference data
// the diagnosis workflow runs against: plants, symptoms, and diseases with
// their symptom associations. Catalog names are unique; duplicates surface
// as ErrDuplicateName so handlers can map them to a conflict response.
//
// Disease creation validates every referenced symptom first and then writes
// the disease together with its association rows in a single transaction,
// so a disease is never observable without its symptom set.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/agrosage/go-plant-backend/internal/domain"
)

// CatalogRepo defines the repository contract required by CatalogService.
type CatalogRepo interface {
	CreatePlant(ctx context.Context, db *gorm.DB, p *domain.Plant) error
	GetPlant(ctx context.Context, db *gorm.DB, id uint) (*domain.Plant, error)
	GetPlantByName(ctx context.Context, db *gorm.DB, name string) (*domain.Plant, error)
	ListPlants(ctx context.Context, db *gorm.DB) ([]domain.Plant, error)

	CreateSymptom(ctx context.Context, db *gorm.DB, s *domain.Symptom) error
	GetSymptom(ctx context.Context, db *gorm.DB, id uint) (*domain.Symptom, error)
	FindSymptomsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Symptom, error)
	ListSymptoms(ctx context.Context, db *gorm.DB) ([]domain.Symptom, error)
	UpdateSymptom(ctx context.Context, db *gorm.DB, s *domain.Symptom) error
	DeleteSymptom(ctx context.Context, db *gorm.DB, id uint) error

	CreateDiseaseWithSymptoms(ctx context.Context, db *gorm.DB, d *domain.Disease, symptomIDs []uint) error
	GetDisease(ctx context.Context, db *gorm.DB, id uint) (*domain.Disease, error)
	GetDiseaseByName(ctx context.Context, db *gorm.DB, name string) (*domain.Disease, error)
	ListDiseases(ctx context.Context, db *gorm.DB) ([]domain.Disease, error)
	ListDiseasesWithSymptoms(ctx context.Context, db *gorm.DB) ([]domain.Disease, error)
	ListDiseaseSymptoms(ctx context.Context, db *gorm.DB, diseaseID uint) ([]domain.DiseaseSymptom, error)
}

// CatalogService provides CRUD operations over plants, symptoms, and
// diseases. Authorization is enforced at the HTTP layer; this service only
// validates references and uniqueness.
type CatalogService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the catalog repository used by this service.
	Repo CatalogRepo
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB, r CatalogRepo) *CatalogService {
	return &CatalogService{DB: db, Repo: r}
}

// CreatePlant inserts a new plant. Duplicate names yield ErrDuplicateName.
func (s *CatalogService) CreatePlant(ctx context.Context, name, description, imageURL string) (*domain.Plant, error) {
	name = strings.TrimSpace(name)
	if err := s.checkNameFree(ctx, name, s.plantNameTaken); err != nil {
		return nil, err
	}
	p := &domain.Plant{Name: name, Description: description, ImageURL: imageURL}
	if err := s.Repo.CreatePlant(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlants returns all plants ordered by name.
func (s *CatalogService) ListPlants(ctx context.Context) ([]domain.Plant, error) {
	return s.Repo.ListPlants(ctx, s.DB)
}

// GetPlant returns one plant, or ErrPlantNotFound.
func (s *CatalogService) GetPlant(ctx context.Context, id uint) (*domain.Plant, error) {
	p, err := s.Repo.GetPlant(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlantNotFound
		}
		return nil, err
	}
	return p, nil
}

// CreateSymptom inserts a new symptom. Duplicate names yield
// ErrDuplicateName.
func (s *CatalogService) CreateSymptom(ctx context.Context, name, description, typ string) (*domain.Symptom, error) {
	name = strings.TrimSpace(name)
	if err := s.checkNameFree(ctx, name, s.symptomNameTaken); err != nil {
		return nil, err
	}
	sym := &domain.Symptom{Name: name, Description: description, Type: typ}
	if err := s.Repo.CreateSymptom(ctx, s.DB, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// GetSymptom returns one symptom, or ErrSymptomNotFound.
func (s *CatalogService) GetSymptom(ctx context.Context, id uint) (*domain.Symptom, error) {
	sym, err := s.Repo.GetSymptom(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSymptomNotFound
		}
		return nil, err
	}
	return sym, nil
}

// ListSymptoms returns all symptoms.
func (s *CatalogService) ListSymptoms(ctx context.Context) ([]domain.Symptom, error) {
	return s.Repo.ListSymptoms(ctx, s.DB)
}

// UpdateSymptom replaces the mutable fields of a symptom. Blank fields keep
// their current value.
func (s *CatalogService) UpdateSymptom(ctx context.Context, id uint, name, description, typ string) (*domain.Symptom, error) {
	sym, err := s.GetSymptom(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" && name != sym.Name {
		if err := s.checkNameFree(ctx, name, s.symptomNameTaken); err != nil {
			return nil, err
		}
		sym.Name = name
	}
	if description != "" {
		sym.Description = description
	}
	if typ != "" {
		sym.Type = typ
	}
	if err := s.Repo.UpdateSymptom(ctx, s.DB, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// DeleteSymptom removes a symptom, or ErrSymptomNotFound.
func (s *CatalogService) DeleteSymptom(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteSymptom(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSymptomNotFound
		}
		return err
	}
	return nil
}

// CreateDisease inserts a disease together with its symptom associations.
// Every symptom id must exist, the name must be free, and the disease plus
// its join rows are written in one transaction.
func (s *CatalogService) CreateDisease(ctx context.Context, name, description, symptomsDescription, treatment string, symptomIDs []uint) (*domain.Disease, error) {
	name = strings.TrimSpace(name)
	if err := s.checkNameFree(ctx, name, s.diseaseNameTaken); err != nil {
		return nil, err
	}
	if len(symptomIDs) > 0 {
		if err := s.checkSymptomsExist(ctx, symptomIDs); err != nil {
			return nil, err
		}
	}

	d := &domain.Disease{
		Name:                     name,
		Description:              description,
		SymptomsDescription:      symptomsDescription,
		TreatmentRecommendations: treatment,
	}
	if err := s.Repo.CreateDiseaseWithSymptoms(ctx, s.DB, d, dedupe(symptomIDs)); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDisease returns one disease, or ErrDiseaseNotFound.
func (s *CatalogService) GetDisease(ctx context.Context, id uint) (*domain.Disease, error) {
	d, err := s.Repo.GetDisease(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiseaseNotFound
		}
		return nil, err
	}
	return d, nil
}

// DiseaseSymptomRef is a symptom associated to a disease, annotated with
// the severity level of that particular pair.
type DiseaseSymptomRef struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type,omitempty"`
	SeverityLevel string `json:"severity_level"`
}

// DiseaseView is the listing projection of a disease: the catalog prose
// plus its symptom set with per-pair severities.
type DiseaseView struct {
	ID                       uint                `json:"id"`
	Name                     string              `json:"name"`
	Description              string              `json:"description"`
	SymptomsDescription      string              `json:"symptoms_description"`
	TreatmentRecommendations string              `json:"treatment_recommendations"`
	Symptoms                 []DiseaseSymptomRef `json:"symptoms"`
	CreatedAt                time.Time           `json:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at"`
}

// ListDiseases returns all diseases ordered by name, each with its symptom
// associations and the severity recorded on the join row.
func (s *CatalogService) ListDiseases(ctx context.Context) ([]DiseaseView, error) {
	diseases, err := s.Repo.ListDiseasesWithSymptoms(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := make([]DiseaseView, 0, len(diseases))
	for i := range diseases {
		d := &diseases[i]
		joins, err := s.Repo.ListDiseaseSymptoms(ctx, s.DB, d.ID)
		if err != nil {
			return nil, err
		}
		severity := make(map[uint]string, len(joins))
		for _, j := range joins {
			severity[j.SymptomID] = j.SeverityLevel
		}
		v := DiseaseView{
			ID:                       d.ID,
			Name:                     d.Name,
			Description:              d.Description,
			SymptomsDescription:      d.SymptomsDescription,
			TreatmentRecommendations: d.TreatmentRecommendations,
			Symptoms:                 make([]DiseaseSymptomRef, 0, len(d.Symptoms)),
			CreatedAt:                d.CreatedAt,
			UpdatedAt:                d.UpdatedAt,
		}
		for _, sym := range d.Symptoms {
			v.Symptoms = append(v.Symptoms, DiseaseSymptomRef{
				ID:            sym.ID,
				Name:          sym.Name,
				Type:          sym.Type,
				SeverityLevel: severity[sym.ID],
			})
		}
		out = append(out, v)
	}
	return out, nil
}

// NameResolver builds a disease name -> id lookup from the current catalog.
// The rule engine and advisory client both consume the returned function.
func (s *CatalogService) NameResolver(ctx context.Context) (func(name string) (uint, bool), error) {
	diseases, err := s.Repo.ListDiseases(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]uint, len(diseases))
	for _, d := range diseases {
		byName[d.Name] = d.ID
	}
	return func(name string) (uint, bool) {
		id, ok := byName[name]
		return id, ok
	}, nil
}

func (s *CatalogService) checkSymptomsExist(ctx context.Context, ids []uint) error {
	distinct := dedupe(ids)
	found, err := s.Repo.FindSymptomsByIDs(ctx, s.DB, distinct)
	if err != nil {
		return err
	}
	if len(found) != len(distinct) {
		return ErrSymptomNotFound
	}
	return nil
}

type nameLookup func(ctx context.Context, name string) (bool, error)

func (s *CatalogService) plantNameTaken(ctx context.Context, name string) (bool, error) {
	_, err := s.Repo.GetPlantByName(ctx, s.DB, name)
	return lookupHit(err)
}

func (s *CatalogService) symptomNameTaken(ctx context.Context, name string) (bool, error) {
	syms, err := s.Repo.ListSymptoms(ctx, s.DB)
	if err != nil {
		return false, err
	}
	for _, sym := range syms {
		if sym.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *CatalogService) diseaseNameTaken(ctx context.Context, name string) (bool, error) {
	_, err := s.Repo.GetDiseaseByName(ctx, s.DB, name)
	return lookupHit(err)
}

func (s *CatalogService) checkNameFree(ctx context.Context, name string, taken nameLookup) error {
	if name == "" {
		return ErrEmptyName
	}
	hit, err := taken(ctx, name)
	if err != nil {
		return err
	}
	if hit {
		return ErrDuplicateName
	}
	return nil
}

func lookupHit(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, err
	}
}

// dedupe returns ids with later duplicates removed, preserving first-seen
// order.
func dedupe(ids []uint) []uint {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
