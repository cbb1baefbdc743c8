// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the reference
// catalog: plants, symptoms, diseases, and the disease↔symptom association.
//
// Functions:
//
//   - CreatePlant / GetPlant / GetPlantByName / ListPlants
//   - CreateSymptom / GetSymptom / FindSymptomsByIDs / ListSymptoms /
//     UpdateSymptom / DeleteSymptom
//   - CreateDiseaseWithSymptoms: creates a disease and its join rows in one
//     transaction, so the disease is never observable without its symptoms.
//   - GetDisease / GetDiseaseByName / ListDiseasesWithSymptoms / ListDiseases
//
// Error semantics follow the package convention: gorm.ErrRecordNotFound
// (aliased as ErrNotFound) for missing rows, raw gorm errors otherwise.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/agrosage/go-plant-backend/internal/domain"
)

// CreatePlant inserts a new plant row.
func CreatePlant(ctx context.Context, db *gorm.DB, p *domain.Plant) error {
	return db.WithContext(ctx).Create(p).Error
}

// GetPlant fetches a plant by id, or ErrNotFound.
func GetPlant(ctx context.Context, db *gorm.DB, id uint) (*domain.Plant, error) {
	var p domain.Plant
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlantByName fetches a plant by its unique name, or ErrNotFound.
func GetPlantByName(ctx context.Context, db *gorm.DB, name string) (*domain.Plant, error) {
	var p domain.Plant
	if err := db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlants returns all plants ordered by name ascending.
func ListPlants(ctx context.Context, db *gorm.DB) ([]domain.Plant, error) {
	var out []domain.Plant
	err := db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// CreateSymptom inserts a new symptom row.
func CreateSymptom(ctx context.Context, db *gorm.DB, s *domain.Symptom) error {
	return db.WithContext(ctx).Create(s).Error
}

// GetSymptom fetches a symptom by id, or ErrNotFound.
func GetSymptom(ctx context.Context, db *gorm.DB, id uint) (*domain.Symptom, error) {
	var s domain.Symptom
	if err := db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSymptomsByIDs returns the symptoms matching the given ids. Callers
// detect unknown references by comparing result size against the distinct
// ids supplied.
func FindSymptomsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Symptom, error) {
	var out []domain.Symptom
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// ListSymptoms returns all symptoms in primary-key order.
func ListSymptoms(ctx context.Context, db *gorm.DB) ([]domain.Symptom, error) {
	var out []domain.Symptom
	err := db.WithContext(ctx).Find(&out).Error
	return out, err
}

// UpdateSymptom persists changes to an existing symptom row.
func UpdateSymptom(ctx context.Context, db *gorm.DB, s *domain.Symptom) error {
	return db.WithContext(ctx).Save(s).Error
}

// DeleteSymptom removes a symptom by id. Returns ErrNotFound when no row
// was deleted.
func DeleteSymptom(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Symptom{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateDiseaseWithSymptoms inserts a disease together with its symptom
// associations in a single transaction. There is no intermediate state in
// which the disease exists without its symptom set.
func CreateDiseaseWithSymptoms(ctx context.Context, db *gorm.DB, d *domain.Disease, symptomIDs []uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		for _, sid := range symptomIDs {
			js := domain.DiseaseSymptom{DiseaseID: d.ID, SymptomID: sid}
			if err := tx.Create(&js).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDisease fetches a disease by id, or ErrNotFound.
func GetDisease(ctx context.Context, db *gorm.DB, id uint) (*domain.Disease, error) {
	var d domain.Disease
	if err := db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDiseaseByName fetches a disease by its unique name, or ErrNotFound.
func GetDiseaseByName(ctx context.Context, db *gorm.DB, name string) (*domain.Disease, error) {
	var d domain.Disease
	if err := db.WithContext(ctx).Where("name = ?", name).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDiseases returns all diseases (without associations) ordered by name.
func ListDiseases(ctx context.Context, db *gorm.DB) ([]domain.Disease, error) {
	var out []domain.Disease
	err := db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// ListDiseasesWithSymptoms returns all diseases with their symptom
// associations preloaded, ordered by name ascending.
func ListDiseasesWithSymptoms(ctx context.Context, db *gorm.DB) ([]domain.Disease, error) {
	var out []domain.Disease
	err := db.WithContext(ctx).
		Preload("Symptoms").
		Order("name asc").
		Find(&out).Error
	return out, err
}

// ListDiseaseSymptoms returns the join rows for a disease, including the
// severity annotation per pair.
func ListDiseaseSymptoms(ctx context.Context, db *gorm.DB, diseaseID uint) ([]domain.DiseaseSymptom, error) {
	var out []domain.DiseaseSymptom
	err := db.WithContext(ctx).Where("disease_id = ?", diseaseID).Find(&out).Error
	return out, err
}
