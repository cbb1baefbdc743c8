// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Diagnosis
// model and its expert validation record.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving workflow rules to the services package. The one
// multi-statement operation, ApplyValidation, runs inside a transaction so a
// diagnosis update and its validation record stay consistent.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agrosage/go-plant-backend/internal/domain"
)

// CreateDiagnosis inserts a new diagnosis record.
func CreateDiagnosis(ctx context.Context, db *gorm.DB, d *domain.Diagnosis) error {
	return db.WithContext(ctx).Create(d).Error
}

// GetDiagnosis fetches a diagnosis by id with its relations preloaded,
// or ErrNotFound.
func GetDiagnosis(ctx context.Context, db *gorm.DB, id uint) (*domain.Diagnosis, error) {
	var d domain.Diagnosis
	err := db.WithContext(ctx).
		Preload("Farmer").
		Preload("Plant").
		Preload("Preliminary").
		Preload("AISuggested").
		Preload("Final").
		Preload("Validation").
		First(&d, id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDiagnoses returns all diagnoses, newest first, with relations
// preloaded.
func ListDiagnoses(ctx context.Context, db *gorm.DB) ([]domain.Diagnosis, error) {
	var out []domain.Diagnosis
	err := db.WithContext(ctx).
		Preload("Farmer").
		Preload("Plant").
		Preload("Preliminary").
		Preload("AISuggested").
		Preload("Final").
		Preload("Validation").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListDiagnosesByFarmer returns the diagnoses submitted by one farmer,
// newest first, with relations preloaded.
func ListDiagnosesByFarmer(ctx context.Context, db *gorm.DB, farmerID uint) ([]domain.Diagnosis, error) {
	var out []domain.Diagnosis
	err := db.WithContext(ctx).
		Preload("Farmer").
		Preload("Plant").
		Preload("Preliminary").
		Preload("AISuggested").
		Preload("Final").
		Preload("Validation").
		Where("farmer_id = ?", farmerID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ApplyValidation atomically updates a diagnosis with the expert's decision
// and upserts the one validation record per diagnosis. A repeated validation
// of the same diagnosis overwrites the prior record (last writer wins).
func ApplyValidation(ctx context.Context, db *gorm.DB, diagnosisID uint, finalDiseaseID *uint, status string, val *domain.ExpertValidation) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Diagnosis{}).
			Where("id = ?", diagnosisID).
			Updates(map[string]any{
				"final_disease_id": finalDiseaseID,
				"status":           status,
				"updated_at":       time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var existing domain.ExpertValidation
		err := tx.Where("diagnosis_id = ?", diagnosisID).First(&existing).Error
		switch {
		case err == nil:
			val.ID = existing.ID
			return tx.Save(val).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(val).Error
		default:
			return err
		}
	})
}

// CountDiagnosesByStatus returns a status -> count map over all diagnoses.
func CountDiagnosesByStatus(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := db.WithContext(ctx).
		Model(&domain.Diagnosis{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
