package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agrosage/go-plant-backend/internal/domain"
	"github.com/agrosage/go-plant-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Plant{},
		&domain.Symptom{},
		&domain.Disease{},
		&domain.DiseaseSymptom{},
		&domain.Diagnosis{},
		&domain.ExpertValidation{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// repoShim adapts the repository free functions to the service interfaces.
type repoShim struct{}

func (repoShim) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}
func (repoShim) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}
func (repoShim) GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return repo.GetUserByUsername(ctx, db, username)
}
func (repoShim) CreatePlant(ctx context.Context, db *gorm.DB, p *domain.Plant) error {
	return repo.CreatePlant(ctx, db, p)
}
func (repoShim) GetPlant(ctx context.Context, db *gorm.DB, id uint) (*domain.Plant, error) {
	return repo.GetPlant(ctx, db, id)
}
func (repoShim) GetPlantByName(ctx context.Context, db *gorm.DB, name string) (*domain.Plant, error) {
	return repo.GetPlantByName(ctx, db, name)
}
func (repoShim) ListPlants(ctx context.Context, db *gorm.DB) ([]domain.Plant, error) {
	return repo.ListPlants(ctx, db)
}
func (repoShim) CreateSymptom(ctx context.Context, db *gorm.DB, s *domain.Symptom) error {
	return repo.CreateSymptom(ctx, db, s)
}
func (repoShim) GetSymptom(ctx context.Context, db *gorm.DB, id uint) (*domain.Symptom, error) {
	return repo.GetSymptom(ctx, db, id)
}
func (repoShim) FindSymptomsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Symptom, error) {
	return repo.FindSymptomsByIDs(ctx, db, ids)
}
func (repoShim) ListSymptoms(ctx context.Context, db *gorm.DB) ([]domain.Symptom, error) {
	return repo.ListSymptoms(ctx, db)
}
func (repoShim) UpdateSymptom(ctx context.Context, db *gorm.DB, s *domain.Symptom) error {
	return repo.UpdateSymptom(ctx, db, s)
}
func (repoShim) DeleteSymptom(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteSymptom(ctx, db, id)
}
func (repoShim) CreateDiseaseWithSymptoms(ctx context.Context, db *gorm.DB, d *domain.Disease, symptomIDs []uint) error {
	return repo.CreateDiseaseWithSymptoms(ctx, db, d, symptomIDs)
}
func (repoShim) GetDisease(ctx context.Context, db *gorm.DB, id uint) (*domain.Disease, error) {
	return repo.GetDisease(ctx, db, id)
}
func (repoShim) GetDiseaseByName(ctx context.Context, db *gorm.DB, name string) (*domain.Disease, error) {
	return repo.GetDiseaseByName(ctx, db, name)
}
func (repoShim) ListDiseases(ctx context.Context, db *gorm.DB) ([]domain.Disease, error) {
	return repo.ListDiseases(ctx, db)
}
func (repoShim) ListDiseasesWithSymptoms(ctx context.Context, db *gorm.DB) ([]domain.Disease, error) {
	return repo.ListDiseasesWithSymptoms(ctx, db)
}

func (repoShim) ListDiseaseSymptoms(ctx context.Context, db *gorm.DB, diseaseID uint) ([]domain.DiseaseSymptom, error) {
	return repo.ListDiseaseSymptoms(ctx, db, diseaseID)
}
func (repoShim) CreateDiagnosis(ctx context.Context, db *gorm.DB, d *domain.Diagnosis) error {
	return repo.CreateDiagnosis(ctx, db, d)
}
func (repoShim) GetDiagnosis(ctx context.Context, db *gorm.DB, id uint) (*domain.Diagnosis, error) {
	return repo.GetDiagnosis(ctx, db, id)
}
func (repoShim) ListDiagnoses(ctx context.Context, db *gorm.DB) ([]domain.Diagnosis, error) {
	return repo.ListDiagnoses(ctx, db)
}
func (repoShim) ListDiagnosesByFarmer(ctx context.Context, db *gorm.DB, farmerID uint) ([]domain.Diagnosis, error) {
	return repo.ListDiagnosesByFarmer(ctx, db, farmerID)
}
func (repoShim) ApplyValidation(ctx context.Context, db *gorm.DB, diagnosisID uint, finalDiseaseID *uint, status string, val *domain.ExpertValidation) error {
	return repo.ApplyValidation(ctx, db, diagnosisID, finalDiseaseID, status, val)
}

func (repoShim) CountDiagnosesByStatus(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	return repo.CountDiagnosesByStatus(ctx, db)
}

// staticTokens is a TokenIssuer returning a fixed string.
type staticTokens struct{}

func (staticTokens) Issue(userID uint, username, role string) (string, error) {
	return fmt.Sprintf("token-%d-%s", userID, role), nil
}
