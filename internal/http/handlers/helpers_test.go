package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agrosage/go-plant-backend/internal/domain"
	"github.com/agrosage/go-plant-backend/internal/http/middleware"
	"github.com/agrosage/go-plant-backend/internal/repo"
)

// ---------- test DB + repo shim ----------

func newHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:plant_handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{}, &domain.Plant{}, &domain.Symptom{},
		&domain.Disease{}, &domain.DiseaseSymptom{},
		&domain.Diagnosis{}, &domain.ExpertValidation{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Shim implementing the service repo interfaces via the repo package, the
// same way the router wires them.
type testRepo struct{}

func (testRepo) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

func (testRepo) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (testRepo) GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return repo.GetUserByUsername(ctx, db, username)
}

func (testRepo) CreatePlant(ctx context.Context, db *gorm.DB, p *domain.Plant) error {
	return repo.CreatePlant(ctx, db, p)
}

func (testRepo) GetPlant(ctx context.Context, db *gorm.DB, id uint) (*domain.Plant, error) {
	return repo.GetPlant(ctx, db, id)
}

func (testRepo) GetPlantByName(ctx context.Context, db *gorm.DB, name string) (*domain.Plant, error) {
	return repo.GetPlantByName(ctx, db, name)
}

func (testRepo) ListPlants(ctx context.Context, db *gorm.DB) ([]domain.Plant, error) {
	return repo.ListPlants(ctx, db)
}

func (testRepo) CreateSymptom(ctx context.Context, db *gorm.DB, s *domain.Symptom) error {
	return repo.CreateSymptom(ctx, db, s)
}

func (testRepo) GetSymptom(ctx context.Context, db *gorm.DB, id uint) (*domain.Symptom, error) {
	return repo.GetSymptom(ctx, db, id)
}

func (testRepo) FindSymptomsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Symptom, error) {
	return repo.FindSymptomsByIDs(ctx, db, ids)
}

func (testRepo) ListSymptoms(ctx context.Context, db *gorm.DB) ([]domain.Symptom, error) {
	return repo.ListSymptoms(ctx, db)
}

func (testRepo) UpdateSymptom(ctx context.Context, db *gorm.DB, s *domain.Symptom) error {
	return repo.UpdateSymptom(ctx, db, s)
}

func (testRepo) DeleteSymptom(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteSymptom(ctx, db, id)
}

func (testRepo) CreateDiseaseWithSymptoms(ctx context.Context, db *gorm.DB, d *domain.Disease, symptomIDs []uint) error {
	return repo.CreateDiseaseWithSymptoms(ctx, db, d, symptomIDs)
}

func (testRepo) GetDisease(ctx context.Context, db *gorm.DB, id uint) (*domain.Disease, error) {
	return repo.GetDisease(ctx, db, id)
}

func (testRepo) GetDiseaseByName(ctx context.Context, db *gorm.DB, name string) (*domain.Disease, error) {
	return repo.GetDiseaseByName(ctx, db, name)
}

func (testRepo) ListDiseases(ctx context.Context, db *gorm.DB) ([]domain.Disease, error) {
	return repo.ListDiseases(ctx, db)
}

func (testRepo) ListDiseasesWithSymptoms(ctx context.Context, db *gorm.DB) ([]domain.Disease, error) {
	return repo.ListDiseasesWithSymptoms(ctx, db)
}

func (testRepo) ListDiseaseSymptoms(ctx context.Context, db *gorm.DB, diseaseID uint) ([]domain.DiseaseSymptom, error) {
	return repo.ListDiseaseSymptoms(ctx, db, diseaseID)
}

func (testRepo) CreateDiagnosis(ctx context.Context, db *gorm.DB, d *domain.Diagnosis) error {
	return repo.CreateDiagnosis(ctx, db, d)
}

func (testRepo) GetDiagnosis(ctx context.Context, db *gorm.DB, id uint) (*domain.Diagnosis, error) {
	return repo.GetDiagnosis(ctx, db, id)
}

func (testRepo) ListDiagnoses(ctx context.Context, db *gorm.DB) ([]domain.Diagnosis, error) {
	return repo.ListDiagnoses(ctx, db)
}

func (testRepo) ListDiagnosesByFarmer(ctx context.Context, db *gorm.DB, farmerID uint) ([]domain.Diagnosis, error) {
	return repo.ListDiagnosesByFarmer(ctx, db, farmerID)
}

func (testRepo) ApplyValidation(ctx context.Context, db *gorm.DB, diagnosisID uint, finalDiseaseID *uint, status string, val *domain.ExpertValidation) error {
	return repo.ApplyValidation(ctx, db, diagnosisID, finalDiseaseID, status, val)
}

func (testRepo) CountDiagnosesByStatus(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	return repo.CountDiagnosesByStatus(ctx, db)
}

// ---------- identity + request helpers ----------

// as fakes an authenticated caller the way the auth middleware would.
func as(id uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, id)
		c.Set(middleware.UsernameKey, fmt.Sprintf("user%d", id))
		c.Set(middleware.RoleKey, role)
		c.Next()
	}
}

// staticIssuer mints predictable tokens for login tests.
type staticIssuer struct{}

func (staticIssuer) Issue(userID uint, username, role string) (string, error) {
	return fmt.Sprintf("token-%d-%s", userID, role), nil
}

// fixedRules always guesses the configured disease id (nil means no guess).
type fixedRules struct{ id *uint }

func (f fixedRules) Evaluate(plantID uint, observed []uint) *uint { return f.id }

// fixedAdvisory always suggests the configured disease id.
type fixedAdvisory struct{ id *uint }

func (f fixedAdvisory) Suggest(ctx context.Context, plantID uint, symptomIDs []uint) *uint {
	return f.id
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Buffer
	if body == "" {
		rd = bytes.NewBuffer(nil)
	} else {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return out
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Code
}
