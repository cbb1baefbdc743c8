// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, compression,
// CORS, security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Authorization at the edge: role gates wrap routes, ownership checks
//     live in the services
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/agrosage/go-plant-backend/internal/config"
	"github.com/agrosage/go-plant-backend/internal/domain"
	"github.com/agrosage/go-plant-backend/internal/http/handlers"
	"github.com/agrosage/go-plant-backend/internal/http/middleware"
	"github.com/agrosage/go-plant-backend/internal/repo"
	"github.com/agrosage/go-plant-backend/internal/services"
)

// repoShim adapts the repository free functions to the service interfaces.
// This keeps services decoupled from the concrete repo package while reusing
// the existing functions.
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

// Deps carries the non-repository dependencies injected into the router.
type Deps struct {
	// Tokens verifies bearer tokens and satisfies services.TokenIssuer.
	Tokens interface {
		middleware.TokenVerifier
		services.TokenIssuer
	}
	// Rules produces preliminary guesses for submissions.
	Rules services.RuleEvaluator
	// Advisory produces optional AI suggestions. May be nil.
	Advisory services.AdvisorySuggester
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics and /metrics endpoint
//  8. Rate limiter (per user/IP)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db
	userSvc := services.NewUserService(db, repoShim{}, deps.Tokens)
	catalogSvc := services.NewCatalogService(db, repoShim{})
	diagnosisSvc := services.NewDiagnosisService(db, repoShim{}, deps.Rules, deps.Advisory)
	h := handlers.New(userSvc, catalogSvc, diagnosisSvc)

	authed := middleware.Authentication(deps.Tokens)
	experts := middleware.RequireRoles(domain.RoleExpert, domain.RoleAdmin)
	admins := middleware.RequireRoles(domain.RoleAdmin)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Accounts
		api.POST("/auth/register", h.RegisterUser)
		api.POST("/auth/login", h.LoginUser)
		api.GET("/auth/me", authed, h.Me)

		// Catalog
		api.POST("/plants", authed, admins, h.CreatePlant)
		api.GET("/plants", authed, h.ListPlants)

		api.POST("/symptoms", authed, admins, h.CreateSymptom)
		api.GET("/symptoms", authed, h.ListSymptoms)
		api.GET("/symptoms/:id", authed, h.GetSymptom)
		api.PUT("/symptoms/:id", authed, admins, h.UpdateSymptom)
		api.DELETE("/symptoms/:id", authed, admins, h.DeleteSymptom)

		api.POST("/diseases", authed, admins, h.CreateDisease)
		api.GET("/diseases", authed, h.ListDiseases)

		// Diagnosis workflow
		api.POST("/diagnoses", authed, h.SubmitDiagnosis)
		api.GET("/diagnoses", authed, experts, h.ListDiagnoses)
		api.GET("/diagnoses/stats", authed, experts, h.GetDiagnosisStats)
		api.GET("/diagnoses/:id", authed, h.GetDiagnosis)
		api.PUT("/diagnoses/:id/validate", authed, experts, h.ValidateDiagnosis)
		api.GET("/farmers/:farmerId/diagnoses", authed, h.ListFarmerDiagnoses)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the
// cap will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
