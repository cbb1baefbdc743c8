package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/agrosage/go-plant-backend/internal/domain"
	"github.com/agrosage/go-plant-backend/internal/services"
)

// seedCatalog inserts a plant, two symptoms, and two diseases so submissions
// have something to reference.
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, m := range []any{
		&domain.Plant{Name: "Tomato"},
		&domain.Symptom{Name: "Leaf Spot"},
		&domain.Symptom{Name: "Wilting"},
		&domain.Disease{Name: "Early Blight"},
		&domain.Disease{Name: "Powdery Mildew"},
		&domain.User{Username: "farmer1", PasswordHash: "x", Role: domain.RoleFarmer},
		&domain.User{Username: "farmer2", PasswordHash: "x", Role: domain.RoleFarmer},
		&domain.User{Username: "expert1", PasswordHash: "x", Role: domain.RoleExpert},
	} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed %T: %v", m, err)
		}
	}
}

// newDiagnosisRouter mounts the workflow routes with a per-route identity,
// mirroring what the auth middleware provides in production.
func newDiagnosisRouter(t *testing.T, rules services.RuleEvaluator, adv services.AdvisorySuggester) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlersDB(t)
	seedCatalog(t, db)

	svc := services.NewDiagnosisService(db, testRepo{}, rules, adv)
	h := New(nil, nil, svc)

	r := gin.New()
	mount := func(id uint, role, prefix string) {
		g := r.Group(prefix, as(id, role))
		g.POST("/diagnoses", h.SubmitDiagnosis)
		g.GET("/diagnoses", h.ListDiagnoses)
		g.GET("/diagnoses/stats", h.GetDiagnosisStats)
		g.GET("/diagnoses/:id", h.GetDiagnosis)
		g.PUT("/diagnoses/:id/validate", h.ValidateDiagnosis)
		g.GET("/farmers/:farmerId/diagnoses", h.ListFarmerDiagnoses)
	}
	mount(1, domain.RoleFarmer, "/as-farmer1")
	mount(2, domain.RoleFarmer, "/as-farmer2")
	mount(3, domain.RoleExpert, "/as-expert")
	return r, db
}

func TestGetDiagnosisStats(t *testing.T) {
	prelim := uint(1)
	r, _ := newDiagnosisRouter(t, fixedRules{id: &prelim}, nil)

	for i := 0; i < 3; i++ {
		doJSON(t, r, http.MethodPost, "/as-farmer1/diagnoses", `{"plant_id":1,"symptom_ids":[1]}`)
	}
	doJSON(t, r, http.MethodPut, "/as-expert/diagnoses/1/validate",
		`{"expert_diagnosis_id":1,"validation_status":"validated"}`)
	doJSON(t, r, http.MethodPut, "/as-expert/diagnoses/2/validate",
		`{"expert_diagnosis_id":1,"validation_status":"rejected"}`)

	w := doJSON(t, r, http.MethodGet, "/as-expert/diagnoses/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats -> %d body=%s", w.Code, w.Body.String())
	}
	stats := decode[services.WorkflowStats](t, w)
	if stats.Total != 3 {
		t.Fatalf("total = %d", stats.Total)
	}
	want := map[string]int64{
		domain.StatusPendingReview: 1,
		domain.StatusValidated:     1,
		domain.StatusRejected:      1,
		domain.StatusNeedsMoreInfo: 0,
	}
	for st, n := range want {
		if stats.ByStatus[st] != n {
			t.Fatalf("by_status[%s] = %d, want %d", st, stats.ByStatus[st], n)
		}
	}
}

func TestSubmitDiagnosis(t *testing.T) {
	prelim := uint(1)
	sugg := uint(2)
	r, _ := newDiagnosisRouter(t, fixedRules{id: &prelim}, fixedAdvisory{id: &sugg})

	w := doJSON(t, r, http.MethodPost, "/as-farmer1/diagnoses", "{bad")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad json -> %d", w.Code)
	}

	// Empty symptom set
	w = doJSON(t, r, http.MethodPost, "/as-farmer1/diagnoses", `{"plant_id":1,"symptom_ids":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty symptoms -> %d body=%s", w.Code, w.Body.String())
	}

	// Unknown plant
	w = doJSON(t, r, http.MethodPost, "/as-farmer1/diagnoses", `{"plant_id":99,"symptom_ids":[1]}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown plant -> %d", w.Code)
	}

	// Success carries both guesses and starts pending
	w = doJSON(t, r, http.MethodPost, "/as-farmer1/diagnoses",
		`{"plant_id":1,"symptom_ids":[1,2],"notes":"after the rain"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit -> %d body=%s", w.Code, w.Body.String())
	}
	v := decode[services.DiagnosisView](t, w)
	if v.FarmerID != 1 || v.PlantName != "Tomato" || v.Status != domain.StatusPendingReview {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Preliminary == nil || v.Preliminary.Name != "Early Blight" {
		t.Fatalf("preliminary = %+v", v.Preliminary)
	}
	if v.AISuggested == nil || v.AISuggested.Name != "Powdery Mildew" {
		t.Fatalf("ai suggested = %+v", v.AISuggested)
	}
	if v.Final != nil || v.Validation != nil {
		t.Fatalf("fresh submission must have no verdict: %+v", v)
	}
}

func TestGetDiagnosis_Ownership(t *testing.T) {
	r, _ := newDiagnosisRouter(t, fixedRules{}, nil)

	w := doJSON(t, r, http.MethodPost, "/as-farmer1/diagnoses", `{"plant_id":1,"symptom_ids":[1,2]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit -> %d", w.Code)
	}

	// Owner reads it, with symptom names resolved
	w = doJSON(t, r, http.MethodGet, "/as-farmer1/diagnoses/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("owner get -> %d", w.Code)
	}
	v := decode[services.DiagnosisView](t, w)
	if len(v.ObservedSymptoms) != 2 ||
		v.ObservedSymptoms[0].Name != "Leaf Spot" ||
		v.ObservedSymptoms[1].Name != "Wilting" {
		t.Fatalf("observed symptoms not resolved: %+v", v.ObservedSymptoms)
	}
	// Another farmer gets 403, not 404
	w = doJSON(t, r, http.MethodGet, "/as-farmer2/diagnoses/1", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("other farmer get -> %d", w.Code)
	}
	if errCode(t, w) != ErrCodeForbidden {
		t.Fatalf("code = %q", errCode(t, w))
	}
	// Experts read anything
	if w = doJSON(t, r, http.MethodGet, "/as-expert/diagnoses/1", ""); w.Code != http.StatusOK {
		t.Fatalf("expert get -> %d", w.Code)
	}
	// Unknown id
	if w = doJSON(t, r, http.MethodGet, "/as-expert/diagnoses/42", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing get -> %d", w.Code)
	}
}

func TestValidateDiagnosis(t *testing.T) {
	prelim := uint(1)
	r, _ := newDiagnosisRouter(t, fixedRules{id: &prelim}, nil)

	doJSON(t, r, http.MethodPost, "/as-farmer1/diagnoses", `{"plant_id":1,"symptom_ids":[1,2]}`)

	// Status outside the whitelist
	w := doJSON(t, r, http.MethodPut, "/as-expert/diagnoses/1/validate",
		`{"expert_diagnosis_id":2,"validation_status":"approved"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status -> %d body=%s", w.Code, w.Body.String())
	}
	if errCode(t, w) != ErrCodeInvalidStatus {
		t.Fatalf("code = %q", errCode(t, w))
	}

	// Unknown disease
	w = doJSON(t, r, http.MethodPut, "/as-expert/diagnoses/1/validate",
		`{"expert_diagnosis_id":99,"validation_status":"validated"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown disease -> %d", w.Code)
	}

	// Verdict lands: final disease, status, and validation block
	w = doJSON(t, r, http.MethodPut, "/as-expert/diagnoses/1/validate",
		`{"expert_diagnosis_id":2,"validation_status":"validated","expert_notes":"leaf sample"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("validate -> %d body=%s", w.Code, w.Body.String())
	}
	v := decode[services.DiagnosisView](t, w)
	if v.Status != domain.StatusValidated {
		t.Fatalf("status = %q", v.Status)
	}
	if v.Final == nil || v.Final.Name != "Powdery Mildew" {
		t.Fatalf("final = %+v", v.Final)
	}
	if v.Validation == nil || v.Validation.ExpertID != 3 || v.Validation.Notes != "leaf sample" {
		t.Fatalf("validation = %+v", v.Validation)
	}
	if v.Validation.PreviousDiseaseID == nil || *v.Validation.PreviousDiseaseID != 1 {
		t.Fatalf("previous = %v", v.Validation.PreviousDiseaseID)
	}

	// Unknown diagnosis
	w = doJSON(t, r, http.MethodPut, "/as-expert/diagnoses/42/validate",
		`{"expert_diagnosis_id":2,"validation_status":"rejected"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing diagnosis -> %d", w.Code)
	}
}

func TestListDiagnoses_Paging(t *testing.T) {
	r, _ := newDiagnosisRouter(t, fixedRules{}, nil)

	for i := 0; i < 5; i++ {
		w := doJSON(t, r, http.MethodPost, "/as-farmer1/diagnoses", `{"plant_id":1,"symptom_ids":[1]}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("submit %d -> %d", i, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/as-expert/diagnoses?page=2&page_size=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	out := decode[DiagnosisListResponse](t, w)
	if out.Pagination.Total != 5 || out.Pagination.Page != 2 || out.Pagination.PageSize != 2 {
		t.Fatalf("pagination = %+v", out.Pagination)
	}
	if len(out.Diagnoses) != 2 {
		t.Fatalf("page len = %d", len(out.Diagnoses))
	}

	// Window past the end is empty, not an error
	w = doJSON(t, r, http.MethodGet, "/as-expert/diagnoses?page=9", "")
	out = decode[DiagnosisListResponse](t, w)
	if len(out.Diagnoses) != 0 || out.Pagination.Total != 5 {
		t.Fatalf("past-end page = %+v", out)
	}

	// Clamping: nonsense values fall back to sane defaults
	w = doJSON(t, r, http.MethodGet, "/as-expert/diagnoses?page=-3&page_size=9999", "")
	out = decode[DiagnosisListResponse](t, w)
	if out.Pagination.Page != 1 || out.Pagination.PageSize != maxPageSize {
		t.Fatalf("clamped pagination = %+v", out.Pagination)
	}
}

func TestListFarmerDiagnoses(t *testing.T) {
	r, _ := newDiagnosisRouter(t, fixedRules{}, nil)

	doJSON(t, r, http.MethodPost, "/as-farmer1/diagnoses", `{"plant_id":1,"symptom_ids":[1]}`)
	doJSON(t, r, http.MethodPost, "/as-farmer2/diagnoses", `{"plant_id":1,"symptom_ids":[2]}`)

	// Farmers list only their own
	w := doJSON(t, r, http.MethodGet, "/as-farmer1/farmers/1/diagnoses", "")
	if w.Code != http.StatusOK {
		t.Fatalf("own list -> %d", w.Code)
	}
	out := decode[DiagnosisListResponse](t, w)
	if len(out.Diagnoses) != 1 || out.Diagnoses[0].FarmerID != 1 {
		t.Fatalf("own list = %+v", out.Diagnoses)
	}

	w = doJSON(t, r, http.MethodGet, "/as-farmer1/farmers/2/diagnoses", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign list -> %d", w.Code)
	}

	// Experts list any farmer's
	w = doJSON(t, r, http.MethodGet, "/as-expert/farmers/2/diagnoses", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expert list -> %d", w.Code)
	}

	// Unknown farmer
	w = doJSON(t, r, http.MethodGet, "/as-expert/farmers/9/diagnoses", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown farmer -> %d body=%s", w.Code, w.Body.String())
	}
}
