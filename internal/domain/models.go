// Package domain defines the persistence models for the plant-disease
// diagnosis workflow: reference data (plants, symptoms, diseases), user
// accounts, and the diagnosis records that move through expert review.
// These types are mapped with GORM and form the core data layer of the
// application.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Roles a user account can hold. The role is fixed at registration.
const (
	RoleFarmer = "farmer"
	RoleExpert = "expert"
	RoleAdmin  = "admin"
)

// Diagnosis lifecycle statuses. StatusPendingReview is the sole initial
// status; the other three are assigned only by an expert validation and may
// be re-assigned by a later validation.
const (
	StatusPendingReview = "pending_review"
	StatusValidated     = "validated"
	StatusRejected      = "rejected"
	StatusNeedsMoreInfo = "needs_more_info"
)

// ValidationStatuses lists every lifecycle status, in workflow order.
var ValidationStatuses = []string{
	StatusPendingReview, StatusValidated, StatusRejected, StatusNeedsMoreInfo,
}

// ValidValidationStatus reports whether s is a status an expert may assign.
func ValidValidationStatus(s string) bool {
	switch s {
	case StatusValidated, StatusRejected, StatusNeedsMoreInfo:
		return true
	}
	return false
}

// IDList is an ordered collection of record identifiers stored as a JSON
// array in a single text column. Order is preserved and duplicates are kept
// exactly as supplied by the caller.
type IDList []uint

// Value implements driver.Valuer, serializing the list to JSON.
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner, expecting a JSON array of integers.
func (l *IDList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("IDList: cannot scan %T", src)
	}
}

// Contains reports whether id occurs in the list.
func (l IDList) Contains(id uint) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// User is an account that interacts with the system as a farmer, expert, or
// admin. The password is stored as a bcrypt hash and never serialized.
type User struct {
	ID           uint      `json:"id"       gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string    `json:"-"        gorm:"type:varchar(255);not null"`
	Role         string    `json:"role"     gorm:"type:varchar(16);not null;default:'farmer';check:role IN ('farmer','expert','admin')"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Plant is a crop species that diagnoses can be filed against. Reference
// data, created by admins and immutable afterwards.
type Plant struct {
	ID          uint      `json:"id"          gorm:"primaryKey"`
	Name        string    `json:"name"        gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	ImageURL    string    `json:"image_url"   gorm:"type:varchar(512)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Plant.
func (Plant) TableName() string { return "plants" }

// Symptom is an observable sign of disease (e.g. "Leaf Spot"). The Type tag
// is a coarse category such as "Leaf", "Stem", or "Fruit".
type Symptom struct {
	ID          uint      `json:"id"          gorm:"primaryKey"`
	Name        string    `json:"name"        gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Type        string    `json:"type"        gorm:"type:varchar(50)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Symptom.
func (Symptom) TableName() string { return "symptoms" }

// Disease is a known plant disease together with its catalog prose. Its
// symptom associations live in the disease_symptoms join table and are set
// once at creation.
type Disease struct {
	ID                       uint      `json:"id"                        gorm:"primaryKey"`
	Name                     string    `json:"name"                      gorm:"type:varchar(100);uniqueIndex;not null"`
	Description              string    `json:"description"               gorm:"type:text"`
	SymptomsDescription      string    `json:"symptoms_description"      gorm:"type:text"`
	TreatmentRecommendations string    `json:"treatment_recommendations" gorm:"type:text"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`

	// Symptoms is the associated symptom set, populated via the join table.
	Symptoms []Symptom `json:"symptoms,omitempty" gorm:"many2many:disease_symptoms;"`
}

// TableName returns the database table name for Disease.
func (Disease) TableName() string { return "diseases" }

// DiseaseSymptom is the join row between a disease and one of its symptoms,
// carrying an optional severity annotation for the pair.
type DiseaseSymptom struct {
	DiseaseID     uint   `json:"disease_id"     gorm:"primaryKey"`
	SymptomID     uint   `json:"symptom_id"     gorm:"primaryKey"`
	SeverityLevel string `json:"severity_level" gorm:"type:varchar(50)"`
}

// TableName returns the database table name for DiseaseSymptom.
func (DiseaseSymptom) TableName() string { return "disease_symptoms" }

// Diagnosis is the central workflow record: a farmer's report of observed
// symptoms on a plant, annotated with up to three disease references as it
// moves through review.
//
// Invariants:
//   - Status starts at pending_review; only an expert validation changes it.
//   - FinalDiseaseID is set if and only if the status has left pending_review.
//   - FarmerID is immutable after creation.
type Diagnosis struct {
	ID                 uint      `json:"id"                   gorm:"primaryKey"`
	FarmerID           uint      `json:"farmer_id"            gorm:"not null;index"`
	PlantID            uint      `json:"plant_id"             gorm:"not null;index"`
	ObservedSymptomIDs IDList    `json:"observed_symptom_ids" gorm:"type:text;not null"`
	FarmerNotes        string    `json:"farmer_notes"         gorm:"type:text"`
	PreliminaryID      *uint     `json:"preliminary_diagnosis_id"`
	AISuggestedID      *uint     `json:"ai_suggested_diagnosis_id"`
	FinalDiseaseID     *uint     `json:"final_diagnosis_id"`
	Status             string    `json:"status" gorm:"type:varchar(20);not null;default:'pending_review';check:status IN ('pending_review','validated','rejected','needs_more_info')"`
	CreatedAt          time.Time `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time `json:"updated_at"`

	Farmer      User              `json:"-" gorm:"foreignKey:FarmerID;references:ID"`
	Plant       Plant             `json:"-" gorm:"foreignKey:PlantID;references:ID"`
	Preliminary *Disease          `json:"-" gorm:"foreignKey:PreliminaryID;references:ID"`
	AISuggested *Disease          `json:"-" gorm:"foreignKey:AISuggestedID;references:ID"`
	Final       *Disease          `json:"-" gorm:"foreignKey:FinalDiseaseID;references:ID"`
	Validation  *ExpertValidation `json:"-" gorm:"foreignKey:DiagnosisID;references:ID"`
}

// TableName returns the database table name for Diagnosis.
func (Diagnosis) TableName() string { return "diagnoses" }

// ExpertValidation records the expert's verdict on a diagnosis. There is at
// most one row per diagnosis (enforced by unique index); a re-validation
// overwrites the existing row rather than creating a second one.
//
// PreviousDiseaseID captures the best automatic guess (AI suggestion if
// present, else preliminary, else none) as it stood immediately before the
// validation that wrote this row.
type ExpertValidation struct {
	ID                uint      `json:"id"                    gorm:"primaryKey"`
	DiagnosisID       uint      `json:"diagnosis_id"          gorm:"not null;uniqueIndex"`
	ExpertID          uint      `json:"expert_id"             gorm:"not null;index"`
	PreviousDiseaseID *uint     `json:"previous_diagnosis_id"`
	NewDiseaseID      uint      `json:"new_diagnosis_id"      gorm:"not null"`
	ValidationStatus  string    `json:"validation_status"     gorm:"type:varchar(20);not null"`
	Notes             string    `json:"notes"                 gorm:"type:text"`
	ValidatedAt       time.Time `json:"validated_at"`

	// Diagnosis is the validated record; validations are cascade-deleted
	// with it.
	Diagnosis Diagnosis `json:"-" gorm:"foreignKey:DiagnosisID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Expert    User      `json:"-" gorm:"foreignKey:ExpertID;references:ID"`
	New       Disease   `json:"-" gorm:"foreignKey:NewDiseaseID;references:ID"`
}

// TableName returns the database table name for ExpertValidation.
func (ExpertValidation) TableName() string { return "expert_validations" }
