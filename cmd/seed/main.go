// Command seed populates the database with the reference dataset the rule
// engine is written against: demo accounts, four plants, eight symptoms, and
// six diseases with their symptom associations. It is idempotent; existing
// rows keyed by name are left alone. Set SEED_RESET=1 to wipe the catalog
// and accounts first.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/agrosage/go-plant-backend/internal/config"
	"github.com/agrosage/go-plant-backend/internal/domain"
	"github.com/agrosage/go-plant-backend/internal/repo"
	"github.com/agrosage/go-plant-backend/internal/sysutil"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	sysutil.SetLogLevel(cfg.LogLevel)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	if sysutil.IsTruthy(os.Getenv("SEED_RESET")) {
		log.Warn().Msg("SEED_RESET set, wiping existing data")
		for _, table := range []string{
			"expert_validations", "diagnoses", "disease_symptoms",
			"diseases", "symptoms", "plants", "users",
		} {
			db.Exec("DELETE FROM " + table)
		}
	}

	seedUsers(db)
	seedPlants(db)
	seedSymptoms(db)
	seedDiseases(db)

	log.Info().Msg("seeding complete")
}

func seedUsers(db *gorm.DB) {
	// One shared demo password; cost 10 matches interactive login latency.
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), 10)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}
	users := []domain.User{
		{Username: "admin", PasswordHash: string(hash), Role: domain.RoleAdmin},
		{Username: "expert", PasswordHash: string(hash), Role: domain.RoleExpert},
		{Username: "farmer1", PasswordHash: string(hash), Role: domain.RoleFarmer},
		{Username: "farmer2", PasswordHash: string(hash), Role: domain.RoleFarmer},
	}
	for i := range users {
		firstOrCreate(db, &users[i], "username = ?", users[i].Username)
	}
	log.Info().Int("count", len(users)).Msg("users seeded")
}

func seedPlants(db *gorm.DB) {
	plants := []domain.Plant{
		{Name: "Tomato", Description: "Common garden tomato plant.", ImageURL: "https://example.com/tomato.jpg"},
		{Name: "Potato", Description: "Potato plant.", ImageURL: "https://example.com/potato.jpg"},
		{Name: "Corn", Description: "Maize plant.", ImageURL: "https://example.com/corn.jpg"},
		{Name: "Cucumber", Description: "Cucumber plant.", ImageURL: "https://example.com/cucumber.jpg"},
	}
	for i := range plants {
		firstOrCreate(db, &plants[i], "name = ?", plants[i].Name)
	}
	log.Info().Int("count", len(plants)).Msg("plants seeded")
}

// seedSymptoms inserts the eight reference symptoms. Their ids are load
// bearing: the built-in rule table refers to symptoms by position in this
// list, so it must be seeded into an empty symptoms table.
func seedSymptoms(db *gorm.DB) {
	symptoms := []domain.Symptom{
		{Name: "Leaf Spot", Description: "Dark spots on leaves.", Type: "Leaf"},
		{Name: "Wilting", Description: "Drooping or limp leaves/stems.", Type: "General"},
		{Name: "Yellowing Leaves", Description: "Leaves turning yellow.", Type: "Leaf"},
		{Name: "Stem Rot", Description: "Soft, discolored areas on stems.", Type: "Stem"},
		{Name: "Fruit Lesions", Description: "Discolored or damaged areas on fruit.", Type: "Fruit"},
		{Name: "Rust Spots", Description: "Orange-brown pustules on upper and lower leaf surfaces.", Type: "Leaf/Stem"},
		{Name: "Powdery Mildew", Description: "White, powdery patches on leaves/stems.", Type: "Leaf"},
		{Name: "Mosaic Pattern", Description: "Irregular light and dark green patterns on leaves.", Type: "Leaf"},
	}
	for i := range symptoms {
		firstOrCreate(db, &symptoms[i], "name = ?", symptoms[i].Name)
	}
	log.Info().Int("count", len(symptoms)).Msg("symptoms seeded")
}

// diseaseSeed couples a disease with its symptom names and the severity of
// each association.
type diseaseSeed struct {
	disease  domain.Disease
	symptoms map[string]string // symptom name -> severity level
}

func seedDiseases(db *gorm.DB) {
	seeds := []diseaseSeed{
		{
			disease: domain.Disease{
				Name:                     "Early Blight",
				Description:              "A common fungal disease affecting tomatoes and potatoes.",
				SymptomsDescription:      "Dark, concentric spots on older leaves, often with a yellow halo. Can also affect stems and fruit.",
				TreatmentRecommendations: "Fungicides, rotation, remove infected leaves.",
			},
			symptoms: map[string]string{"Leaf Spot": "high", "Wilting": "moderate"},
		},
		{
			disease: domain.Disease{
				Name:                     "Late Blight",
				Description:              "A destructive disease, especially in cool, moist conditions.",
				SymptomsDescription:      "Large, irregular, water-soaked spots on leaves that turn brown/black. White fuzzy growth on undersides.",
				TreatmentRecommendations: "Fungicides, improve air circulation, resistant varieties.",
			},
			symptoms: map[string]string{"Leaf Spot": "high", "Wilting": "high", "Stem Rot": "high", "Fruit Lesions": "moderate"},
		},
		{
			disease: domain.Disease{
				Name:                     "Fusarium Wilt",
				Description:              "Soil-borne fungal disease causing wilting and yellowing.",
				SymptomsDescription:      "Lower leaves yellow and wilt, progressing upwards. Brown discoloration in vascular tissue.",
				TreatmentRecommendations: "Resistant varieties, soil solarization, avoid overwatering.",
			},
			symptoms: map[string]string{"Wilting": "high", "Yellowing Leaves": "high"},
		},
		{
			disease: domain.Disease{
				Name:                     "Corn Common Rust",
				Description:              "Fungal disease affecting corn, characterized by rust-colored spots.",
				SymptomsDescription:      "Small, circular to oval, reddish-brown pustules (rust spots) on upper and lower leaf surfaces.",
				TreatmentRecommendations: "Resistant hybrids, fungicides if severe.",
			},
			symptoms: map[string]string{"Rust Spots": "high", "Yellowing Leaves": "moderate"},
		},
		{
			disease: domain.Disease{
				Name:                     "Powdery Mildew",
				Description:              "A fungal disease affecting many plants, visible as white powdery spots.",
				SymptomsDescription:      "White, powdery spots on leaves, stems, and sometimes fruit. Infected leaves may yellow and curl.",
				TreatmentRecommendations: "Fungicides, improve air circulation, remove infected parts.",
			},
			symptoms: map[string]string{"Powdery Mildew": "high", "Leaf Spot": "low", "Yellowing Leaves": "moderate"},
		},
		{
			disease: domain.Disease{
				Name:                     "Cucumber Mosaic Virus",
				Description:              "A common viral disease affecting cucumbers and many other vegetables.",
				SymptomsDescription:      "Yellow and green mosaic patterns on leaves, stunted growth, distorted fruit, wilting.",
				TreatmentRecommendations: "No cure; remove infected plants, control aphids (vectors).",
			},
			symptoms: map[string]string{"Mosaic Pattern": "high", "Wilting": "moderate", "Yellowing Leaves": "moderate"},
		},
	}

	for i := range seeds {
		d := &seeds[i].disease
		firstOrCreate(db, d, "name = ?", d.Name)
		for name, severity := range seeds[i].symptoms {
			var s domain.Symptom
			if err := db.Where("name = ?", name).First(&s).Error; err != nil {
				log.Fatal().Err(err).Str("symptom", name).Msg("symptom lookup failed")
			}
			join := domain.DiseaseSymptom{DiseaseID: d.ID, SymptomID: s.ID, SeverityLevel: severity}
			if err := db.Where("disease_id = ? AND symptom_id = ?", d.ID, s.ID).
				FirstOrCreate(&join).Error; err != nil {
				log.Fatal().Err(err).Str("disease", d.Name).Str("symptom", name).Msg("associate failed")
			}
		}
	}
	log.Info().Int("count", len(seeds)).Msg("diseases seeded")
}

func firstOrCreate(db *gorm.DB, model any, query string, args ...any) {
	if err := db.Where(query, args...).FirstOrCreate(model).Error; err != nil {
		log.Fatal().Err(err).Msgf("seed %T", model)
	}
}
