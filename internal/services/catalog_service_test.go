package services

import (
	"context"
	"errors"
	"testing"

	"github.com/agrosage/go-plant-backend/internal/domain"
)

func newCatalogSvc(t *testing.T) *CatalogService {
	t.Helper()
	return NewCatalogService(newTestDB(t), repoShim{})
}

func TestCatalog_CreatePlant_DuplicateName(t *testing.T) {
	svc := newCatalogSvc(t)
	ctx := context.Background()

	if _, err := svc.CreatePlant(ctx, "Tomato", "", ""); err != nil {
		t.Fatalf("CreatePlant: %v", err)
	}
	if _, err := svc.CreatePlant(ctx, "Tomato", "again", ""); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := svc.CreatePlant(ctx, "   ", "", ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestCatalog_SymptomLifecycle(t *testing.T) {
	svc := newCatalogSvc(t)
	ctx := context.Background()

	sym, err := svc.CreateSymptom(ctx, "Leaf Spot", "Dark lesions", "Leaf")
	if err != nil {
		t.Fatalf("CreateSymptom: %v", err)
	}

	updated, err := svc.UpdateSymptom(ctx, sym.ID, "", "Concentric dark lesions", "")
	if err != nil {
		t.Fatalf("UpdateSymptom: %v", err)
	}
	if updated.Name != "Leaf Spot" || updated.Description != "Concentric dark lesions" {
		t.Fatalf("partial update wrong: %+v", updated)
	}

	if err := svc.DeleteSymptom(ctx, sym.ID); err != nil {
		t.Fatalf("DeleteSymptom: %v", err)
	}
	if _, err := svc.GetSymptom(ctx, sym.ID); !errors.Is(err, ErrSymptomNotFound) {
		t.Fatalf("expected ErrSymptomNotFound, got %v", err)
	}
}

func TestCatalog_CreateDisease_UnknownSymptomLeavesNoOrphan(t *testing.T) {
	svc := newCatalogSvc(t)
	ctx := context.Background()

	if _, err := svc.CreateSymptom(ctx, "Leaf Spot", "", "Leaf"); err != nil {
		t.Fatalf("seed symptom: %v", err)
	}

	_, err := svc.CreateDisease(ctx, "Early Blight", "", "", "", []uint{1, 99})
	if !errors.Is(err, ErrSymptomNotFound) {
		t.Fatalf("expected ErrSymptomNotFound, got %v", err)
	}

	diseases, err := svc.ListDiseases(ctx)
	if err != nil {
		t.Fatalf("ListDiseases: %v", err)
	}
	if len(diseases) != 0 {
		t.Fatalf("orphan disease created: %+v", diseases)
	}
}

func TestCatalog_CreateDisease_WithSymptoms(t *testing.T) {
	svc := newCatalogSvc(t)
	ctx := context.Background()

	for _, name := range []string{"Leaf Spot", "Yellowing Leaves"} {
		if _, err := svc.CreateSymptom(ctx, name, "", "Leaf"); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	d, err := svc.CreateDisease(ctx, "Early Blight", "Alternaria solani", "spots then yellowing", "rotate crops", []uint{1, 2, 1})
	if err != nil {
		t.Fatalf("CreateDisease: %v", err)
	}

	if _, err := svc.CreateDisease(ctx, "Early Blight", "", "", "", []uint{1}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	// annotate the join rows so the listing has severities to surface
	for id, level := range map[uint]string{1: "high", 2: "moderate"} {
		err := svc.DB.Model(&domain.DiseaseSymptom{}).
			Where("disease_id = ? AND symptom_id = ?", d.ID, id).
			Update("severity_level", level).Error
		if err != nil {
			t.Fatalf("set severity %d: %v", id, err)
		}
	}

	list, err := svc.ListDiseases(ctx)
	if err != nil {
		t.Fatalf("ListDiseases: %v", err)
	}
	if len(list) != 1 || list[0].ID != d.ID {
		t.Fatalf("unexpected listing: %+v", list)
	}
	if len(list[0].Symptoms) != 2 {
		t.Fatalf("duplicate symptom id not collapsed: %+v", list[0].Symptoms)
	}
	levels := make(map[string]string, 2)
	for _, sym := range list[0].Symptoms {
		levels[sym.Name] = sym.SeverityLevel
	}
	if levels["Leaf Spot"] != "high" || levels["Yellowing Leaves"] != "moderate" {
		t.Fatalf("severities not surfaced: %+v", list[0].Symptoms)
	}
}

func TestCatalog_NameResolver(t *testing.T) {
	svc := newCatalogSvc(t)
	ctx := context.Background()

	d, err := svc.CreateDisease(ctx, "Powdery Mildew", "", "", "", nil)
	if err != nil {
		t.Fatalf("CreateDisease: %v", err)
	}

	resolve, err := svc.NameResolver(ctx)
	if err != nil {
		t.Fatalf("NameResolver: %v", err)
	}
	if id, ok := resolve("Powdery Mildew"); !ok || id != d.ID {
		t.Fatalf("resolve failed: id=%d ok=%v", id, ok)
	}
	if _, ok := resolve("Unknown Rot"); ok {
		t.Fatalf("unknown name must not resolve")
	}
}
