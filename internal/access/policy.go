// Package access implements the capability checks that gate workflow
// operations by role and by ownership. The checks are pure predicates: they
// load no data and have no side effects, so every denial decision in the
// system funnels through one small, independently testable surface.
//
// Role rules:
//   - Reference-data mutations (plants, symptoms, diseases) are admin-only.
//   - Submitting a diagnosis is open to farmers, experts, and admins.
//   - Listing all diagnoses and validating one requires expert or admin.
//   - A farmer may view only their own diagnoses; experts and admins may
//     view anyone's.
package access

import "github.com/agrosage/go-plant-backend/internal/domain"

// Allowed reports whether role is one of the required roles. An empty
// required list means any authenticated caller is acceptable.
func Allowed(role string, required ...string) bool {
	if len(required) == 0 {
		return role != ""
	}
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}

// AllowedOwner reports whether a caller may act on a resource owned by
// ownerID. Experts and admins may act on any resource; a farmer only on
// their own.
func AllowedOwner(role string, callerID, ownerID uint) bool {
	switch role {
	case domain.RoleExpert, domain.RoleAdmin:
		return true
	case domain.RoleFarmer:
		return callerID == ownerID
	}
	return false
}

// CanSubmitDiagnosis reports whether role may file a new diagnosis.
func CanSubmitDiagnosis(role string) bool {
	return Allowed(role, domain.RoleFarmer, domain.RoleExpert, domain.RoleAdmin)
}

// CanReviewDiagnoses reports whether role may list all diagnoses or
// validate one.
func CanReviewDiagnoses(role string) bool {
	return Allowed(role, domain.RoleExpert, domain.RoleAdmin)
}

// CanManageCatalog reports whether role may create or modify reference data.
func CanManageCatalog(role string) bool {
	return Allowed(role, domain.RoleAdmin)
}
