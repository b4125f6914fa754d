package accounts

import "github.com/package-registry/package-registry/internal/db/models"

// ReconcilePreferences computes the candidate ownership rows to upsert from
// the rows a user currently holds and a partial client patch of
// (package ID → desired flag) pairs.
//
// Packages absent from the patch keep their current flag (pass-through, not
// a reset to any default). Patch entries for packages the user does not own
// never enter the candidate set, so they are silently ignored. The function
// is pure: replaying the same inputs yields the same candidates, which is
// what makes the whole sync idempotent.
func ReconcilePreferences(current []models.PackageOwner, patch map[string]bool) []models.PackageOwner {
	candidates := make([]models.PackageOwner, 0, len(current))
	for _, row := range current {
		want, ok := patch[row.PackageID]
		if !ok {
			want = row.EmailNotifications
		}
		candidates = append(candidates, models.PackageOwner{
			PackageID:          row.PackageID,
			OwnerID:            row.OwnerID,
			OwnerKind:          row.OwnerKind,
			EmailNotifications: want,
		})
	}
	return candidates
}
