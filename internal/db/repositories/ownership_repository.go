// ownership_repository.go implements reads over package_owners plus the
// batch upsert used by the notification-preference synchronizer.
package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/package-registry/package-registry/internal/db/models"
)

// OwnershipRepository handles package ownership rows.
type OwnershipRepository struct {
	db *sqlx.DB
}

// NewOwnershipRepository creates a new OwnershipRepository.
func NewOwnershipRepository(db *sqlx.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

// ListByUser returns the raw ownership rows held directly by a user.
// Team-owned rows are excluded; the synchronizer must never see them.
func (r *OwnershipRepository) ListByUser(ctx context.Context, userID string) ([]models.PackageOwner, error) {
	query := `
		SELECT package_id, owner_id, owner_kind, email_notifications
		FROM package_owners
		WHERE owner_id = $1 AND owner_kind = $2
	`

	owners := make([]models.PackageOwner, 0)
	if err := r.db.SelectContext(ctx, &owners, query, userID, models.OwnerKindUser); err != nil {
		return nil, err
	}

	return owners, nil
}

// ListOwnedPackages returns the packages a user owns directly, ordered by
// package name, each annotated with that owner's notification flag.
func (r *OwnershipRepository) ListOwnedPackages(ctx context.Context, userID string) ([]models.OwnedPackage, error) {
	query := `
		SELECT p.id, p.name, po.email_notifications
		FROM package_owners po
		INNER JOIN packages p ON p.id = po.package_id
		WHERE po.owner_id = $1 AND po.owner_kind = $2
		ORDER BY p.name ASC
	`

	owned := make([]models.OwnedPackage, 0)
	if err := r.db.SelectContext(ctx, &owned, query, userID, models.OwnerKindUser); err != nil {
		return nil, err
	}

	return owned, nil
}

// UpsertNotificationPreferences writes the candidate rows produced by the
// preference reconciler in a single statement. On conflict with an existing
// (package_id, owner_id, owner_kind) row the incoming EXCLUDED value wins,
// never a re-read, so the result is exactly what the caller computed. Since
// candidates are derived from existing ownership, the statement only ever
// updates under normal operation.
func (r *OwnershipRepository) UpsertNotificationPreferences(ctx context.Context, rows []models.PackageOwner) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*4)
	for i, row := range rows {
		base := i * 4
		placeholders = append(placeholders,
			fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4))
		args = append(args, row.PackageID, row.OwnerID, row.OwnerKind, row.EmailNotifications)
	}

	query := fmt.Sprintf(`
		INSERT INTO package_owners (package_id, owner_id, owner_kind, email_notifications)
		VALUES %s
		ON CONFLICT (package_id, owner_id, owner_kind) DO UPDATE
		SET email_notifications = EXCLUDED.email_notifications
	`, strings.Join(placeholders, ", "))

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
