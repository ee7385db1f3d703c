package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/nexacrm/crm-backend/internal/models"
	"gorm.io/gorm"
)

// CRMRepository defines the interface for CRM entity updates driven by
// email activity. All last-contacted updates are monotonic: expressed as
// conditional writes so a timestamp never moves backwards, even under
// concurrent runs.
type CRMRepository interface {
	TouchContactLastContacted(ctx context.Context, id string, at time.Time) error
	TouchLeadLastContacted(ctx context.Context, id string, at time.Time) error
	TouchAccountLastContacted(ctx context.Context, id string, at time.Time) error
}

// crmRepository implements CRMRepository using GORM
type crmRepository struct {
	db *gorm.DB
}

// NewCRMRepository creates a new CRMRepository instance
func NewCRMRepository(db *gorm.DB) CRMRepository {
	return &crmRepository{db: db}
}

// touchLastContacted advances last_contacted_at on the given model, but only
// if the stored value is unset or earlier. A no-op update is not an error.
func (r *crmRepository) touchLastContacted(ctx context.Context, model interface{}, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(model).
		Where("id = ? AND (last_contacted_at IS NULL OR last_contacted_at < ?)", id, at).
		Update("last_contacted_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to update last contacted timestamp: %w", result.Error)
	}
	return nil
}

// TouchContactLastContacted advances a contact's last-contacted timestamp
func (r *crmRepository) TouchContactLastContacted(ctx context.Context, id string, at time.Time) error {
	return r.touchLastContacted(ctx, &models.Contact{}, id, at)
}

// TouchLeadLastContacted advances a lead's last-contacted timestamp
func (r *crmRepository) TouchLeadLastContacted(ctx context.Context, id string, at time.Time) error {
	return r.touchLastContacted(ctx, &models.Lead{}, id, at)
}

// TouchAccountLastContacted advances an account's last-contacted timestamp
func (r *crmRepository) TouchAccountLastContacted(ctx context.Context, id string, at time.Time) error {
	return r.touchLastContacted(ctx, &models.Account{}, id, at)
}
