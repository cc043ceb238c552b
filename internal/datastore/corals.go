package datastore

import (
	"context"
	"time"

	"github.com/coralwatch/coralwatch-go/internal/errors"
	"gorm.io/gorm"
)

// CreateCoral mints a new coral identity record bound to its discovery
// site. The internal_id uniqueness constraint is the backstop against
// identifier generator collisions; a collision surfaces as
// ErrDuplicateInternalID.
func (ds *DataStore) CreateCoral(ctx context.Context, internalID string, diveSiteID uint) (Coral, error) {
	if internalID == "" {
		return Coral{}, validationError("internal id must not be empty", "internal_id", internalID)
	}

	now := time.Now()
	coral := Coral{
		InternalID:             internalID,
		DiveSiteID:             diveSiteID,
		FirstSeen:              now,
		LastUpdated:            now,
		RepresentativeFeatures: "{}",
	}
	if err := ds.DB.WithContext(ctx).Create(&coral).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Coral{}, conflictError(ErrDuplicateInternalID, "internal_id", internalID)
		}
		return Coral{}, dbError(err, "create_coral", "internal_id", internalID)
	}
	return coral, nil
}

// FindCoralByInternalID retrieves a coral by its durable internal identifier.
func (ds *DataStore) FindCoralByInternalID(ctx context.Context, internalID string) (Coral, error) {
	var coral Coral
	err := ds.DB.WithContext(ctx).Where("internal_id = ?", internalID).First(&coral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Coral{}, notFoundError(ErrCoralNotFound, "internal_id", internalID)
		}
		return Coral{}, dbError(err, "find_coral_by_internal_id", "internal_id", internalID)
	}
	return coral, nil
}

// GetCoralsByDiveSite lists the corals discovered at a site, each with
// the image of its earliest observation as thumbnail. The earliest
// observation is picked by observed_at ascending with the row id as
// tiebreak, so ties resolve to insertion order. A coral without
// observations yields a null thumbnail rather than an error.
func (ds *DataStore) GetCoralsByDiveSite(ctx context.Context, diveSiteID uint) ([]CoralSummary, error) {
	summaries := []CoralSummary{}
	err := ds.DB.WithContext(ctx).Raw(`
		SELECT
			c.id AS coral_id,
			c.internal_id,
			c.last_updated,
			(SELECT o.image_filename
			 FROM observations o
			 WHERE o.coral_id = c.id
			 ORDER BY o.observed_at ASC, o.id ASC
			 LIMIT 1) AS thumbnail
		FROM corals c
		WHERE c.dive_site_id = ?`, diveSiteID).Scan(&summaries).Error
	if err != nil {
		return nil, dbError(err, "get_corals_by_dive_site", "site_id", diveSiteID)
	}
	return summaries, nil
}
