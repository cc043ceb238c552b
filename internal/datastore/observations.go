package datastore

import (
	"context"
	"time"

	"github.com/coralwatch/coralwatch-go/internal/errors"
	"gorm.io/gorm"
)

// SaveObservation appends a sighting record and advances the referenced
// coral's last_updated bookkeeping as a single transaction: both commit
// or both roll back. Both foreign references are validated so the log
// never accepts dangling coral or site ids, and the returned error names
// which reference was invalid.
func (ds *DataStore) SaveObservation(ctx context.Context, obs *Observation) error {
	if obs.ImageFilename == "" {
		return validationError("image filename must not be empty", "image_filename", obs.ImageFilename)
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now()
	}

	tx := ds.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return dbError(tx.Error, "save_observation")
	}

	// Roll back the transaction if a panic occurs
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var coral Coral
	if err := tx.First(&coral, obs.CoralID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError(ErrCoralNotFound, "coral_id", obs.CoralID)
		}
		return dbError(err, "save_observation", "coral_id", obs.CoralID)
	}

	var site DiveSite
	if err := tx.First(&site, obs.ReportedDiveSiteID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError(ErrDiveSiteNotFound, "site_id", obs.ReportedDiveSiteID)
		}
		return dbError(err, "save_observation", "site_id", obs.ReportedDiveSiteID)
	}

	if err := tx.Create(obs).Error; err != nil {
		tx.Rollback()
		return dbError(err, "save_observation", "coral_id", obs.CoralID)
	}

	// last_updated only ever moves forward; the WHERE clause keeps a
	// late-committing append from dragging it backwards.
	touch := time.Now()
	if err := tx.Model(&Coral{}).
		Where("id = ? AND last_updated < ?", obs.CoralID, touch).
		Update("last_updated", touch).Error; err != nil {
		tx.Rollback()
		return dbError(err, "touch_coral_updated", "coral_id", obs.CoralID)
	}

	if err := tx.Commit().Error; err != nil {
		return dbError(err, "save_observation", "coral_id", obs.CoralID)
	}
	return nil
}

// GetObservationsForCoral returns every observation of a coral, newest
// first. This is the user-facing timeline order, intentionally the
// reverse of the thumbnail selection in GetCoralsByDiveSite.
func (ds *DataStore) GetObservationsForCoral(ctx context.Context, coralID uint) ([]Observation, error) {
	observations := []Observation{}
	err := ds.DB.WithContext(ctx).
		Where("coral_id = ?", coralID).
		Order("observed_at DESC, id DESC").
		Find(&observations).Error
	if err != nil {
		return nil, dbError(err, "get_observations_for_coral", "coral_id", coralID)
	}
	return observations, nil
}
