package datastore

import (
	"context"
	"math"

	"github.com/coralwatch/coralwatch-go/internal/errors"
	"gorm.io/gorm"
)

// validateCoordinates re-checks latitude and longitude ranges. The HTTP
// boundary validates first; this is the last line before a row is written.
func validateCoordinates(lat, lon *float64) error {
	if lat != nil && (math.IsNaN(*lat) || *lat < -90 || *lat > 90) {
		return validationError("latitude must be between -90 and 90 degrees", "latitude", *lat)
	}
	if lon != nil && (math.IsNaN(*lon) || *lon < -180 || *lon > 180) {
		return validationError("longitude must be between -180 and 180 degrees", "longitude", *lon)
	}
	return nil
}

// GetOrCreateDiveSite looks a site up by exact name and returns it,
// inserting a new row when the name is unseen. Coordinates supplied for
// an already existing site are ignored. A concurrent create racing on
// the same new name is resolved by re-reading; this entry point never
// surfaces a duplicate-name conflict to its caller.
func (ds *DataStore) GetOrCreateDiveSite(ctx context.Context, name string, lat, lon *float64) (DiveSite, error) {
	if name == "" {
		return DiveSite{}, validationError("dive site name must not be empty", "name", name)
	}
	if err := validateCoordinates(lat, lon); err != nil {
		return DiveSite{}, err
	}

	var site DiveSite
	err := ds.DB.WithContext(ctx).Where("name = ?", name).First(&site).Error
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DiveSite{}, dbError(err, "get_or_create_dive_site", "name", name)
	}

	site = DiveSite{Name: name, Latitude: lat, Longitude: lon}
	err = ds.DB.WithContext(ctx).Create(&site).Error
	if err == nil {
		return site, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the insert race; the row exists now
		var existing DiveSite
		if rerr := ds.DB.WithContext(ctx).Where("name = ?", name).First(&existing).Error; rerr != nil {
			return DiveSite{}, dbError(rerr, "get_or_create_dive_site", "name", name)
		}
		return existing, nil
	}
	return DiveSite{}, dbError(err, "get_or_create_dive_site", "name", name)
}

// CreateDiveSite inserts a new site, surfacing ErrDuplicateSiteName when
// a site with the same name already exists. This is the creation-oriented
// entry point used by the site management API, not by upload ingest.
func (ds *DataStore) CreateDiveSite(ctx context.Context, name string, lat, lon *float64) (DiveSite, error) {
	if name == "" {
		return DiveSite{}, validationError("dive site name must not be empty", "name", name)
	}
	if err := validateCoordinates(lat, lon); err != nil {
		return DiveSite{}, err
	}

	site := DiveSite{Name: name, Latitude: lat, Longitude: lon}
	if err := ds.DB.WithContext(ctx).Create(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return DiveSite{}, conflictError(ErrDuplicateSiteName, "name", name)
		}
		return DiveSite{}, dbError(err, "create_dive_site", "name", name)
	}
	return site, nil
}

// GetAllDiveSites returns every known dive site. No ordering is
// guaranteed and no pagination is applied.
func (ds *DataStore) GetAllDiveSites(ctx context.Context) ([]DiveSite, error) {
	var sites []DiveSite
	if err := ds.DB.WithContext(ctx).Find(&sites).Error; err != nil {
		return nil, dbError(err, "get_all_dive_sites")
	}
	return sites, nil
}

// GetDiveSite retrieves a dive site by its ID.
func (ds *DataStore) GetDiveSite(ctx context.Context, id uint) (DiveSite, error) {
	var site DiveSite
	if err := ds.DB.WithContext(ctx).First(&site, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DiveSite{}, notFoundError(ErrDiveSiteNotFound, "site_id", id)
		}
		return DiveSite{}, dbError(err, "get_dive_site", "site_id", id)
	}
	return site, nil
}
