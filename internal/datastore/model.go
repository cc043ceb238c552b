// model.go this code defines the data model for the application
package datastore

import "time"

// DiveSite represents a named, optionally geolocated location where
// observations occur. Sites are never deleted or renamed.
type DiveSite struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Name      string   `gorm:"uniqueIndex:idx_dive_sites_name;not null" json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Coral represents a single physical colony tracked across repeated
// sightings. DiveSiteID is the discovery site and is fixed at creation;
// later observations at other sites never relocate the identity.
type Coral struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	InternalID string    `gorm:"uniqueIndex:idx_corals_internal_id;not null" json:"internal_id"`
	DiveSiteID uint      `gorm:"index:idx_corals_dive_site;not null" json:"dive_site_id"`
	FirstSeen  time.Time `json:"first_seen"`
	// LastUpdated advances every time an observation is appended for
	// this coral. Nothing else mutates a Coral row.
	LastUpdated            time.Time `json:"last_updated"`
	RepresentativeFeatures string    `gorm:"type:text;default:'{}'" json:"-"`

	Observations []Observation `gorm:"foreignKey:CoralID" json:"-"`
}

// Observation represents one timestamped sighting of a coral.
// Rows are append-only and immutable once created.
type Observation struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CoralID            uint      `gorm:"index:idx_observations_coral;not null" json:"coral_id"`
	ImageFilename      string    `gorm:"not null" json:"image_filename"`
	ObservedAt         time.Time `gorm:"index:idx_observations_observed_at" json:"timestamp"`
	ReportedDiveSiteID uint      `gorm:"index;not null" json:"reported_dive_site_id"`
	StatusGuess        *string   `json:"status"`
	Notes              *string   `json:"notes"`
}

// CoralSummary is the per-site listing row: coral identity bookkeeping
// plus the image of its earliest observation. Thumbnail is nil for a
// coral with no observations yet.
type CoralSummary struct {
	CoralID     uint      `json:"id"`
	InternalID  string    `json:"internal_id"`
	LastUpdated time.Time `json:"last_updated"`
	Thumbnail   *string   `json:"thumbnail"`
}
