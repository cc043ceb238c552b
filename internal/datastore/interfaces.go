// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/coralwatch/coralwatch-go/internal/conf"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Interface abstracts the underlying database implementation and defines
// the operations of the coral identity and observation model.
type Interface interface {
	Open() error
	Close() error

	// site registry
	GetOrCreateDiveSite(ctx context.Context, name string, lat, lon *float64) (DiveSite, error)
	CreateDiveSite(ctx context.Context, name string, lat, lon *float64) (DiveSite, error)
	GetAllDiveSites(ctx context.Context) ([]DiveSite, error)
	GetDiveSite(ctx context.Context, id uint) (DiveSite, error)

	// coral registry
	CreateCoral(ctx context.Context, internalID string, diveSiteID uint) (Coral, error)
	FindCoralByInternalID(ctx context.Context, internalID string) (Coral, error)
	GetCoralsByDiveSite(ctx context.Context, diveSiteID uint) ([]CoralSummary, error)

	// observation log
	SaveObservation(ctx context.Context, obs *Observation) error
	GetObservationsForCoral(ctx context.Context, coralID uint) ([]Observation, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided settings.
// SQLite is the only backing store; the constructor exists so the store
// selection stays in one place.
func New(settings *conf.Settings) Interface {
	return &SQLiteStore{
		Settings: settings,
	}
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      false,
		},
	)
}

// Close terminates the database connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	ds.DB = nil
	return nil
}
