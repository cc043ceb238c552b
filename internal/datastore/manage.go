package datastore

import (
	"time"

	"github.com/coralwatch/coralwatch-go/internal/logging"
	"gorm.io/gorm"
)

// performAutoMigration migrates the schema for all entities, logging
// per-table results.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	migrationStart := time.Now()
	migrationLogger := logging.ForService("datastore").With("db_type", dbType)

	tableMappings := []struct {
		model any
		name  string
	}{
		{&DiveSite{}, "dive_sites"},
		{&Coral{}, "corals"},
		{&Observation{}, "observations"},
	}

	for _, table := range tableMappings {
		tableStart := time.Now()
		tableExists := db.Migrator().HasTable(table.model)

		if err := db.AutoMigrate(table.model); err != nil {
			migrationLogger.Error("Table migration failed",
				"table", table.name,
				"error", err)
			return dbError(err, "auto_migrate", "table", table.name, "connection", connectionInfo)
		}

		if debug {
			action := "updated"
			if !tableExists {
				action = "created"
			}
			migrationLogger.Debug("Table migration completed",
				"table", table.name,
				"action", action,
				"duration", time.Since(tableStart))
		}
	}

	migrationLogger.Debug("Database migration completed successfully",
		"total_duration", time.Since(migrationStart),
		"tables_migrated", len(tableMappings))

	return nil
}
