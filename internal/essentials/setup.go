package essentials

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/EV-Civics/internal/db"
)

// Migrate prepares the civics schema: extension, tables and spatial indexes.
func Migrate(d *gorm.DB) error {
	if err := db.EnsureSchema(d, Schema); err != nil {
		return eris.Wrapf(err, "essentials: ensure schema %s", Schema)
	}

	if err := d.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error; err != nil {
		return eris.Wrap(err, "essentials: enable postgis extension")
	}

	if err := d.AutoMigrate(
		&Area{},
		&Person{},
		&PersonArea{},
		&Jurisdiction{},
		&Bill{},
		&VoteEvent{},
		&CoverageCheckpoint{},
		&PrecinctResult{},
	); err != nil {
		return eris.Wrap(err, "essentials: auto-migrate tables")
	}

	// GiST indexes back every ST_Contains / ST_Intersects lookup.
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS areas_geometry_gist ON civics.areas USING GIST (geometry)`,
		`CREATE INDEX IF NOT EXISTS precinct_results_geometry_gist ON civics.precinct_results USING GIST (geometry)`,
	} {
		if err := d.Exec(stmt).Error; err != nil {
			return eris.Wrap(err, "essentials: create spatial index")
		}
	}

	zap.L().Info("schema ready", zap.String("component", "essentials"), zap.String("schema", Schema))
	return nil
}
