package db

import (
	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"
)

// EnsureSchema creates the schema when missing. The name is quoted as an
// identifier.
func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{schema}.Sanitize()).Error
}
