package main

import (
	"flag"
	"log"

	"whatsapp-crm-gateway/internal/config"
	"whatsapp-crm-gateway/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// migrate_tenants copies the tenant table of a SQLite database into the
// configured database, for moving a deployment from SQLite to PostgreSQL.
func main() {
	cfg := config.LoadConfig()
	source := flag.String("source", cfg.DBPath, "SQLite database to copy from")
	flag.Parse()

	sqliteDB, err := gorm.Open(sqlite.Open(*source), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open SQLite source: %v", err)
	}
	log.Printf("Connected to SQLite at %s", *source)

	database.InitGorm(cfg)

	n, err := database.CopyTenants(sqliteDB, database.GormDB)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migrated %d tenant(s) into %s", n, cfg.DBDriver)
}
