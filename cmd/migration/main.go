// Applies all pending database migrations and exits. The server applies the
// same migrations at startup, this command exists for running an upgrade
// ahead of a deploy.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"cleanmaster_platform/platform/resources"
	"cleanmaster_platform/platform/schema"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func postgresDsn(databaseUri string) string {
	parts, err := url.Parse(databaseUri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func main() {
	envFile := flag.String("env", "", "File to load env variables from. If not specified will just load them from the environment variables already defined.")

	flag.Parse()

	if *envFile != "" {
		err := godotenv.Load(*envFile)
		if err != nil {
			log.Fatalf("error loading .env file '%v': %v", *envFile, err)
		}
	}

	databaseUri := os.Getenv("DATABASE_URI")
	dataDir := os.Getenv("DATA_DIR")
	if databaseUri == "" && dataDir == "" {
		log.Fatal("either DATABASE_URI or DATA_DIR must be set")
	}

	var db *gorm.DB
	var err error
	if databaseUri != "" {
		db, err = gorm.Open(postgres.Open(postgresDsn(databaseUri)), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open(filepath.Join(dataDir, "cleanmaster.db")), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	if err := db.AutoMigrate(&schema.User{}); err != nil {
		log.Fatalf("error migrating user schema: %v", err)
	}

	if err := resources.MigrateEmbedded(db); err != nil {
		log.Fatalf("error migrating resource store schema: %v", err)
	}

	slog.Info("all migrations applied")
}
