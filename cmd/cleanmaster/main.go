package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cleanmaster_platform/platform/auth"
	"cleanmaster_platform/platform/blobstore"
	"cleanmaster_platform/platform/resources"
	"cleanmaster_platform/platform/schema"
	"cleanmaster_platform/platform/services"
	"cleanmaster_platform/utils"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	backendEmbedded = "embedded"
	backendRemote   = "remote"
)

type platformEnv struct {
	ResourceBackend string
	DataDir         string
	DatabaseUri     string

	JwtSecret     string
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	AllowedOrigins string

	// Remote backend only.
	MongoUri      string
	MongoDatabase string
	S3Bucket      string
}

func loadEnvFile(envFile string) {
	slog.Info(fmt.Sprintf("loading env from file %v", envFile))
	err := godotenv.Load(envFile)
	if err != nil {
		log.Fatalf("error loading .env file '%v': %v", envFile, err)
	}
}

func loadEnv() platformEnv {
	missingEnvs := []string{}

	requiredEnv := func(key string) string {
		env := os.Getenv(key)
		if env == "" {
			missingEnvs = append(missingEnvs, key)
			slog.Error("missing required env variable", "key", key)
		}
		return env
	}

	env := platformEnv{
		ResourceBackend: requiredEnv("RESOURCE_BACKEND"),
		DataDir:         requiredEnv("DATA_DIR"),
		DatabaseUri:     utils.OptionalEnv("DATABASE_URI"),

		JwtSecret:     requiredEnv("JWT_SECRET"),
		AdminUsername: requiredEnv("ADMIN_USERNAME"),
		AdminEmail:    requiredEnv("ADMIN_MAIL"),
		AdminPassword: requiredEnv("ADMIN_PASSWORD"),

		AllowedOrigins: utils.OptionalEnv("ALLOWED_ORIGINS"),

		MongoUri:      utils.OptionalEnv("MONGODB_URI"),
		MongoDatabase: utils.OptionalEnv("MONGODB_DATABASE"),
		S3Bucket:      utils.OptionalEnv("S3_BUCKET"),
	}

	if len(missingEnvs) > 0 {
		log.Fatalf("The following required env vars are missing: %s", strings.Join(missingEnvs, ", "))
	}

	if env.ResourceBackend != backendEmbedded && env.ResourceBackend != backendRemote {
		log.Fatalf("RESOURCE_BACKEND must be '%v' or '%v', got '%v'", backendEmbedded, backendRemote, env.ResourceBackend)
	}
	if env.ResourceBackend == backendRemote && (env.MongoUri == "" || env.MongoDatabase == "" || env.S3Bucket == "") {
		log.Fatal("MONGODB_URI, MONGODB_DATABASE, and S3_BUCKET must be set when RESOURCE_BACKEND is 'remote'")
	}

	return env
}

func (env *platformEnv) postgresDsn() string {
	parts, err := url.Parse(env.DatabaseUri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func (env *platformEnv) allowedOrigins() []string {
	if env.AllowedOrigins == "" {
		return []string{"*"}
	}
	return strings.Split(env.AllowedOrigins, ",")
}

func initLogging(logFile *os.File) {
	log.SetFlags(log.Lshortfile | log.Ltime | log.Ldate)
	log.SetOutput(io.MultiWriter(logFile, os.Stderr))
	slog.Info("logging initialized", "log_file", logFile.Name())
}

func initDb(env *platformEnv) *gorm.DB {
	var db *gorm.DB
	var err error

	if env.DatabaseUri != "" {
		db, err = gorm.Open(postgres.Open(env.postgresDsn()), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open(filepath.Join(env.DataDir, "cleanmaster.db")), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	err = db.AutoMigrate(&schema.User{})
	if err != nil {
		log.Fatalf("error migrating db schema: %v", err)
	}

	return db
}

func initResourceStore(env *platformEnv, db *gorm.DB) resources.Store {
	if env.ResourceBackend == backendEmbedded {
		store, err := resources.NewEmbeddedStore(db, env.DataDir)
		if err != nil {
			log.Fatalf("error opening embedded resource store: %v", err)
		}
		return store
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(env.MongoUri))
	if err != nil {
		log.Fatalf("error creating mongo client: %v", err)
	}
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatalf("error connecting to mongo (ping failed): %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("error loading aws config: %v", err)
	}

	return resources.NewRemoteStore(mongoClient, env.MongoDatabase, blobstore.NewS3Store(awsCfg, env.S3Bucket))
}

func main() {
	envFile := flag.String("env", "", "File to load env variables from. If not specified will just load them from the environment variables already defined.")
	port := flag.Int("port", 8000, "Port to run server on")

	flag.Parse()

	if *envFile != "" {
		loadEnvFile(*envFile)
	}
	env := loadEnv()

	err := os.MkdirAll(filepath.Join(env.DataDir, "logs/"), 0777)
	if err != nil {
		log.Fatalf("error creating log dir: %v", err)
	}

	logFile, err := os.OpenFile(filepath.Join(env.DataDir, "logs/cleanmaster.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer logFile.Close()

	auditLog, err := os.OpenFile(filepath.Join(env.DataDir, "logs/audit.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening audit log file: %v", err)
	}
	defer auditLog.Close()

	initLogging(logFile)

	db := initDb(&env)

	store := initResourceStore(&env, db)

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(auditLog),
		auth.BasicProviderArgs{
			Secret:        []byte(env.JwtSecret),
			AdminUsername: env.AdminUsername,
			AdminEmail:    env.AdminEmail,
			AdminPassword: env.AdminPassword,
		},
	)
	if err != nil {
		log.Fatalf("error creating identity provider: %v", err)
	}

	platform := services.NewPlatform(db, store, userAuth)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   env.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/api/v1", platform.Routes())

	slog.Info("starting server", "port", *port, "resource_backend", env.ResourceBackend)
	err = http.ListenAndServe(fmt.Sprintf(":%d", *port), r)
	if err != nil {
		log.Fatalf("listen and serve returned error: %v", err.Error())
	}
}
