package services

import (
	"log"
	"net/http"
	"os"

	"cleanmaster_platform/platform/auth"
	"cleanmaster_platform/platform/resources"
	"cleanmaster_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

// Platform aggregates the admin management and end-user gallery surfaces.
// Both talk to the same resource store, the backend behind it was fixed at
// startup.
type Platform struct {
	user    UserService
	catalog CatalogService
	video   VideoService

	db *gorm.DB
}

func NewPlatform(db *gorm.DB, store resources.Store, userAuth auth.IdentityProvider) Platform {
	return Platform{
		user:    UserService{db: db, userAuth: userAuth},
		catalog: CatalogService{store: store, userAuth: userAuth},
		video:   VideoService{store: store, userAuth: userAuth},
		db:      db,
	}
}

func (p *Platform) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/user", p.user.Routes())
	r.Mount("/catalog", p.catalog.Routes())
	r.Mount("/video", p.video.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	return r
}
