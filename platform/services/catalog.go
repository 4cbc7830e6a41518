package services

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cleanmaster_platform/platform/auth"
	"cleanmaster_platform/platform/resources"
	"cleanmaster_platform/platform/schema"
	"cleanmaster_platform/utils"

	"github.com/go-chi/chi/v5"
)

// maxUploadSize bounds a single catalog or video upload read into memory.
const maxUploadSize = 256 << 20

type CatalogService struct {
	store    resources.Store
	userAuth auth.IdentityProvider
}

func (s *CatalogService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.ApprovedOnly())

		r.Get("/{brand}", s.GetCatalog)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly())

		r.Post("/{brand}", s.UploadCatalog)
		r.Delete("/{brand}", s.DeleteCatalog)
	})

	return r
}

func brandParam(r *http.Request) (schema.Brand, error) {
	param, err := utils.URLParam(r, "brand")
	if err != nil {
		return "", CodedError(err, http.StatusBadRequest)
	}

	brand := schema.Brand(param)
	if !schema.ValidBrand(brand) {
		return "", CodedError(fmt.Errorf("unknown brand '%v'", param), http.StatusBadRequest)
	}
	return brand, nil
}

func (s *CatalogService) GetCatalog(w http.ResponseWriter, r *http.Request) {
	brand, err := brandParam(r)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	catalog, err := s.store.GetCatalog(r.Context(), brand)
	if err != nil {
		http.Error(w, err.Error(), storeResponseCode(err))
		return
	}

	// A missing catalog is an empty result, not an error.
	utils.WriteJsonResponse(w, catalog)
}

func (s *CatalogService) UploadCatalog(w http.ResponseWriter, r *http.Request) {
	brand, err := brandParam(r)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading uploaded file: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading uploaded file: %v", err), http.StatusBadRequest)
		return
	}

	upload := resources.CatalogUpload{
		Name:      header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Payload:   payload,
	}

	slog.Info("catalog upload", "brand", brand, "name", upload.Name, "size", len(payload))

	if err := s.store.PutCatalog(r.Context(), brand, upload); err != nil {
		slog.Error("catalog upload failed", "brand", brand, "error", err)
		http.Error(w, err.Error(), storeResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *CatalogService) DeleteCatalog(w http.ResponseWriter, r *http.Request) {
	brand, err := brandParam(r)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	if err := s.store.DeleteCatalog(r.Context(), brand); err != nil {
		slog.Error("catalog delete failed", "brand", brand, "error", err)
		http.Error(w, err.Error(), storeResponseCode(err))
		return
	}

	slog.Info("catalog deleted", "brand", brand)

	utils.WriteSuccess(w)
}
