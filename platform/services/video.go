package services

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cleanmaster_platform/platform/auth"
	"cleanmaster_platform/platform/resources"
	"cleanmaster_platform/platform/schema"
	"cleanmaster_platform/utils"

	"github.com/go-chi/chi/v5"
)

type VideoService struct {
	store    resources.Store
	userAuth auth.IdentityProvider
}

func (s *VideoService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.ApprovedOnly())

		r.Get("/list", s.ListVideos)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly())

		r.Post("/", s.AddVideo)
		r.Delete("/{video_id}", s.DeleteVideo)
	})

	return r
}

func (s *VideoService) ListVideos(w http.ResponseWriter, r *http.Request) {
	brand := schema.Brand(r.URL.Query().Get("brand"))
	if brand != "" && !schema.ValidBrand(brand) {
		http.Error(w, fmt.Sprintf("unknown brand '%v'", brand), http.StatusBadRequest)
		return
	}

	videos, err := s.store.ListVideos(r.Context(), brand)
	if err != nil {
		slog.Error("video list failed", "brand", brand, "error", err)
		http.Error(w, err.Error(), storeResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, videos)
}

type addLinkVideoRequest struct {
	Title string       `json:"title"`
	Brand schema.Brand `json:"brand"`
	Url   string       `json:"url"`
}

// AddVideo accepts either a json body describing an externally hosted video,
// or a multipart form with title/brand fields and the video file itself.
func (s *VideoService) AddVideo(w http.ResponseWriter, r *http.Request) {
	var upload resources.VideoUpload

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
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

		upload = resources.VideoUpload{
			Title:      r.FormValue("title"),
			Brand:      schema.Brand(r.FormValue("brand")),
			SourceKind: schema.SourceFile,
			FileName:   header.Filename,
			Payload:    payload,
		}
	} else {
		var params addLinkVideoRequest
		if !utils.ParseRequestBody(w, r, &params) {
			return
		}

		upload = resources.VideoUpload{
			Title:      params.Title,
			Brand:      params.Brand,
			SourceKind: schema.SourceLink,
			URL:        params.Url,
		}
	}

	video, err := s.store.PutVideo(r.Context(), upload)
	if err != nil {
		slog.Error("video add failed", "title", upload.Title, "brand", upload.Brand, "error", err)
		http.Error(w, err.Error(), storeResponseCode(err))
		return
	}

	slog.Info("video added", "video_id", video.Id, "brand", video.Brand, "source_kind", video.SourceKind)

	utils.WriteJsonResponse(w, video)
}

func (s *VideoService) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoId, err := utils.URLParam(r, "video_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteVideo(r.Context(), videoId); err != nil {
		slog.Error("video delete failed", "video_id", videoId, "error", err)
		http.Error(w, err.Error(), storeResponseCode(err))
		return
	}

	slog.Info("video deleted", "video_id", videoId)

	utils.WriteSuccess(w)
}
