package resources

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"cleanmaster_platform/platform/schema"
)

// Store is the stable interface the admin and gallery surfaces consume. The
// backend behind it (embedded or remote) is chosen once at startup and never
// changes for the lifetime of the process. Individual operation failures are
// surfaced per call, they do not poison subsequent calls.
type Store interface {
	PutCatalog(ctx context.Context, brand schema.Brand, upload CatalogUpload) error
	GetCatalog(ctx context.Context, brand schema.Brand) (*schema.Catalog, error)
	DeleteCatalog(ctx context.Context, brand schema.Brand) error

	PutVideo(ctx context.Context, upload VideoUpload) (schema.Video, error)
	ListVideos(ctx context.Context, brand schema.Brand) ([]schema.Video, error)
	DeleteVideo(ctx context.Context, id string) error
}

// CatalogUpload is the input for a catalog save. The payload replaces any
// previous catalog stored for the brand.
type CatalogUpload struct {
	Name      string
	MediaType string
	Payload   []byte
}

// VideoUpload is the input for a video save. For SourceKind "link" only URL
// is consulted, for "file" FileName and Payload are required and the store
// assigns the durable payload reference.
type VideoUpload struct {
	Title      string
	Brand      schema.Brand
	SourceKind string
	URL        string
	FileName   string
	Payload    []byte
}

// backend is the contract both storage flavors implement. Validation, id
// assignment, and list ordering live above this interface so that neither
// backend duplicates them.
type backend interface {
	putCatalog(ctx context.Context, catalog schema.Catalog, payload []byte) error
	getCatalog(ctx context.Context, brand schema.Brand) (*schema.Catalog, error)
	deleteCatalog(ctx context.Context, brand schema.Brand) error

	putVideo(ctx context.Context, video schema.Video, fileName string, payload []byte) (schema.Video, error)
	listVideos(ctx context.Context) ([]schema.Video, error)
	deleteVideo(ctx context.Context, id string) error
}

type store struct {
	backend backend
	lastId  atomic.Int64
}

func newStore(b backend) *store {
	return &store{backend: b}
}

func (s *store) PutCatalog(ctx context.Context, brand schema.Brand, upload CatalogUpload) error {
	if !schema.ValidBrand(brand) {
		return fmt.Errorf("put catalog %v: %w: unknown brand", brand, ErrInvalidPayload)
	}
	if upload.MediaType != schema.CatalogMediaType {
		return fmt.Errorf("put catalog %v: %w: media type %q is not %v", brand, ErrInvalidPayload, upload.MediaType, schema.CatalogMediaType)
	}
	if upload.Name == "" || len(upload.Payload) == 0 {
		return fmt.Errorf("put catalog %v: %w: file name and payload are required", brand, ErrInvalidPayload)
	}

	catalog := schema.Catalog{
		Brand:      brand,
		Name:       upload.Name,
		MediaType:  upload.MediaType,
		UploadedAt: time.Now().UTC(),
	}

	if err := s.backend.putCatalog(ctx, catalog, upload.Payload); err != nil {
		return fmt.Errorf("put catalog %v: %w", brand, err)
	}
	return nil
}

func (s *store) GetCatalog(ctx context.Context, brand schema.Brand) (*schema.Catalog, error) {
	if !schema.ValidBrand(brand) {
		return nil, fmt.Errorf("get catalog %v: %w: unknown brand", brand, ErrInvalidPayload)
	}

	catalog, err := s.backend.getCatalog(ctx, brand)
	if err != nil {
		return nil, fmt.Errorf("get catalog %v: %w", brand, err)
	}
	return catalog, nil
}

func (s *store) DeleteCatalog(ctx context.Context, brand schema.Brand) error {
	if !schema.ValidBrand(brand) {
		return fmt.Errorf("delete catalog %v: %w: unknown brand", brand, ErrInvalidPayload)
	}

	if err := s.backend.deleteCatalog(ctx, brand); err != nil {
		return fmt.Errorf("delete catalog %v: %w", brand, err)
	}
	return nil
}

// newVideoId returns a creation timestamp based id. Ids only need to be
// unique within the store, the presentation order is determined by CreatedAt.
func (s *store) newVideoId() string {
	now := time.Now().UnixNano()
	for {
		last := s.lastId.Load()
		if now <= last {
			now = last + 1
		}
		if s.lastId.CompareAndSwap(last, now) {
			return strconv.FormatInt(now, 10)
		}
	}
}

func (s *store) PutVideo(ctx context.Context, upload VideoUpload) (schema.Video, error) {
	if upload.Title == "" {
		return schema.Video{}, fmt.Errorf("put video: %w: title is required", ErrInvalidPayload)
	}
	if !schema.ValidBrand(upload.Brand) {
		return schema.Video{}, fmt.Errorf("put video: %w: unknown brand %v", ErrInvalidPayload, upload.Brand)
	}

	video := schema.Video{
		Id:         s.newVideoId(),
		Title:      upload.Title,
		Brand:      upload.Brand,
		SourceKind: upload.SourceKind,
		CreatedAt:  time.Now().UTC(),
	}

	switch upload.SourceKind {
	case schema.SourceLink:
		if upload.URL == "" {
			return schema.Video{}, fmt.Errorf("put video: %w: link videos require a url", ErrInvalidPayload)
		}
		// The supplied url is stored verbatim, no upload occurs.
		video.PayloadRef = upload.URL
	case schema.SourceFile:
		if upload.FileName == "" || len(upload.Payload) == 0 {
			return schema.Video{}, fmt.Errorf("put video: %w: file videos require a file name and payload", ErrInvalidPayload)
		}
	default:
		return schema.Video{}, fmt.Errorf("put video: %w: source kind must be %q or %q", ErrInvalidPayload, schema.SourceLink, schema.SourceFile)
	}

	created, err := s.backend.putVideo(ctx, video, upload.FileName, upload.Payload)
	if err != nil {
		return schema.Video{}, fmt.Errorf("put video %v: %w", video.Id, err)
	}
	return created, nil
}

// ListVideos returns videos for one brand, or for all brands when brand is
// empty, always ordered newest first. Ordering is a store guarantee so that
// no calling surface has to re-sort.
func (s *store) ListVideos(ctx context.Context, brand schema.Brand) ([]schema.Video, error) {
	if brand != "" && !schema.ValidBrand(brand) {
		return nil, fmt.Errorf("list videos: %w: unknown brand %v", ErrInvalidPayload, brand)
	}

	all, err := s.backend.listVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	videos := make([]schema.Video, 0, len(all))
	for _, video := range all {
		if brand == "" || video.Brand == brand {
			videos = append(videos, video)
		}
	}

	sort.Slice(videos, func(i, j int) bool {
		if !videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].CreatedAt.After(videos[j].CreatedAt)
		}
		return videos[i].Id > videos[j].Id
	})

	return videos, nil
}

func (s *store) DeleteVideo(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete video: %w: id is required", ErrInvalidPayload)
	}

	if err := s.backend.deleteVideo(ctx, id); err != nil {
		return fmt.Errorf("delete video %v: %w", id, err)
	}
	return nil
}
