package resources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cleanmaster_platform/platform/schema"

	"github.com/go-gormigrate/gormigrate/v2"
	"golang.org/x/sys/unix"
	"gorm.io/gorm"
)

// embeddedStore persists catalogs and videos in the local gorm database,
// with binary payloads inlined as data URLs. It requires no network access.
type embeddedStore struct {
	db      *gorm.DB
	dataDir string
}

// Each step is additive only. The catalogs space predates the videos space,
// a database created by an older build is upgraded in place without touching
// the catalog rows already present.
func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "1_catalogs",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&schema.Catalog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&schema.Catalog{})
			},
		},
		{
			ID: "2_videos",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&schema.Video{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&schema.Video{})
			},
		},
	}
}

// MigrateEmbedded applies any pending embedded store schema migrations.
// Applied steps are recorded in the database, rerunning is a no-op.
func MigrateEmbedded(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, migrations()).Migrate()
}

// NewEmbeddedStore opens the embedded backend on the given database handle,
// applying any pending schema migrations. Opening is idempotent. dataDir is
// the directory holding the database file, used for capacity checks.
func NewEmbeddedStore(db *gorm.DB, dataDir string) (Store, error) {
	if err := MigrateEmbedded(db); err != nil {
		slog.Error("embedded store migration failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEnvironment, err)
	}

	slog.Info("embedded resource store ready", "data_dir", dataDir)
	return newStore(&embeddedStore{db: db, dataDir: dataDir}), nil
}

// checkCapacity verifies the filesystem holding the database can absorb a
// write of the given encoded size.
func (s *embeddedStore) checkCapacity(encodedSize int) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(s.dataDir, &stat); err != nil {
		slog.Error("error getting disk usage for embedded store", "data_dir", s.dataDir, "error", err)
		return fmt.Errorf("error getting disk usage stats: %w", err)
	}

	free := stat.Bfree * uint64(stat.Bsize)
	// Leave headroom for the database's own journaling overhead.
	need := uint64(encodedSize) + 4*1024*1024
	if free < need {
		return fmt.Errorf("%w: payload needs %d bytes but only %d are free", ErrQuotaExceeded, need, free)
	}
	return nil
}

func (s *embeddedStore) putCatalog(ctx context.Context, catalog schema.Catalog, payload []byte) error {
	catalog.PayloadRef = encodeDataURL(catalog.MediaType, payload)

	if err := s.checkCapacity(len(catalog.PayloadRef)); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		// Save upserts on the brand primary key, replacing any prior record.
		result := txn.Save(&catalog)
		if result.Error != nil {
			slog.Error("sql error saving catalog", "brand", catalog.Brand, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	return err
}

func (s *embeddedStore) getCatalog(ctx context.Context, brand schema.Brand) (*schema.Catalog, error) {
	var catalog schema.Catalog

	result := s.db.WithContext(ctx).First(&catalog, "brand = ?", brand)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("sql error in get catalog", "brand", brand, "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}

	return &catalog, nil
}

func (s *embeddedStore) deleteCatalog(ctx context.Context, brand schema.Brand) error {
	return s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		// Deleting an absent record is not an error.
		result := txn.Delete(&schema.Catalog{}, "brand = ?", brand)
		if result.Error != nil {
			slog.Error("sql error deleting catalog", "brand", brand, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
}

func (s *embeddedStore) putVideo(ctx context.Context, video schema.Video, fileName string, payload []byte) (schema.Video, error) {
	if video.SourceKind == schema.SourceFile {
		video.PayloadRef = encodeDataURL(detectVideoMediaType(fileName), payload)

		if err := s.checkCapacity(len(video.PayloadRef)); err != nil {
			return schema.Video{}, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		result := txn.Save(&video)
		if result.Error != nil {
			slog.Error("sql error saving video", "video_id", video.Id, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return schema.Video{}, err
	}

	return video, nil
}

func (s *embeddedStore) listVideos(ctx context.Context) ([]schema.Video, error) {
	var videos []schema.Video

	result := s.db.WithContext(ctx).Find(&videos)
	if result.Error != nil {
		slog.Error("sql error listing videos", "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}

	return videos, nil
}

func (s *embeddedStore) deleteVideo(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		result := txn.Delete(&schema.Video{}, "id = ?", id)
		if result.Error != nil {
			slog.Error("sql error deleting video", "video_id", id, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
}
